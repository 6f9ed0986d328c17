package reading

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatResponse(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Model: "gpt-test",
		Choices: []chatgpt.Choice{
			{Message: chatgpt.Message{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

type stubChatClient struct {
	mu       sync.Mutex
	requests []chatgpt.ChatCompletionRequest
	handle   func(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.handle(ctx, req)
}

func (s *stubChatClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubChatClient) last() chatgpt.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

type stubSolarClient struct {
	events SunEvents
	err    error
	calls  int
}

func (s *stubSolarClient) Fetch(_ context.Context, _, _ float64, _ string) (SunEvents, error) {
	s.calls++
	return s.events, s.err
}

type mapGeoCache struct {
	entries map[string]GeoCoordinates
	err     error
	stored  int
}

func (c *mapGeoCache) Lookup(_ context.Context, key string) (GeoCoordinates, bool, error) {
	if c.err != nil {
		return GeoCoordinates{}, false, c.err
	}
	coords, ok := c.entries[key]
	return coords, ok, nil
}

func (c *mapGeoCache) Store(_ context.Context, key string, coords GeoCoordinates, _ time.Duration) error {
	if c.err != nil {
		return c.err
	}
	if c.entries == nil {
		c.entries = map[string]GeoCoordinates{}
	}
	c.entries[key] = coords
	c.stored++
	return nil
}

type fixedCounter int

func (c fixedCounter) Count(string, string) int { return int(c) }
