package reading

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
	"github.com/yanqian/astro-clock/internal/infra/tokenizer"
	apperrors "github.com/yanqian/astro-clock/pkg/errors"
)

func readingConfig() Config {
	return Config{
		Model:         "gpt-reading",
		Temperature:   1,
		MaxTokens:     5010,
		TopP:          1,
		Timeout:       time.Second,
		ContextWindow: 128000,
	}
}

func textPrompt() Prompt {
	return Prompt{Messages: []PromptMessage{
		{Role: RoleSystem, Text: "persona"},
		{Role: RoleUser, Text: "subject"},
		{Role: RoleUser, Text: "methodology"},
	}}
}

func TestRequesterSuccess(t *testing.T) {
	client := &stubChatClient{handle: func(context.Context, chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		resp := chatResponse("Our calculations show Leo rising between approximately 6 and 8 AM.")
		resp.Usage = &chatgpt.Usage{PromptTokens: 900, CompletionTokens: 120, TotalTokens: 1020}
		return resp, nil
	}}
	requester := NewRequester(readingConfig(), client, fixedCounter(7), discardLogger())

	res, err := requester.Request(context.Background(), textPrompt())
	require.NoError(t, err)
	require.Contains(t, res.Text, "Leo rising")
	require.Equal(t, "gpt-test", res.Model)
	require.Equal(t, 1020, res.Usage.TotalTokens)
	require.False(t, res.Usage.Estimated)

	req := client.last()
	require.Equal(t, "gpt-reading", req.Model)
	require.Equal(t, float32(1), *req.Temperature)
	require.Equal(t, 5010, req.MaxTokens)
	require.Equal(t, float32(1), *req.TopP)
	require.Equal(t, float32(0), *req.FrequencyPenalty)
	require.Equal(t, float32(0), *req.PresencePenalty)
	require.Len(t, req.Messages, 3)
	require.Equal(t, "system", req.Messages[0].Role)
	require.Equal(t, "persona", req.Messages[0].Content)
	require.Equal(t, "methodology", req.Messages[2].Content)
}

func TestRequesterSendsImageAsParts(t *testing.T) {
	client := replyWith("ok", nil)
	requester := NewRequester(readingConfig(), client, nil, discardLogger())
	prompt := textPrompt()
	prompt.Messages[1].Image = &ImageRef{MimeType: "image/jpeg", DataURI: "data:image/jpeg;base64,AAAA"}

	_, err := requester.Request(context.Background(), prompt)
	require.NoError(t, err)

	user := client.last().Messages[1]
	require.Empty(t, user.Content)
	require.Len(t, user.Parts, 2)
	require.Equal(t, "subject", user.Parts[0].Text)
	require.Equal(t, "data:image/jpeg;base64,AAAA", user.Parts[1].ImageURL.URL)
}

func TestRequesterEmptyReplyUsesFallback(t *testing.T) {
	requester := NewRequester(readingConfig(), replyWith("   ", nil), fixedCounter(3), discardLogger())

	res, err := requester.Request(context.Background(), textPrompt())
	require.NoError(t, err)
	require.Equal(t, FallbackPrediction, res.Text)
	require.True(t, res.Usage.Estimated)
	require.Equal(t, 6, res.Usage.TotalTokens)
}

func TestRequesterNoChoicesUsesFallback(t *testing.T) {
	client := &stubChatClient{handle: func(context.Context, chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatgpt.ChatCompletionResponse{}, nil
	}}
	requester := NewRequester(readingConfig(), client, nil, discardLogger())

	res, err := requester.Request(context.Background(), textPrompt())
	require.NoError(t, err)
	require.Equal(t, FallbackPrediction, res.Text)
	require.Equal(t, "gpt-reading", res.Model)
}

func TestRequesterTimeout(t *testing.T) {
	client := &stubChatClient{handle: func(ctx context.Context, _ chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		<-ctx.Done()
		return chatgpt.ChatCompletionResponse{}, ctx.Err()
	}}
	cfg := readingConfig()
	cfg.Timeout = 20 * time.Millisecond
	requester := NewRequester(cfg, client, nil, discardLogger())

	_, err := requester.Request(context.Background(), textPrompt())
	require.True(t, apperrors.IsCode(err, CodeTimeout), "got %v", err)
	require.False(t, apperrors.IsCode(err, CodeGenerationFailed))
	require.Equal(t, 1, client.calls())
}

func TestRequesterTimeoutWhileEncodingLoads(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	counter := tokenizer.NewCounterWithLoader(func(string) (*tiktoken.Tiktoken, error) {
		<-release
		return nil, errors.New("encoding host unreachable")
	}, discardLogger())
	client := &stubChatClient{handle: func(ctx context.Context, _ chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		<-ctx.Done()
		return chatgpt.ChatCompletionResponse{}, ctx.Err()
	}}
	cfg := readingConfig()
	cfg.Timeout = 50 * time.Millisecond
	requester := NewRequester(cfg, client, counter, discardLogger())

	done := make(chan error, 1)
	go func() {
		_, err := requester.Request(context.Background(), textPrompt())
		done <- err
	}()
	select {
	case err := <-done:
		require.True(t, apperrors.IsCode(err, CodeTimeout), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request outlived its timeout while the encoding was loading")
	}
}

func TestRequesterTransportTimeout(t *testing.T) {
	client := replyWith("", &net.DNSError{Err: "i/o timeout", Name: "api.openai.com", IsTimeout: true})
	requester := NewRequester(readingConfig(), client, nil, discardLogger())

	_, err := requester.Request(context.Background(), textPrompt())
	require.True(t, apperrors.IsCode(err, CodeTimeout), "got %v", err)
}

func TestRequesterProviderFailure(t *testing.T) {
	client := replyWith("", &chatgpt.StatusError{StatusCode: 401, Body: `{"error":"bad key sk-secret"}`})
	requester := NewRequester(readingConfig(), client, nil, discardLogger())

	_, err := requester.Request(context.Background(), textPrompt())
	require.True(t, apperrors.IsCode(err, CodeGenerationFailed), "got %v", err)
	require.Equal(t, "failed to generate reading", apperrors.PublicMessage(err, ""))
	require.Equal(t, 1, client.calls())
}
