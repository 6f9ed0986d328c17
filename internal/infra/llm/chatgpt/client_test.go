package chatgpt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatCompletionEncodesRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL+"/v1/", time.Second)
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model: "gpt-test",
		Messages: []Message{
			{Role: "system", Content: "persona"},
			{Role: "user", Parts: []ContentPart{TextPart("look"), ImagePart("data:image/png;base64,AAAA")}},
		},
		Temperature:      Float32(0),
		MaxTokens:        100,
		FrequencyPenalty: Float32(0),
	})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.FirstContent())
	require.NotNil(t, resp.Usage)
	require.Equal(t, 12, resp.Usage.TotalTokens)

	// explicit zero temperature must reach the wire
	require.Contains(t, got, "temperature")
	require.EqualValues(t, 0, got["temperature"])
	require.EqualValues(t, 100, got["max_tokens"])
	require.NotContains(t, got, "top_p")

	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "persona", messages[0].(map[string]any)["content"])
	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	require.Equal(t, "text", parts[0].(map[string]any)["type"])
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	require.Equal(t, "data:image/png;base64,AAAA", image["url"])
}

func TestCreateChatCompletionStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("  ", "", 0)
	require.Error(t, err)
}

func TestMessageRoundTripContentShapes(t *testing.T) {
	var text Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":"plain"}`), &text))
	require.Equal(t, "plain", text.Content)
	require.Empty(t, text.Parts)

	var multi Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":[{"type":"text","text":"hi"}]}`), &multi))
	require.Len(t, multi.Parts, 1)
	require.Equal(t, "hi", multi.Parts[0].Text)

	var empty Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":null}`), &empty))
	require.Empty(t, empty.Content)
}
