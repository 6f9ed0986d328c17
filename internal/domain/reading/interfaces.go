package reading

import (
	"context"
	"time"

	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
)

// ChatClient is the chat completion API used for geocoding, solar estimates
// and the reading itself.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// SolarClient fetches sunrise and sunset instants for a coordinate pair.
type SolarClient interface {
	Fetch(ctx context.Context, latitude, longitude float64, date string) (SunEvents, error)
}

// GeoCache remembers resolved coordinates by place name. Lookup reports a
// miss with ok=false and a nil error.
type GeoCache interface {
	Lookup(ctx context.Context, key string) (coords GeoCoordinates, ok bool, err error)
	Store(ctx context.Context, key string, coords GeoCoordinates, ttl time.Duration) error
}

// TokenCounter measures prompt text in model tokens.
type TokenCounter interface {
	Count(model, text string) int
}
