package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/astro-clock/pkg/errors"
	"github.com/yanqian/astro-clock/pkg/llmjson"
)

const (
	geocodeSystemPrompt = "You are a helpful assistant that provides geographic coordinates. Respond with only a JSON object containing latitude and longitude."
	geocodeMaxTokens    = 100
)

// Geocoder resolves place names to coordinates with a deterministic model
// call. It never fails: errors leave Resolved unset and are logged.
type Geocoder struct {
	client   ChatClient
	cache    GeoCache
	model    string
	timeout  time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewGeocoder builds a geocoder. cache may be nil.
func NewGeocoder(client ChatClient, cache GeoCache, model string, timeout, cacheTTL time.Duration, logger *slog.Logger) *Geocoder {
	return &Geocoder{
		client:   client,
		cache:    cache,
		model:    model,
		timeout:  timeout,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "reading.geocoder"),
	}
}

// CacheKey folds case and inner whitespace so equivalent spellings share an
// entry.
func CacheKey(location string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(location), " "))
}

// Resolve returns the coordinates of location, or an unresolved value. Cache
// access and the model call share one timeout.
func (g *Geocoder) Resolve(ctx context.Context, location string) GeoCoordinates {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	key := CacheKey(location)
	if g.cache != nil {
		coords, ok, err := g.cache.Lookup(ctx, key)
		switch {
		case err != nil:
			g.logger.Warn("geocode cache lookup failed", "location", location, "error", err)
		case ok:
			g.logger.Debug("geocode cache hit", "location", location)
			return coords
		}
	}

	coords, err := g.lookup(ctx, location)
	if err != nil {
		g.logger.Warn("geocoding failed, continuing without coordinates",
			"location", location,
			"error", apperrors.Wrap(CodeGeocodeFailed, "geocoding failed", err),
		)
		return GeoCoordinates{}
	}
	g.logger.Info("location geocoded", "location", location, "latitude", coords.Latitude, "longitude", coords.Longitude)

	if g.cache != nil {
		if err := g.cache.Store(ctx, key, coords, g.cacheTTL); err != nil {
			g.logger.Warn("geocode cache store failed", "location", location, "error", err)
		}
	}
	return coords
}

func (g *Geocoder) lookup(ctx context.Context, location string) (GeoCoordinates, error) {
	resp, err := g.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: g.model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: geocodeSystemPrompt},
			{Role: "user", Content: geocodeUserPrompt(location)},
		},
		Temperature: chatgpt.Float32(0),
		MaxTokens:   geocodeMaxTokens,
	})
	if err != nil {
		return GeoCoordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	return parseCoordinates(resp.FirstContent())
}

func geocodeUserPrompt(location string) string {
	return fmt.Sprintf(`What are the latitude and longitude coordinates of %s? Respond with only a JSON object in the format: {"latitude": number, "longitude": number}`, location)
}

func parseCoordinates(content string) (GeoCoordinates, error) {
	var wire struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := llmjson.Decode(content, &wire); err != nil {
		return GeoCoordinates{}, fmt.Errorf("parse coordinates: %w", err)
	}
	if wire.Latitude == nil || wire.Longitude == nil {
		return GeoCoordinates{}, errors.New("coordinates missing from response")
	}
	lat, lng := *wire.Latitude, *wire.Longitude
	if math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return GeoCoordinates{}, fmt.Errorf("coordinates out of range: %v,%v", lat, lng)
	}
	return GeoCoordinates{Latitude: lat, Longitude: lng, Resolved: true}, nil
}
