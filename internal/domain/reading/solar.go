package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/astro-clock/pkg/errors"
	"github.com/yanqian/astro-clock/pkg/llmjson"
)

const (
	SourceAPI      = "api"
	SourceEstimate = "llm-estimate"
	SourceDefault  = "default"

	solarEstimateSystemPrompt = "You are a helpful assistant that provides accurate sunrise and sunset times based on scientific calculations."
	solarEstimateMaxTokens    = 100
	clockLayout               = "3:04 PM"
)

// DefaultSolarTimes is the last resort when every lookup failed.
var DefaultSolarTimes = SolarTimes{Sunrise: "6:30 AM", Sunset: "7:15 PM", Source: SourceDefault}

// SolarQuery is the input of a solar lookup.
type SolarQuery struct {
	Location string
	Coords   GeoCoordinates
	Date     string
}

// SolarStrategy is one tier of the fallback chain.
type SolarStrategy struct {
	Name   string
	Lookup func(ctx context.Context, q SolarQuery) (SolarTimes, error)
}

// SolarResolver tries each strategy in order and keeps the first success.
type SolarResolver struct {
	strategies []SolarStrategy
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSolarResolver builds a resolver over an explicit strategy list. timeout
// bounds each strategy separately.
func NewSolarResolver(strategies []SolarStrategy, timeout time.Duration, logger *slog.Logger) *SolarResolver {
	return &SolarResolver{
		strategies: strategies,
		timeout:    timeout,
		logger:     logger.With("component", "reading.solar"),
	}
}

// DefaultSolarStrategies is the standard chain: the sunrise web service, a
// model estimate, then DefaultSolarTimes.
func DefaultSolarStrategies(solar SolarClient, chat ChatClient, model string, zone *time.Location) []SolarStrategy {
	return []SolarStrategy{
		APISolarStrategy(solar, zone),
		EstimateSolarStrategy(chat, model),
		FixedSolarStrategy(DefaultSolarTimes),
	}
}

// Resolve always returns a value. Failures are logged and absorbed.
func (r *SolarResolver) Resolve(ctx context.Context, q SolarQuery) SolarTimes {
	for _, strategy := range r.strategies {
		times, err := r.run(ctx, strategy, q)
		if err == nil {
			r.logger.Info("solar times resolved", "source", times.Source, "sunrise", times.Sunrise, "sunset", times.Sunset)
			return times
		}
		r.logger.Warn("solar lookup failed, trying next source",
			"strategy", strategy.Name,
			"date", q.Date,
			"error", apperrors.Wrap(CodeSolarTimeFailed, "solar lookup failed", err),
		)
	}
	return DefaultSolarTimes
}

func (r *SolarResolver) run(ctx context.Context, strategy SolarStrategy, q SolarQuery) (SolarTimes, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	times, err := strategy.Lookup(ctx, q)
	if err != nil {
		return SolarTimes{}, err
	}
	if times.Sunrise == "" || times.Sunset == "" {
		return SolarTimes{}, errors.New("incomplete solar times")
	}
	if times.Source == "" {
		times.Source = strategy.Name
	}
	return times, nil
}

// APISolarStrategy queries the coordinate keyed web service and renders the
// instants as 12-hour clock strings. A nil zone renders in the mean solar
// offset of the longitude.
func APISolarStrategy(client SolarClient, zone *time.Location) SolarStrategy {
	return SolarStrategy{
		Name: SourceAPI,
		Lookup: func(ctx context.Context, q SolarQuery) (SolarTimes, error) {
			if !q.Coords.Resolved {
				return SolarTimes{}, errors.New("coordinates unresolved")
			}
			events, err := client.Fetch(ctx, q.Coords.Latitude, q.Coords.Longitude, q.Date)
			if err != nil {
				return SolarTimes{}, err
			}
			loc := zone
			if loc == nil {
				loc = LongitudeZone(q.Coords.Longitude)
			}
			return SolarTimes{
				Sunrise: events.Sunrise.In(loc).Format(clockLayout),
				Sunset:  events.Sunset.In(loc).Format(clockLayout),
				Source:  SourceAPI,
			}, nil
		},
	}
}

// EstimateSolarStrategy asks the model for an estimate. Without coordinates
// the question names the place instead.
func EstimateSolarStrategy(client ChatClient, model string) SolarStrategy {
	return SolarStrategy{
		Name: SourceEstimate,
		Lookup: func(ctx context.Context, q SolarQuery) (SolarTimes, error) {
			resp, err := client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
				Model: model,
				Messages: []chatgpt.Message{
					{Role: "system", Content: solarEstimateSystemPrompt},
					{Role: "user", Content: solarEstimatePrompt(q)},
				},
				Temperature: chatgpt.Float32(0),
				MaxTokens:   solarEstimateMaxTokens,
			})
			if err != nil {
				return SolarTimes{}, fmt.Errorf("solar estimate request: %w", err)
			}
			var wire struct {
				Sunrise string `json:"sunrise"`
				Sunset  string `json:"sunset"`
			}
			if err := llmjson.Decode(resp.FirstContent(), &wire); err != nil {
				return SolarTimes{}, fmt.Errorf("parse solar estimate: %w", err)
			}
			return SolarTimes{
				Sunrise: strings.TrimSpace(wire.Sunrise),
				Sunset:  strings.TrimSpace(wire.Sunset),
				Source:  SourceEstimate,
			}, nil
		},
	}
}

// FixedSolarStrategy always yields times.
func FixedSolarStrategy(times SolarTimes) SolarStrategy {
	return SolarStrategy{
		Name: SourceDefault,
		Lookup: func(context.Context, SolarQuery) (SolarTimes, error) {
			return times, nil
		},
	}
}

func solarEstimatePrompt(q SolarQuery) string {
	const format = `Respond with only a JSON object in the format: {"sunrise": "HH:MM AM/PM", "sunset": "HH:MM AM/PM"}`
	if q.Coords.Resolved {
		return fmt.Sprintf("Based on scientific calculations, what would be the approximate sunrise and sunset times for a location at latitude %s, longitude %s on date %s? %s",
			strconv.FormatFloat(q.Coords.Latitude, 'f', -1, 64),
			strconv.FormatFloat(q.Coords.Longitude, 'f', -1, 64),
			q.Date, format)
	}
	return fmt.Sprintf("Based on scientific calculations, what would be the approximate local sunrise and sunset times in %s on date %s? %s",
		q.Location, q.Date, format)
}

// LongitudeZone approximates local time as a whole-hour offset of 15 degrees
// per hour.
func LongitudeZone(longitude float64) *time.Location {
	hours := int(math.Round(longitude / 15))
	name := fmt.Sprintf("UTC%+d", hours)
	if hours == 0 {
		name = "UTC"
	}
	return time.FixedZone(name, hours*3600)
}
