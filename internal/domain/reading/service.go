package reading

import (
	"context"
	"log/slog"

	apperrors "github.com/yanqian/astro-clock/pkg/errors"
)

// Service exposes the reading pipeline.
type Service interface {
	Generate(ctx context.Context, data BirthData, photo *Photo) (Result, error)
}

type service struct {
	cfg       Config
	geocoder  *Geocoder
	solar     *SolarResolver
	composer  *Composer
	requester *Requester
	logger    *slog.Logger
}

// NewService is a wire provider for the reading domain. cache and counter
// may be nil.
func NewService(cfg Config, templates Templates, chat ChatClient, solarClient SolarClient, cache GeoCache, counter TokenCounter, logger *slog.Logger) (Service, error) {
	composer, err := NewComposer(templates, cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}
	geocodeModel := cfg.GeocodeModel
	if geocodeModel == "" {
		geocodeModel = cfg.Model
	}
	return &service{
		cfg:      cfg,
		geocoder: NewGeocoder(chat, cache, geocodeModel, cfg.GeocodeTimeout, cfg.GeocodeCacheTTL, logger),
		solar: NewSolarResolver(
			DefaultSolarStrategies(solarClient, chat, geocodeModel, cfg.DisplayZone),
			cfg.SolarTimeout,
			logger,
		),
		composer:  composer,
		requester: NewRequester(cfg, chat, counter, logger),
		logger:    logger.With("component", "reading.service"),
	}, nil
}

// Generate runs normalize, geocode, solar lookup, compose and request in
// order. Only input and generation failures reach the caller.
func (s *service) Generate(ctx context.Context, data BirthData, photo *Photo) (Result, error) {
	req, err := Normalize(data, photo, s.cfg.MaxPhotoBytes)
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("reading requested", "method", req.Method, "date", req.Date, "time_of_day", req.TimeOfDay)

	coords := s.geocoder.Resolve(ctx, req.Location)
	solar := s.solar.Resolve(ctx, SolarQuery{Location: req.Location, Coords: coords, Date: req.Date})

	prompt, err := s.composer.Compose(req, coords, solar)
	if err != nil {
		return Result{}, apperrors.Wrap(CodeGenerationFailed, "failed to generate reading", err)
	}
	return s.requester.Request(ctx, prompt)
}
