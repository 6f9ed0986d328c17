package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/astro-clock/internal/domain/access"
	"github.com/yanqian/astro-clock/internal/domain/reading"
	"github.com/yanqian/astro-clock/internal/infra/config"
	"github.com/yanqian/astro-clock/internal/infra/geocache"
	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
	"github.com/yanqian/astro-clock/internal/infra/solar/sunrisesunset"
	"github.com/yanqian/astro-clock/internal/infra/tokenizer"
)

const tokenizerWarmTimeout = 5 * time.Second

func provideReadingConfig(cfg *config.Config) (reading.Config, error) {
	var zone *time.Location
	if name := strings.TrimSpace(cfg.Solar.DisplayZone); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return reading.Config{}, fmt.Errorf("load solar display zone: %w", err)
		}
		zone = loc
	}
	return reading.Config{
		Model:            cfg.LLM.Model,
		SystemPrompt:     cfg.Reading.SystemPrompt,
		Temperature:      cfg.Reading.Temperature,
		MaxTokens:        cfg.Reading.MaxTokens,
		TopP:             cfg.Reading.TopP,
		FrequencyPenalty: cfg.Reading.FrequencyPenalty,
		PresencePenalty:  cfg.Reading.PresencePenalty,
		Timeout:          cfg.Reading.Timeout,
		ContextWindow:    cfg.Reading.ContextWindow,
		MaxPhotoBytes:    cfg.HTTP.MaxUploadBytes,
		GeocodeModel:     cfg.Geocoding.Model,
		GeocodeTimeout:   cfg.Geocoding.Timeout,
		GeocodeCacheTTL:  cfg.Geocoding.Cache.TTL,
		SolarTimeout:     cfg.Solar.Timeout,
		DisplayZone:      zone,
	}, nil
}

func provideReadingTemplates(cfg *config.Config, logger *slog.Logger) (reading.Templates, error) {
	dir := strings.TrimSpace(cfg.Reading.TemplateDir)
	if dir == "" {
		return reading.DefaultTemplates()
	}
	if _, err := os.Stat(dir); err != nil {
		return reading.Templates{}, fmt.Errorf("reading template dir: %w", err)
	}
	logger.Info("loading reading templates", "dir", dir)
	return reading.LoadTemplates(os.DirFS(dir))
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
}

func provideSolarClient(cfg *config.Config) *sunrisesunset.Client {
	return sunrisesunset.NewClient(cfg.Solar.APIBaseURL, cfg.Solar.Timeout)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) reading.TokenCounter {
	tokenizer.UseOfflineEncodings()
	counter := tokenizer.NewCounter(logger)
	ctx, cancel := context.WithTimeout(context.Background(), tokenizerWarmTimeout)
	defer cancel()
	if !counter.Warm(ctx, cfg.LLM.Model) {
		logger.Warn("token counts for the reading model are estimates", "model", cfg.LLM.Model)
	}
	return counter
}

func provideGeoCache(cfg *config.Config, logger *slog.Logger) reading.GeoCache {
	if !cfg.Geocoding.Cache.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Geocoding.Cache.Addr) == "" {
		logger.Info("geocode cache addr not set, using memory store")
		return geocache.NewMemoryStore()
	}
	opt, err := buildValkeyOptions(cfg.Geocoding.Cache.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return geocache.NewMemoryStore()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return geocache.NewMemoryStore()
	}
	store := geocache.NewValkeyStore(client, "astroclock")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return geocache.NewMemoryStore()
	}
	logger.Info("geocode valkey cache enabled", "addr", cfg.Geocoding.Cache.Addr)
	return store
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideAccessConfig(cfg *config.Config) access.Config {
	return access.Config{
		Secret:         cfg.Access.Secret,
		CheckoutSecret: cfg.Access.CheckoutSecret,
		Issuer:         cfg.Access.Issuer,
		TTL:            cfg.Access.TTL,
	}
}
