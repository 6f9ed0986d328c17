package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Reading   ReadingConfig   `yaml:"reading"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	Solar     SolarConfig     `yaml:"solar"`
	Access    AccessConfig    `yaml:"access"`
	Site      SiteConfig      `yaml:"site"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains the OpenAI compatible provider settings.
type LLMConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReadingConfig holds the sampling contract of the prediction call.
type ReadingConfig struct {
	SystemPrompt     string        `yaml:"systemPrompt"`
	TemplateDir      string        `yaml:"templateDir"`
	Temperature      float32       `yaml:"temperature"`
	MaxTokens        int           `yaml:"maxTokens"`
	TopP             float32       `yaml:"topP"`
	FrequencyPenalty float32       `yaml:"frequencyPenalty"`
	PresencePenalty  float32       `yaml:"presencePenalty"`
	Timeout          time.Duration `yaml:"timeout"`
	ContextWindow    int           `yaml:"contextWindow"`
}

// GeocodingConfig controls the place name lookup.
type GeocodingConfig struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	Cache   CacheConfig   `yaml:"cache"`
}

// CacheConfig contains connection information for the optional geocode cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// SolarConfig controls the sunrise/sunset lookup.
type SolarConfig struct {
	APIBaseURL  string        `yaml:"apiBaseUrl"`
	Timeout     time.Duration `yaml:"timeout"`
	DisplayZone string        `yaml:"displayZone"`
}

// AccessConfig controls the reading pass gate. An empty secret disables it.
// CheckoutSecret authenticates the checkout backend on pass issuing; an
// empty value disables issuing over HTTP.
type AccessConfig struct {
	Secret         string        `yaml:"secret"`
	CheckoutSecret string        `yaml:"checkoutSecret"`
	Issuer         string        `yaml:"issuer"`
	TTL            time.Duration `yaml:"ttl"`
}

// SiteConfig feeds the sharing metadata.
type SiteConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

// ResponseMargin is the part of http.writeTimeout left for reading the
// request and writing the response around the reading pipeline.
const ResponseMargin = 10 * time.Second

// ReadingBudget is the longest a reading request can spend in the pipeline:
// the geocode step, both timed solar tiers and the prediction call.
func (c *Config) ReadingBudget() time.Duration {
	return c.Geocoding.Timeout + 2*c.Solar.Timeout + c.Reading.Timeout
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_MAX_UPLOAD_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxUploadBytes = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	// OPENAI_API_KEY is the name the web frontend deployment already uses.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("OPENAI_SYSTEM_PROMPT_ASTROLOGY"); v != "" {
		cfg.Reading.SystemPrompt = v
	}
	if v := os.Getenv("READING_TEMPLATE_DIR"); v != "" {
		cfg.Reading.TemplateDir = v
	}
	if v := os.Getenv("READING_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Reading.Timeout = parsed
		}
	}
	if v := os.Getenv("READING_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Reading.MaxTokens = parsed
		}
	}
	if v := os.Getenv("READING_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Reading.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("GEOCODING_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Geocoding.Timeout = parsed
		}
	}
	if v := os.Getenv("GEOCODING_CACHE_ENABLED"); v != "" {
		cfg.Geocoding.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("GEOCODING_CACHE_ADDR"); v != "" {
		cfg.Geocoding.Cache.Addr = v
	}
	if v := os.Getenv("GEOCODING_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Geocoding.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("SOLAR_API_BASE_URL"); v != "" {
		cfg.Solar.APIBaseURL = v
	}
	if v := os.Getenv("SOLAR_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Solar.Timeout = parsed
		}
	}
	if v := os.Getenv("SOLAR_DISPLAY_ZONE"); v != "" {
		cfg.Solar.DisplayZone = v
	}
	if v := os.Getenv("ACCESS_SECRET"); v != "" {
		cfg.Access.Secret = v
	}
	if v := os.Getenv("ACCESS_CHECKOUT_SECRET"); v != "" {
		cfg.Access.CheckoutSecret = v
	}
	if v := os.Getenv("ACCESS_PASS_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Access.TTL = parsed
		}
	}
	if v := os.Getenv("NEXT_PUBLIC_BASE_URL"); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := os.Getenv("SITE_BASE_URL"); v != "" {
		cfg.Site.BaseURL = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   180 * time.Second,
			MaxUploadBytes: 10 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
		},
		LLM: LLMConfig{
			Model:   "gpt-4.5-preview",
			Timeout: 180 * time.Second,
		},
		Reading: ReadingConfig{
			Temperature:      1,
			MaxTokens:        5010,
			TopP:             1,
			FrequencyPenalty: 0,
			PresencePenalty:  0,
			Timeout:          120 * time.Second,
			ContextWindow:    128000,
		},
		Geocoding: GeocodingConfig{
			Timeout: 15 * time.Second,
			Cache: CacheConfig{
				Enabled: false,
				TTL:     30 * 24 * time.Hour,
			},
		},
		Solar: SolarConfig{
			APIBaseURL: "https://api.sunrise-sunset.org/json",
			Timeout:    10 * time.Second,
		},
		Access: AccessConfig{
			Issuer: "astro-clock",
			TTL:    time.Hour,
		},
		Site: SiteConfig{
			BaseURL: "https://astroclock.app",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.maxUploadBytes must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if c.Reading.MaxTokens <= 0 {
		return errors.New("reading.maxTokens must be positive")
	}
	if c.Reading.Temperature < 0 || c.Reading.Temperature > 2 {
		return errors.New("reading.temperature must be within [0, 2]")
	}
	if c.Reading.TopP < 0 || c.Reading.TopP > 1 {
		return errors.New("reading.topP must be within [0, 1]")
	}
	if c.Reading.Timeout < 0 {
		return errors.New("reading.timeout cannot be negative")
	}
	if c.Geocoding.Timeout < 0 || c.Solar.Timeout < 0 {
		return errors.New("geocoding.timeout and solar.timeout cannot be negative")
	}
	if c.HTTP.WriteTimeout > 0 {
		if c.Reading.Timeout == 0 || c.Geocoding.Timeout == 0 || c.Solar.Timeout == 0 {
			return errors.New("reading.timeout, geocoding.timeout and solar.timeout must be set when http.writeTimeout is set")
		}
		if need := c.ReadingBudget() + ResponseMargin; c.HTTP.WriteTimeout < need {
			return fmt.Errorf("http.writeTimeout %s must be at least %s to deliver reading timeouts", c.HTTP.WriteTimeout, need)
		}
	}
	if c.Geocoding.Cache.TTL < 0 {
		return errors.New("geocoding.cache.ttl cannot be negative")
	}
	if strings.TrimSpace(c.Solar.APIBaseURL) == "" {
		return errors.New("solar.apiBaseUrl cannot be empty")
	}
	if zone := strings.TrimSpace(c.Solar.DisplayZone); zone != "" {
		if _, err := time.LoadLocation(zone); err != nil {
			return fmt.Errorf("solar.displayZone: %w", err)
		}
	}
	if c.Access.Secret != "" {
		if len(c.Access.Secret) < 32 {
			return errors.New("access.secret must be at least 32 bytes")
		}
		if c.Access.TTL <= 0 {
			return errors.New("access.ttl must be positive when access.secret is set")
		}
	}
	if c.Access.CheckoutSecret != "" {
		if c.Access.Secret == "" {
			return errors.New("access.checkoutSecret requires access.secret")
		}
		if len(c.Access.CheckoutSecret) < 32 {
			return errors.New("access.checkoutSecret must be at least 32 bytes")
		}
	}
	return nil
}
