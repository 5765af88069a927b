package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const apiKeyEnv = "COINCAP_API_KEY"

type Config struct {
	API        APIConfig        `yaml:"api"`
	History    HistoryConfig    `yaml:"history"`
	LivePrices LivePricesConfig `yaml:"live_prices"`
	Window     WindowConfig     `yaml:"window"`
	Log        LogConfig        `yaml:"log"`
}

type APIConfig struct {
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	APIKey          string        `yaml:"api_key"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	HistoryInterval string        `yaml:"history_interval" validate:"required,oneof=m1 m5 m15 m30 h1 h2 h6 h12 d1"`
}

type HistoryConfig struct {
	Window   time.Duration `yaml:"window" validate:"gt=0"`
	Timezone string        `yaml:"timezone" validate:"required"`
}

type LivePricesConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" validate:"omitempty,url"`
}

type WindowConfig struct {
	Width  int    `yaml:"width" validate:"gt=0"`
	Height int    `yaml:"height" validate:"gt=0"`
	Title  string `yaml:"title"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
}

func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:         "https://api.coincap.io/v2",
			Timeout:         10 * time.Second,
			HistoryInterval: "h6",
		},
		History: HistoryConfig{
			Window:   5 * 24 * time.Hour,
			Timezone: "Local",
		},
		LivePrices: LivePricesConfig{
			URL: "wss://ws.coincap.io/prices",
		},
		Window: WindowConfig{
			Width:  960,
			Height: 600,
			Title:  "Crypto Tracker",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML file at path on top of DefaultConfig. An empty
// path yields the defaults. COINCAP_API_KEY overrides api.api_key.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		cfg.API.APIKey = key
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.LivePrices.Enabled && cfg.LivePrices.URL == "" {
		return nil, fmt.Errorf("%w: live_prices.url is required when live prices are enabled", ErrInvalidConfig)
	}
	if _, err := cfg.History.Location(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &cfg, nil
}

func (h HistoryConfig) Location() (*time.Location, error) {
	return time.LoadLocation(h.Timezone)
}
