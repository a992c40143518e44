// Package config loads service configuration from defaults, an optional
// YAML file, and ANNEXA_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annexahq/annexa/internal/ai"
	"github.com/annexahq/annexa/internal/billing"
	"github.com/annexahq/annexa/internal/ratelimit"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
}

// RedisConfig holds remote store settings. The remote cache binds only when
// Addr is set; otherwise every feature runs on the in-process fallback.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CrawlConfig holds crawler settings.
type CrawlConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
}

// Config is the central configuration struct embedding all component configs.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        ai.Config       `yaml:"ai"`
	Billing   billing.Config  `yaml:"billing"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Limits    map[string]int  `yaml:"limits"` // tier -> accepted actions per day
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			LogLevel: "info",
		},
		AI: ai.DefaultConfig(),
		Crawl: CrawlConfig{
			TimeoutSeconds: 8,
		},
		Limits: map[string]int{
			ratelimit.TierFree: 3,
			ratelimit.TierEdge: 25,
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Endpoint:   "localhost:4318",
			SampleRate: 1.0,
		},
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ANNEXA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ANNEXA_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("ANNEXA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ANNEXA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ANNEXA_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("ANNEXA_AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("ANNEXA_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("ANNEXA_AI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("ANNEXA_WEBHOOK_SECRET"); v != "" {
		cfg.Billing.WebhookSecret = v
	}
	if v := os.Getenv("ANNEXA_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Endpoint = v
	}
}
