package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Port                string        `env:"PORT" envDefault:"8080"`
	DBUrl               string        `env:"DB_URL"`
	JWTSecret           string        `env:"JWT_SECRET"`
	AppEnv              string        `env:"APP_ENV" envDefault:"production"`
	EnableDocs          bool          `env:"ENABLE_API_DOCS" envDefault:"false"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix         string        `env:"REDIS_PREFIX" envDefault:"studio"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	BookingURL          string        `env:"BOOKING_URL" envDefault:"https://cal.com/human-pea-28vrwm/fitness-assessment"`
	BookingWebhookKey   string        `env:"BOOKING_WEBHOOK_SECRET"`
	EnquiryFormURL      string        `env:"ENQUIRY_FORM_URL" envDefault:"https://form.jotform.com/252973068946371"`
	BaselineSinkURL     string        `env:"BASELINE_SINK_URL"`
	BaselineSinkTimeout time.Duration `env:"BASELINE_SINK_TIMEOUT" envDefault:"10s"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return parse()
}

func parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.BaselineSinkTimeout <= 0 {
		return nil, fmt.Errorf("BASELINE_SINK_TIMEOUT must be positive")
	}

	cfg.AppEnv = normalizeEnv(cfg.AppEnv)
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.BaselineSinkURL = strings.TrimSpace(cfg.BaselineSinkURL)

	return &cfg, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func (c *Config) WebhookEnabled() bool {
	return c != nil && c.BookingWebhookKey != ""
}
