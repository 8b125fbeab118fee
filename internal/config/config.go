package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`

	JWTSecret        string        `envconfig:"JWT_SECRET"`
	JWTAccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	JWTRefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"168h"`
	MagicLinkExpiry  time.Duration `envconfig:"MAGIC_LINK_EXPIRY" default:"168h"`

	MinIOEndpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinIOPublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	MinIOAccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	MinIOSecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	MinIOBucket         string `envconfig:"MINIO_BUCKET" default:"rahmah-documents"`
	MinIOUseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinIOPublicUseSSL   bool   `envconfig:"MINIO_PUBLIC_USE_SSL" default:"true"`
	MaxUploadBytes      int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	ResendAPIKey  string `envconfig:"RESEND_API_KEY"`
	FromEmail     string `envconfig:"FROM_EMAIL" default:"noreply@example.com"`
	FromName      string `envconfig:"FROM_NAME" default:"Rahmah Exchange"`
	AppBaseURL    string `envconfig:"APP_BASE_URL" default:"http://localhost:3000"`
	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"en"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	OutboxStream      string `envconfig:"OUTBOX_STREAM" default:"notifications:outbox"`
	OutboxGroup       string `envconfig:"OUTBOX_GROUP" default:"mailers"`
	OutboxConsumer    string `envconfig:"OUTBOX_CONSUMER" default:"mailer-1"`
	OutboxMaxAttempts int    `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`
}

// Load reads the process environment. A .env file, when present, is loaded by
// the caller before Load runs.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.MinIOPublicEndpoint == "" {
		cfg.MinIOPublicEndpoint = cfg.MinIOEndpoint
	}
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("set DATABASE_URL")
	}
	if c.JWTSecret == "" {
		return errors.New("set JWT_SECRET")
	}
	if c.OutboxMaxAttempts < 1 {
		return errors.New("OUTBOX_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
