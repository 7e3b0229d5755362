// Package config loads the posts server configuration from environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. POSTS_ADDR.
const Prefix = "POSTS"

// Config holds posts server configuration.
type Config struct {
	Addr     string `envconfig:"ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage. Empty DatabaseURL keeps posts in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// NATS request/reply bridge. Empty NATSURL disables it.
	NATSURL     string `envconfig:"NATS_URL"`
	NATSSubject string `envconfig:"NATS_SUBJECT" default:"posts.api"`
	NATSQueue   string `envconfig:"NATS_QUEUE" default:"posts"`

	// Limits
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	BodyLimit      int64         `envconfig:"BODY_LIMIT" default:"1048576"`
	RateLimit      float64       `envconfig:"RATE_LIMIT" default:"50"`
	RateBurst      int           `envconfig:"RATE_BURST" default:"100"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	Pprof       bool     `envconfig:"PPROF" default:"false"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the values Load cannot enforce through defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("%s_ADDR is required", Prefix))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s_REQUEST_TIMEOUT must be positive", Prefix))
	}
	if c.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("%s_BODY_LIMIT must be positive", Prefix))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, fmt.Errorf("%s_RATE_LIMIT and %s_RATE_BURST must not be negative", Prefix, Prefix))
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		errs = append(errs, fmt.Errorf("%s_NATS_SUBJECT is required with %s_NATS_URL", Prefix, Prefix))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%s_LOG_LEVEL: %w", Prefix, err)
	}
	return l, nil
}
