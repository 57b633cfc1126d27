package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Webhook endpoint. BASE_URL wins; BASE_URL_PARAM names an SSM parameter
	// holding the URL and is only read when BASE_URL is unset.
	BaseURL      string `env:"BASE_URL"`
	BaseURLParam string `env:"BASE_URL_PARAM"`

	// Zero means requests are never cut short.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"0s"`
	RequestBody    string        `env:"REQUEST_BODY" envDefault:"false"`

	// Logging
	LogFile  string `env:"LOG_FILE" envDefault:"logs/chat.log"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// URLGetter resolves a webhook URL stored under a parameter name.
// *paramstore.Client satisfies this interface.
type URLGetter interface {
	WebhookURL(ctx context.Context, name string) (string, error)
}

// Load reads a .env file when one exists, then parses the environment.
func Load(files ...string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load(files...)
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.BaseURLParam = strings.TrimSpace(c.BaseURLParam)
	if c.BaseURL == "" && c.BaseURLParam == "" {
		return errors.New("config: one of BASE_URL or BASE_URL_PARAM must be set")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

// NeedsParamStore reports whether the webhook URL has to be fetched from SSM.
func (c *Config) NeedsParamStore() bool {
	return c.BaseURL == "" && c.BaseURLParam != ""
}

// ResolveBaseURL returns BASE_URL, or the value stored under BASE_URL_PARAM.
func (c *Config) ResolveBaseURL(ctx context.Context, g URLGetter) (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	if c.BaseURLParam == "" {
		return "", errors.New("config: no webhook URL configured")
	}
	if g == nil {
		return "", errors.New("config: parameter store getter must not be nil")
	}
	u, err := g.WebhookURL(ctx, c.BaseURLParam)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", c.BaseURLParam, err)
	}
	return u, nil
}
