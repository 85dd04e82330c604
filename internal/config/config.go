// Package config loads kiosk configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
	"github.com/chriscow/cinema-kiosk-go/pkg/order"
	"github.com/chriscow/cinema-kiosk-go/pkg/overlay"
	pkgredis "github.com/chriscow/cinema-kiosk-go/pkg/redis"
	"github.com/chriscow/cinema-kiosk-go/pkg/retry"
	"github.com/chriscow/cinema-kiosk-go/pkg/summary"
)

// DefaultAgentID is the cinema ordering agent.
const DefaultAgentID = "agent_5601k1wg9qcmffk9szmp300ck698"

// ErrMissingAPIKey is returned when an operation needs the platform key.
var ErrMissingAPIKey = errors.New("XI_API_KEY is not set")

// Config defines every configurable parameter of the kiosk.
type Config struct {
	// Platform
	APIKey            string `envconfig:"XI_API_KEY"`
	AgentID           string `envconfig:"AGENT_ID" default:"agent_5601k1wg9qcmffk9szmp300ck698"`
	BaseURL           string `envconfig:"XI_BASE_URL" default:"https://api.elevenlabs.io"`
	SignedURLEndpoint string `envconfig:"SIGNED_URL_ENDPOINT"`

	Summary  SummaryConfig
	Playback PlaybackConfig
	Assets   AssetConfig

	TrailerURLTemplate string `envconfig:"TRAILER_URL_TEMPLATE" default:"https://nos.jkt-1.neo.id/media.cinema21.co.id/movie-trailer/%s.mp4"`
	WebhookURL         string `envconfig:"ORDER_WEBHOOK_URL" default:"https://workflows.cekat.ai/webhook/xxi"`

	// Infrastructure
	Redis    pkgredis.Config
	CacheTTL time.Duration `envconfig:"SUMMARY_CACHE_TTL" default:"24h"`

	LogLevel  string `envconfig:"KIOSK_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"KIOSK_LOG_FORMAT" default:"json"`
}

type SummaryConfig struct {
	MaxWait  time.Duration `envconfig:"SUMMARY_MAX_WAIT" default:"30s"`
	Interval time.Duration `envconfig:"SUMMARY_INTERVAL" default:"3s"`
	PageSize int           `envconfig:"SUMMARY_PAGE_SIZE" default:"3"`
}

type PlaybackConfig struct {
	MaxRetries int           `envconfig:"PLAYBACK_MAX_RETRIES" default:"3"`
	Delay      time.Duration `envconfig:"PLAYBACK_RETRY_DELAY" default:"100ms"`
}

type AssetConfig struct {
	Concurrency int           `envconfig:"ASSET_PRELOAD_CONCURRENCY" default:"4"`
	Timeout     time.Duration `envconfig:"ASSET_PRELOAD_TIMEOUT" default:"30s"`
}

// Load reads the .env file at path, when present, and then the process
// environment. An empty path means ".env".
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch {
	case c.AgentID == "":
		return errors.New("config: AGENT_ID must not be empty")
	case c.Summary.MaxWait <= 0 || c.Summary.Interval <= 0:
		return errors.New("config: summary wait and interval must be positive")
	case c.Summary.PageSize < 1:
		return errors.New("config: SUMMARY_PAGE_SIZE must be at least 1")
	case c.Playback.MaxRetries < 0:
		return errors.New("config: PLAYBACK_MAX_RETRIES must not be negative")
	}
	return nil
}

// RequireAPIKey fails when the platform key is missing.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Client builds a platform client.
func (c *Config) Client(opts ...convai.Option) (*convai.Client, error) {
	if err := c.RequireAPIKey(); err != nil {
		return nil, err
	}
	return convai.NewClient(c.APIKey, c.AgentID, append([]convai.Option{convai.WithBaseURL(c.BaseURL)}, opts...)...)
}

func (c *Config) SummaryPolicy() summary.Policy {
	return summary.Policy{
		MaxWait:  c.Summary.MaxWait,
		Interval: c.Summary.Interval,
		PageSize: c.Summary.PageSize,
	}
}

func (c *Config) RetryConfig() retry.Config {
	return retry.Config{MaxRetries: c.Playback.MaxRetries, Delay: c.Playback.Delay}
}

func (c *Config) PreloadTimeout() time.Duration {
	if c.Assets.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Assets.Timeout
}

// OverlayTemplate falls back to the default trailer location.
func (c *Config) OverlayTemplate() string {
	if c.TrailerURLTemplate == "" {
		return overlay.DefaultTrailerURLTemplate
	}
	return c.TrailerURLTemplate
}

func (c *Config) WebhookOptions() []order.Option {
	if c.WebhookURL == "" {
		return nil
	}
	return []order.Option{order.WithWebhookURL(c.WebhookURL)}
}
