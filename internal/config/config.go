package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the system-wide configuration, populated from the environment
// with production defaults.
type Config struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8080"`

	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"./roomchat.db"`
	// HistoryCap bounds persisted history per room; 0 disables pruning.
	HistoryCap int `envconfig:"HISTORY_CAP" default:"500"`

	// GracePeriod is how long a disconnect is absorbed before the room is
	// told the user left.
	GracePeriod time.Duration `envconfig:"GRACE_PERIOD" default:"15s"`

	// RateLimitEnabled false is the explicit "no counter backend" variant:
	// the limiter fails open and never throttles.
	RateLimitEnabled   bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitWindow    time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	RateLimitThreshold int           `envconfig:"RATE_LIMIT_THRESHOLD" default:"10"`

	MaxMessageLength int `envconfig:"MAX_MESSAGE_LENGTH" default:"200"`

	// AuthMode selects the identity provider: "handshake" trusts the
	// connect frame, "jwt" verifies a signed token on the upgrade request.
	AuthMode  string `envconfig:"AUTH_MODE" default:"handshake"`
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("ROOMCHAT", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive, got %v", c.GracePeriod)
	}
	if c.RateLimitEnabled {
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("rate limit window must be positive, got %v", c.RateLimitWindow)
		}
		if c.RateLimitThreshold < 1 {
			return fmt.Errorf("rate limit threshold must be at least 1, got %d", c.RateLimitThreshold)
		}
	}
	if c.MaxMessageLength < 1 {
		return fmt.Errorf("max message length must be at least 1, got %d", c.MaxMessageLength)
	}
	switch c.AuthMode {
	case "handshake":
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("jwt auth mode requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("auth mode must be handshake or jwt, got %q", c.AuthMode)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
