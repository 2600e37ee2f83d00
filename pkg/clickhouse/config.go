// Package clickhouse provides a read-only ClickHouse warehouse client over the HTTP interface
package clickhouse

import (
	"errors"
	"net/url"
	"time"
)

// Static errors for configuration validation
var (
	ErrURLRequired    = errors.New("URL is required")
	ErrInvalidURL     = errors.New("URL must be an http or https address")
	ErrTokenRequired  = errors.New("warehouse token is required")
	ErrInvalidTimeout = errors.New("query timeout must be positive")
)

// Config contains ClickHouse connection settings
type Config struct {
	URL          string            `yaml:"url" validate:"required,url"`
	Database     string            `yaml:"database"`
	User         string            `yaml:"user" default:"default"`
	QueryTimeout time.Duration     `yaml:"queryTimeout"`
	KeepAlive    time.Duration     `yaml:"keepAlive"`
	Debug        bool              `yaml:"debug"`
	Settings     map[string]string `yaml:"settings,omitempty"`

	// Token is the warehouse secret. It is never read from YAML; the engine
	// injects it from the secrets store at startup.
	Token string `yaml:"-"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}

	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	if c.Token == "" {
		return ErrTokenRequired
	}

	if c.QueryTimeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}

	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}

	if c.User == "" {
		c.User = "default"
	}
}
