// Package sqlite provides a read-only warehouse client over an embedded SQLite
// extract, used for fixtures and local development
package sqlite

import (
	"errors"
	"time"
)

// Static errors for configuration validation
var (
	ErrPathRequired   = errors.New("sqlite path is required")
	ErrInvalidTimeout = errors.New("query timeout must be positive")
	ErrFileNotFound   = errors.New("sqlite warehouse file not found")
)

// Config contains SQLite extract settings
type Config struct {
	Path         string        `yaml:"path"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
	// MaxOpenConns bounds the connection pool shared by all sessions
	MaxOpenConns int `yaml:"maxOpenConns"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrPathRequired
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

	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 4
	}
}
