// Package executor runs finished query text against the warehouse behind a
// process-wide result cache
package executor

import (
	"errors"
	"time"
)

// Define static errors
var (
	ErrInvalidFreshness = errors.New("cache freshness window must be positive")
	ErrInvalidTimeout   = errors.New("query timeout must be positive")
)

// Config controls caching and warehouse call bounds
type Config struct {
	// Freshness is how long a cached result is served before it is refetched
	Freshness time.Duration `yaml:"freshness" default:"1h"`
	// QueryTimeout bounds every warehouse call
	QueryTimeout time.Duration `yaml:"queryTimeout" default:"60s"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Freshness <= 0 {
		return ErrInvalidFreshness
	}

	if c.QueryTimeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.Freshness == 0 {
		c.Freshness = time.Hour
	}

	if c.QueryTimeout == 0 {
		c.QueryTimeout = 60 * time.Second
	}
}
