package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client from the configuration. It returns nil
// when Redis is disabled.
func NewClient(cfg *Config) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return redis.NewClient(opt), nil
}
