// Package warmer pre-executes every page's unfiltered queries on a schedule
package warmer

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrInvalidTimeout is returned when the run timeout is not positive
	ErrInvalidTimeout = errors.New("warmer timeout must be positive")
)

//nolint:gochecknoglobals // Shared parser configuration
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config defines warmer configuration. An empty schedule disables the warmer.
type Config struct {
	Schedule string        `yaml:"schedule"`
	Timeout  time.Duration `yaml:"timeout" default:"5m"`
}

// Enabled reports whether a schedule is configured
func (c *Config) Enabled() bool {
	return c.Schedule != ""
}

// Validate checks the schedule parses as a cron expression or descriptor
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}

	if _, err := scheduleParser.Parse(c.Schedule); err != nil {
		return fmt.Errorf("invalid warmer schedule %q: %w", c.Schedule, err)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
