// Package engine wires the dashboard services together from one configuration file
package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/nastad/tmsis-dashboard/pkg/api"
	"github.com/nastad/tmsis-dashboard/pkg/clickhouse"
	"github.com/nastad/tmsis-dashboard/pkg/executor"
	"github.com/nastad/tmsis-dashboard/pkg/frontend"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/redis"
	"github.com/nastad/tmsis-dashboard/pkg/secrets"
	"github.com/nastad/tmsis-dashboard/pkg/sqlite"
	"github.com/nastad/tmsis-dashboard/pkg/warmer"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Warehouse drivers
const (
	DriverClickHouse = "clickhouse"
	DriverSQLite     = "sqlite"
)

var (
	// ErrUnknownDriver is returned when the warehouse driver is not supported
	ErrUnknownDriver = errors.New("warehouse driver must be clickhouse or sqlite")
	// ErrInvalidLogLevel is returned when logging is not a logrus level
	ErrInvalidLogLevel = errors.New("invalid logging level")
)

// ConfigError marks a startup failure caused by configuration or a missing
// secret. The process reports it and exits without a stack trace.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(err error) error {
	if err == nil {
		return nil
	}

	var cerr *ConfigError
	if errors.As(err, &cerr) {
		return err
	}

	return &ConfigError{Err: err}
}

// Config represents the complete engine configuration
type Config struct {
	// Core settings
	Logging         string `yaml:"logging" default:"info" validate:"oneof=panic fatal warn info debug trace"`
	MetricsAddr     string `yaml:"metricsAddr" default:":9091"`
	HealthCheckAddr string `yaml:"healthCheckAddr"`
	PProfAddr       string `yaml:"pprofAddr"`

	// Warehouse connection
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Relations read by the query catalog
	Schema query.Config `yaml:"schema"`

	// Result cache
	Cache executor.Config `yaml:"cache"`
	Redis redis.Config    `yaml:"redis"`

	// API service configuration
	API api.Config `yaml:"api"`

	// Frontend service configuration
	Frontend frontend.Config `yaml:"frontend"`

	// Cache warmer
	Warmer warmer.Config `yaml:"warmer"`
}

// WarehouseConfig selects and configures the warehouse client
type WarehouseConfig struct {
	Driver     string            `yaml:"driver" default:"clickhouse"`
	ClickHouse clickhouse.Config `yaml:"clickhouse"`
	SQLite     sqlite.Config     `yaml:"sqlite"`
}

// Dialect returns the SQL dialect matching the driver
func (c *WarehouseConfig) Dialect() (query.Dialect, error) {
	return query.DialectByName(c.Driver)
}

// Validate checks the selected driver's settings
func (c *WarehouseConfig) Validate() error {
	switch c.Driver {
	case DriverClickHouse:
		return c.ClickHouse.Validate()
	case DriverSQLite:
		return c.SQLite.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, configError(err)
	}

	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, configError(fmt.Errorf("read config: %w", err))
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, configError(fmt.Errorf("parse config %s: %w", path, err))
	}

	return config, nil
}

// ResolveSecrets loads the warehouse token into the ClickHouse settings.
// It is read once, at startup.
func (c *Config) ResolveSecrets() error {
	if c.Warehouse.Driver != DriverClickHouse {
		return nil
	}

	token, err := secrets.Load()
	if err != nil {
		return configError(err)
	}

	c.Warehouse.ClickHouse.Token = token

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging); err != nil {
		return configError(fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging))
	}

	validators := []func() error{
		c.Warehouse.Validate,
		c.Schema.Validate,
		c.Cache.Validate,
		c.Redis.Validate,
		c.API.Validate,
		c.Warmer.Validate,
	}

	for _, validate := range validators {
		if err := validate(); err != nil {
			return configError(err)
		}
	}

	return nil
}
