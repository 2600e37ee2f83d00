package engine

import (
	"fmt"

	"github.com/nastad/tmsis-dashboard/pkg/clickhouse"
	"github.com/nastad/tmsis-dashboard/pkg/dashboard"
	"github.com/nastad/tmsis-dashboard/pkg/executor"
	"github.com/nastad/tmsis-dashboard/pkg/lookup"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/redis"
	"github.com/nastad/tmsis-dashboard/pkg/sqlite"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Components are the request-path objects shared by the server and the CLI.
// The warehouse client is not started.
type Components struct {
	Warehouse warehouse.Client
	Catalog   *query.Catalog
	Executor  *executor.Executor
	Lookup    *lookup.Service
	Renderer  *dashboard.Renderer
	Redis     *goredis.Client
}

// NewCatalog builds the query catalog for the configured warehouse dialect
func NewCatalog(cfg *Config) (*query.Catalog, error) {
	dialect, err := cfg.Warehouse.Dialect()
	if err != nil {
		return nil, configError(err)
	}

	catalog, err := query.NewCatalog(cfg.Schema, dialect)
	if err != nil {
		return nil, configError(err)
	}

	return catalog, nil
}

// NewWarehouse creates the client for the configured driver
func NewWarehouse(log logrus.FieldLogger, cfg *WarehouseConfig) (warehouse.Client, error) {
	switch cfg.Driver {
	case DriverClickHouse:
		return clickhouse.NewClient(log, &cfg.ClickHouse)
	case DriverSQLite:
		return sqlite.NewClient(log, &cfg.SQLite)
	default:
		return nil, configError(fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver))
	}
}

// NewComponents constructs every request-path component from a validated config
func NewComponents(log logrus.FieldLogger, cfg *Config) (*Components, error) {
	catalog, err := NewCatalog(cfg)
	if err != nil {
		return nil, err
	}

	client, err := NewWarehouse(log, &cfg.Warehouse)
	if err != nil {
		return nil, configError(fmt.Errorf("failed to setup warehouse client: %w", err))
	}

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		return nil, configError(err)
	}

	var opts []executor.Option
	if redisClient != nil {
		opts = append(opts, executor.WithStore(executor.NewRedisStore(redisClient, cfg.Redis.Prefix)))
	}

	exec, err := executor.New(log, client, cfg.Cache, opts...)
	if err != nil {
		return nil, configError(err)
	}

	domain := lookup.NewService(log, catalog, exec)

	return &Components{
		Warehouse: client,
		Catalog:   catalog,
		Executor:  exec,
		Lookup:    domain,
		Renderer:  dashboard.NewRenderer(log, catalog, exec, domain),
		Redis:     redisClient,
	}, nil
}
