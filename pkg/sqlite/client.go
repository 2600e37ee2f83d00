package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// client implements warehouse.Client over database/sql
type client struct {
	log          logrus.FieldLogger
	path         string
	maxOpenConns int
	queryTimeout time.Duration

	mu sync.Mutex
	db *sql.DB
}

// NewClient creates a SQLite warehouse client. The file is opened by Start, or
// by the first Query when Start failed or was never called.
func NewClient(logger logrus.FieldLogger, cfg *Config) (warehouse.Client, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &client{
		log:          logger.WithField("component", "sqlite"),
		path:         filepath.Clean(cfg.Path),
		maxOpenConns: cfg.MaxOpenConns,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// Start opens the warehouse file. It may be called again: a handle that still
// answers is kept, a broken one is replaced.
func (c *client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := c.db.PingContext(pingCtx)
		cancel()

		if err == nil {
			return nil
		}

		c.log.WithError(err).Warn("SQLite warehouse handle failed, reopening")
		_ = c.db.Close()
		c.db = nil
	}

	_, err := c.openLocked(ctx)

	return err
}

func (c *client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil

	c.log.Info("Closed SQLite warehouse")

	return err
}

// conn returns the open handle, opening the file on first use
func (c *client) conn(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	return c.openLocked(ctx)
}

// openLocked opens and pings the file. c.mu must be held.
func (c *client) openLocked(ctx context.Context) (*sql.DB, error) {
	// SQLite would otherwise create an empty database at a missing path
	if _, err := os.Stat(c.path); err != nil {
		return nil, warehouse.NewError(warehouse.KindConnection, fmt.Errorf("%w: %w", ErrFileNotFound, err))
	}

	// query_only rejects every write on the connection
	dsn := c.path + "?_pragma=query_only(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, warehouse.NewError(warehouse.KindConnection, fmt.Errorf("open sqlite db: %w", err))
	}

	db.SetMaxOpenConns(c.maxOpenConns)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, warehouse.Classify(warehouse.KindConnection, fmt.Errorf("ping sqlite db: %w", err))
	}

	c.db = db

	c.log.WithField("path", c.path).Info("Opened SQLite warehouse")

	return db, nil
}

func (c *client) Query(ctx context.Context, query string) (*frame.Frame, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("Failed to close rows")
		}
	}()

	names, err := rows.Columns()
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	b := frame.NewBuilder(names...)
	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, c.classify(ctx, err)
		}
		if err := b.Append(values); err != nil {
			return nil, warehouse.NewError(warehouse.KindQuery, err)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, c.classify(ctx, err)
	}

	return b.Frame(), nil
}

// classify maps a driver error, reporting an interrupted statement as a
// timeout when the deadline expired
func (c *client) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return warehouse.NewError(warehouse.KindTimeout, fmt.Errorf("%w: %w", context.DeadlineExceeded, err))
	}

	return warehouse.Classify(warehouse.KindQuery, err)
}
