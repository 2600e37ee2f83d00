package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/observability"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Stats is a snapshot of cache activity
type Stats struct {
	Entries   int           `json:"entries"`
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Fetches   int64         `json:"fetches"`
	Coalesced int64         `json:"coalesced"`
	Freshness time.Duration `json:"freshness"`
	Shared    bool          `json:"shared"`
}

// Option configures an Executor
type Option func(*Executor)

// WithStore adds a shared cache tier
func WithStore(store Store) Option {
	return func(e *Executor) {
		e.store = store
	}
}

// WithClock replaces the wall clock used for freshness checks
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// Executor executes query text, serving repeated statements from cache while
// they are fresh. It is safe for concurrent use.
type Executor struct {
	log          logrus.FieldLogger
	client       warehouse.Client
	store        Store
	freshness    time.Duration
	queryTimeout time.Duration
	now          func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	fetches   atomic.Int64
	coalesced atomic.Int64
}

// New creates an executor over client
func New(log logrus.FieldLogger, client warehouse.Client, cfg Config, opts ...Option) (*Executor, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Executor{
		log:          log.WithField("component", "executor"),
		client:       client,
		freshness:    cfg.Freshness,
		queryTimeout: cfg.QueryTimeout,
		now:          time.Now,
		entries:      make(map[string]*Entry),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Execute returns the result of sql, from cache when a fresh entry exists.
// Concurrent misses for the same text share one warehouse call. Failures are
// returned as *warehouse.Error and never cached.
func (e *Executor) Execute(ctx context.Context, sql string) (*frame.Frame, error) {
	if entry := e.lookup(sql); entry != nil {
		e.hits.Add(1)
		observability.RecordCacheHit("memory")

		return entry.Frame, nil
	}

	var leader bool

	ch := e.group.DoChan(sql, func() (any, error) {
		leader = true
		return e.load(ctx, sql)
	})

	select {
	case <-ctx.Done():
		return nil, warehouse.Classify(warehouse.KindConnection, ctx.Err())
	case res := <-ch:
		if !leader {
			e.coalesced.Add(1)
			observability.RecordCoalesced()
		}

		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*frame.Frame), nil //nolint:errcheck,forcetypeassert // load only returns frames
	}
}

// load resolves a memory miss through the shared tier and then the warehouse
func (e *Executor) load(ctx context.Context, sql string) (*frame.Frame, error) {
	// Another flight may have finished while this one was queued
	if entry := e.lookup(sql); entry != nil {
		e.hits.Add(1)
		observability.RecordCacheHit("memory")

		return entry.Frame, nil
	}

	if entry := e.loadShared(ctx, sql); entry != nil {
		e.hits.Add(1)
		observability.RecordCacheHit("redis")
		e.put(entry)

		return entry.Frame, nil
	}

	e.misses.Add(1)
	observability.RecordCacheMiss()

	f, err := e.fetch(ctx, sql)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Key: sql, Frame: f, CreatedAt: e.now()}
	e.put(entry)
	e.saveShared(ctx, entry)

	return f, nil
}

// fetch performs one bounded warehouse round-trip. The call is detached from
// the leader's cancellation since other callers may be waiting on it.
func (e *Executor) fetch(ctx context.Context, sql string) (*frame.Frame, error) {
	e.fetches.Add(1)

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.queryTimeout)
	defer cancel()

	start := time.Now()
	f, err := e.client.Query(fetchCtx, sql)
	duration := time.Since(start).Seconds()

	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			err = warehouse.NewError(warehouse.KindTimeout, err)
		} else {
			err = warehouse.Classify(warehouse.KindQuery, err)
		}

		var werr *warehouse.Error
		if errors.As(err, &werr) {
			observability.RecordWarehouseQuery(string(werr.Kind), duration, 0)
			observability.RecordError("executor", string(werr.Kind))
		}

		e.log.WithError(err).WithField("duration", duration).Warn("Warehouse query failed")

		return nil, err
	}

	observability.RecordWarehouseQuery("success", duration, f.Len())

	e.log.WithFields(logrus.Fields{
		"rows":     f.Len(),
		"duration": duration,
	}).Debug("Warehouse query completed")

	return f, nil
}

func (e *Executor) lookup(sql string) *Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, ok := e.entries[sql]
	if !ok || entry.Stale(e.now(), e.freshness) {
		return nil
	}

	return entry
}

func (e *Executor) put(entry *Entry) {
	e.mu.Lock()
	e.entries[entry.Key] = entry
	n := len(e.entries)
	e.mu.Unlock()

	observability.RecordCacheEntries(n)
}

// loadShared consults the shared tier. Its failures degrade to a miss.
func (e *Executor) loadShared(ctx context.Context, sql string) *Entry {
	if e.store == nil {
		return nil
	}

	entry, err := e.store.Get(ctx, sql)
	if err != nil {
		e.log.WithError(err).Warn("Shared cache read failed")
		observability.RecordError("executor", "store_read")

		return nil
	}

	if entry == nil || entry.Stale(e.now(), e.freshness) {
		return nil
	}

	return entry
}

func (e *Executor) saveShared(ctx context.Context, entry *Entry) {
	if e.store == nil {
		return
	}

	ttl := e.freshness - e.now().Sub(entry.CreatedAt)
	if ttl <= 0 {
		return
	}

	if err := e.store.Set(context.WithoutCancel(ctx), entry, ttl); err != nil {
		e.log.WithError(err).Warn("Shared cache write failed")
		observability.RecordError("executor", "store_write")
	}
}

// Invalidate drops every cached result, including the shared tier
func (e *Executor) Invalidate(ctx context.Context) error {
	e.mu.Lock()
	e.entries = make(map[string]*Entry)
	e.mu.Unlock()

	observability.RecordCacheEntries(0)

	if e.store != nil {
		if err := e.store.Flush(ctx); err != nil {
			return err
		}
	}

	e.log.Info("Query cache invalidated")

	return nil
}

// Prune removes stale entries from the in-process tier and returns how many were dropped
func (e *Executor) Prune() int {
	now := e.now()

	e.mu.Lock()
	dropped := 0
	for key, entry := range e.entries {
		if entry.Stale(now, e.freshness) {
			delete(e.entries, key)
			dropped++
		}
	}
	n := len(e.entries)
	e.mu.Unlock()

	observability.RecordCacheEntries(n)

	return dropped
}

// Stats returns a snapshot of cache activity
func (e *Executor) Stats() Stats {
	e.mu.RLock()
	n := len(e.entries)
	e.mu.RUnlock()

	return Stats{
		Entries:   n,
		Hits:      e.hits.Load(),
		Misses:    e.misses.Load(),
		Fetches:   e.fetches.Load(),
		Coalesced: e.coalesced.Load(),
		Freshness: e.freshness,
		Shared:    e.store != nil,
	}
}
