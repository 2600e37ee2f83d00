package warmer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/dashboard"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/observability"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrWarmFailed is returned when at least one statement could not be executed
var ErrWarmFailed = errors.New("cache warm incomplete")

// Pages lists the page bindings and the statements each page issues
type Pages interface {
	Pages() []*dashboard.Page
	Statements(id dashboard.PageID, fs filter.State) ([]*query.Statement, error)
}

// Executor runs statements through the result cache
type Executor interface {
	Execute(ctx context.Context, sql string) (*frame.Frame, error)
	Prune() int
}

// Service runs the warmer loop
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	RunOnce(ctx context.Context) (*Result, error)
}

// Result summarises one warm run
type Result struct {
	Statements int
	Failed     int
	Pruned     int
	Duration   time.Duration
}

type service struct {
	log      logrus.FieldLogger
	cfg      *Config
	pages    Pages
	executor Executor
	tracker  runTracker
	schedule cron.Schedule

	done chan struct{}
	wg   sync.WaitGroup
}

// NewService creates a warmer. With a Redis client, replicas share schedule
// slots so each slot is warmed once.
func NewService(log logrus.FieldLogger, cfg *Config, pages Pages, exec Executor, redisClient *redis.Client, prefix string) (Service, error) {
	s := &service{
		log:      log.WithField("service", "warmer"),
		cfg:      cfg,
		pages:    pages,
		executor: exec,
		tracker:  localTracker{},
		done:     make(chan struct{}),
	}

	if redisClient != nil {
		s.tracker = newRunTracker(log, redisClient, prefix)
	}

	if cfg.Enabled() {
		sched, err := scheduleParser.Parse(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid warmer schedule %q: %w", cfg.Schedule, err)
		}
		s.schedule = sched
	}

	return s, nil
}

func (s *service) Start(ctx context.Context) error {
	if s.schedule == nil {
		s.log.Info("Cache warmer is disabled")
		return nil
	}

	s.log.WithField("schedule", s.cfg.Schedule).Info("Starting cache warmer")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()

	return nil
}

func (s *service) loop(ctx context.Context) {
	next := s.schedule.Next(time.Now())

	for {
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runSlot(ctx, next)
		next = s.schedule.Next(time.Now())
	}
}

func (s *service) runSlot(ctx context.Context, slot time.Time) {
	claimed, err := s.tracker.Claim(ctx, slot, s.cfg.Timeout)
	if err != nil {
		// Warming twice is harmless; skipping a slot is not
		s.log.WithError(err).Warn("Failed to claim warmer slot, warming anyway")
		claimed = true
	}

	if !claimed {
		observability.RecordWarmerRun("skipped")
		return
	}

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.WithError(err).Warn("Cache warm finished with failures")
	}
}

// RunOnce executes the unfiltered statements of every data page
func (s *service) RunOnce(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result := &Result{}

	for _, page := range s.pages.Pages() {
		if !page.HasData() {
			continue
		}

		stmts, err := s.pages.Statements(page.ID, filter.State{})
		if err != nil {
			return nil, fmt.Errorf("failed to build statements for page %s: %w", page.ID, err)
		}

		for _, stmt := range stmts {
			result.Statements++

			if _, err := s.executor.Execute(ctx, stmt.SQL); err != nil {
				result.Failed++
				s.log.WithError(err).WithFields(logrus.Fields{
					"page":     page.ID,
					"template": stmt.Template.ID,
				}).Warn("Failed to warm statement")
			}
		}
	}

	result.Pruned = s.executor.Prune()
	result.Duration = time.Since(start)

	s.log.WithFields(logrus.Fields{
		"statements": result.Statements,
		"failed":     result.Failed,
		"pruned":     result.Pruned,
		"duration":   result.Duration,
	}).Info("Cache warm completed")

	if result.Failed > 0 {
		observability.RecordWarmerRun("failed")
		return result, fmt.Errorf("%w: %d of %d statements failed", ErrWarmFailed, result.Failed, result.Statements)
	}

	observability.RecordWarmerRun("success")

	return result, nil
}

func (s *service) Stop() error {
	s.log.Info("Stopping cache warmer")

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	s.wg.Wait()

	return nil
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
