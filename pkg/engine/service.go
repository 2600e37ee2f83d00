package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof is intentionally exposed when pprofAddr is configured
	"sync"
	"sync/atomic"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/api"
	"github.com/nastad/tmsis-dashboard/pkg/frontend"
	"github.com/nastad/tmsis-dashboard/pkg/observability"
	"github.com/nastad/tmsis-dashboard/pkg/warmer"
	"github.com/sirupsen/logrus"
)

const readyProbeTimeout = 2 * time.Second

// Service runs the dashboard backend
type Service struct {
	config *Config
	log    *logrus.Logger

	*Components

	api    api.Service
	warmer warmer.Service

	// Servers
	healthServer *http.Server
	pprofServer  *http.Server

	warehouseUp atomic.Bool
	probeMu     sync.Mutex
	cancel      context.CancelFunc
}

// NewService resolves secrets, validates cfg and constructs every component.
// Configuration problems are returned as *ConfigError.
func NewService(log *logrus.Logger, cfg *Config) (*Service, error) {
	if err := cfg.ResolveSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	components, err := NewComponents(log, cfg)
	if err != nil {
		return nil, err
	}

	var frontendHandler http.Handler
	if cfg.Frontend.Enabled {
		frontendHandler, err = frontend.NewHandler()
		if err != nil {
			return nil, fmt.Errorf("failed to create frontend handler: %w", err)
		}
	}

	apiService := api.NewService(
		&cfg.API,
		components.Renderer,
		components.Lookup,
		components.Executor,
		components.Catalog.Reference(),
		frontendHandler,
		log,
	)

	warmerService, err := warmer.NewService(log, &cfg.Warmer, components.Renderer, components.Executor, components.Redis, cfg.Redis.Prefix)
	if err != nil {
		return nil, configError(err)
	}

	return &Service{
		log:        log,
		config:     cfg,
		Components: components,
		api:        apiService,
		warmer:     warmerService,
	}, nil
}

// Start starts the servers and background jobs
func (a *Service) Start() error {
	a.log.WithFields(logrus.Fields{
		"driver":    a.config.Warehouse.Driver,
		"reference": a.Catalog.Reference().ID,
	}).Info("Starting TMSIS dashboard...")

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	observability.StartMetricsServer(a.log, a.config.MetricsAddr)

	if a.config.PProfAddr != "" {
		a.startPProf()
	}

	// Warehouse failures are page scoped, so an unreachable warehouse does
	// not stop the server
	if err := a.Warehouse.Start(ctx); err != nil {
		a.log.WithError(err).Warn("Warehouse unavailable at startup, pages will report errors until it recovers")
		observability.RecordError("engine", "warehouse_start")
	} else {
		a.warehouseUp.Store(true)
	}

	// Started after the first connection attempt so probes never race it
	if a.config.HealthCheckAddr != "" {
		a.startHealthCheck()
	}

	if err := a.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API and frontend service: %w", err)
	}

	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache warmer: %w", err)
	}

	a.log.Info("TMSIS dashboard started successfully")

	return nil
}

// Stop gracefully shuts down the service
func (a *Service) Stop() error {
	a.log.Info("Shutting down TMSIS dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopService := func(name string, stopFunc func() error) {
		if stopFunc == nil {
			return
		}
		if err := stopFunc(); err != nil {
			a.log.WithError(err).Errorf("Failed to stop %s", name)
		}
	}

	if a.cancel != nil {
		a.cancel()
	}

	// 1. Stop warmer (no new warehouse calls)
	if a.warmer != nil {
		stopService("cache warmer", a.warmer.Stop)
	}

	// 2. Stop API/frontend
	if a.api != nil {
		stopService("API and frontend service", a.api.Stop)
	}

	// 3. Close Redis
	if a.Redis != nil {
		stopService("Redis client", a.Redis.Close)
	}

	// Stop warehouse client (critical - return error if fails)
	if a.Warehouse != nil {
		if err := a.Warehouse.Stop(); err != nil {
			a.log.WithError(err).Error("Failed to stop warehouse client")
			return err
		}
	}

	// Stop HTTP servers
	if a.healthServer != nil {
		stopService("health check server", func() error { return a.healthServer.Shutdown(ctx) })
	}
	if a.pprofServer != nil {
		stopService("pprof server", func() error { return a.pprofServer.Shutdown(ctx) })
	}
	stopService("metrics server", func() error { return observability.StopMetricsServer(ctx) })

	return nil
}

// healthMux serves liveness and warehouse readiness
func (a *Service) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !a.warehouseReady(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("warehouse unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

// warehouseReady retries the warehouse connection until it succeeds once, so
// a warehouse that came up after startup is noticed
func (a *Service) warehouseReady(ctx context.Context) bool {
	if a.warehouseUp.Load() {
		return true
	}

	a.probeMu.Lock()
	defer a.probeMu.Unlock()

	if a.warehouseUp.Load() {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	if err := a.Warehouse.Start(ctx); err != nil {
		a.log.WithError(err).Debug("Warehouse readiness probe failed")
		return false
	}

	a.warehouseUp.Store(true)

	return true
}

func (a *Service) startHealthCheck() {
	a.log.WithField("addr", a.config.HealthCheckAddr).Info("Starting health check server")

	a.healthServer = &http.Server{
		Addr:              a.config.HealthCheckAddr,
		Handler:           a.healthMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := a.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Health check server failed")
		}
	}()
}

func (a *Service) startPProf() {
	a.log.WithField("addr", a.config.PProfAddr).Info("Starting pprof server")

	a.pprofServer = &http.Server{
		Addr:              a.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	go func() {
		if err := a.pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Pprof server failed")
		}
	}()
}
