package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/creasty/defaults"
	"github.com/nastad/tmsis-dashboard/internal/testutil"
	"github.com/nastad/tmsis-dashboard/pkg/dashboard"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteConfig(t *testing.T, path string) *Config {
	t.Helper()

	cfg := &Config{}
	require.NoError(t, defaults.Set(cfg))

	cfg.MetricsAddr = ""
	cfg.API.Enabled = false
	cfg.Warehouse.Driver = DriverSQLite
	cfg.Warehouse.SQLite.Path = path

	return cfg
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	return logger
}

func TestService_EndToEnd(t *testing.T) {
	cfg := newSQLiteConfig(t, testutil.NewSQLiteWarehouse(t, testutil.GAScenario()))

	svc, err := NewService(testLogger(), cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	defer func() { assert.NoError(t, svc.Stop()) }()

	out, err := svc.Renderer.Render(context.Background(), dashboard.PageStateOverview, dashboard.Request{
		Filter: filter.New([]string{"GA"}, nil),
	})
	require.NoError(t, err)
	require.Nil(t, out.Error)
	require.Len(t, out.Views, 1)
	assert.Equal(t, 1, out.Views[0].RowCount)

	rec := httptest.NewRecorder()
	svc.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestService_UnreachableWarehouseIsNotFatal(t *testing.T) {
	cfg := newSQLiteConfig(t, filepath.Join(t.TempDir(), "missing-dir", "tmsis.db"))

	svc, err := NewService(testLogger(), cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	defer func() { assert.NoError(t, svc.Stop()) }()

	rec := httptest.NewRecorder()
	svc.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	svc.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	out, err := svc.Renderer.Render(context.Background(), dashboard.PageStateOverview, dashboard.Request{})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
}

func TestNewService_ConfigErrors(t *testing.T) {
	cfg := newSQLiteConfig(t, "")

	_, err := NewService(testLogger(), cfg)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}
