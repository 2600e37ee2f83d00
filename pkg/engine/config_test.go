package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
warehouse:
  clickhouse:
    url: http://warehouse:8123
    database: tmsis
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, DriverClickHouse, cfg.Warehouse.Driver)
	assert.Equal(t, "http://warehouse:8123", cfg.Warehouse.ClickHouse.URL)
	assert.Equal(t, "default", cfg.Warehouse.ClickHouse.User)
	assert.Equal(t, "tmsis_enriched", cfg.Schema.ClaimsTable)
	assert.Equal(t, "v2", cfg.Schema.Reference.Version)
	assert.Equal(t, time.Hour, cfg.Cache.Freshness)
	assert.Equal(t, 60*time.Second, cfg.Cache.QueryTimeout)
	assert.Equal(t, "tmsis", cfg.Redis.Prefix)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.True(t, cfg.Frontend.Enabled)
	assert.Empty(t, cfg.Warmer.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Warmer.Timeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)

	_, err = LoadConfig(writeConfig(t, "warehouse: [not, a, map"))
	require.ErrorAs(t, err, &cerr)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name: "sqlite extract",
			yaml: "warehouse:\n  driver: sqlite\n  sqlite:\n    path: /data/tmsis.db\n",
		},
		{
			name:    "unknown driver",
			yaml:    "warehouse:\n  driver: postgres\n",
			wantErr: ErrUnknownDriver,
		},
		{
			name:    "bad log level",
			yaml:    "logging: loud\nwarehouse:\n  driver: sqlite\n  sqlite:\n    path: x.db\n",
			wantErr: ErrInvalidLogLevel,
		},
		{
			name: "clickhouse with token",
			yaml: "warehouse:\n  clickhouse:\n    url: http://warehouse:8123\n",
			mutate: func(c *Config) {
				c.Warehouse.ClickHouse.Token = "t"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.yaml))
			require.NoError(t, err)

			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err = cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)

			var cerr *ConfigError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestConfig_ResolveSecrets(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "warehouse:\n  clickhouse:\n    url: http://warehouse:8123\n"))
	require.NoError(t, err)

	t.Run("missing token is a configuration error", func(t *testing.T) {
		t.Setenv(secrets.TokenEnv, "")
		t.Setenv(secrets.TokenFileEnv, "")

		err := cfg.ResolveSecrets()
		assert.ErrorIs(t, err, secrets.ErrTokenMissing)

		var cerr *ConfigError
		assert.ErrorAs(t, err, &cerr)
	})

	t.Run("token from environment", func(t *testing.T) {
		t.Setenv(secrets.TokenEnv, "s3cret")
		t.Setenv(secrets.TokenFileEnv, "")

		require.NoError(t, cfg.ResolveSecrets())
		assert.Equal(t, "s3cret", cfg.Warehouse.ClickHouse.Token)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("sqlite needs no secret", func(t *testing.T) {
		t.Setenv(secrets.TokenEnv, "")
		t.Setenv(secrets.TokenFileEnv, "")

		sqliteCfg := &Config{Warehouse: WarehouseConfig{Driver: DriverSQLite}}
		assert.NoError(t, sqliteCfg.ResolveSecrets())
	})
}
