package sqlite

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nastad/tmsis-dashboard/internal/testutil"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, claims []testutil.ClaimRow) warehouse.Client {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	c, err := NewClient(logger, &Config{Path: testutil.NewSQLiteWarehouse(t, claims)})
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	t.Cleanup(func() {
		_ = c.Stop()
	})

	return c
}

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).Validate(), ErrPathRequired)
	assert.ErrorIs(t, (&Config{Path: "x.db", QueryTimeout: -time.Second}).Validate(), ErrInvalidTimeout)
	assert.NoError(t, (&Config{Path: "x.db"}).Validate())
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{Path: "x.db"}
	cfg.SetDefaults()

	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 4, cfg.MaxOpenConns)
}

func TestClient_Query(t *testing.T) {
	c := newTestClient(t, testutil.GAScenario())

	f, err := c.Query(context.Background(), `SELECT HCPCS_CODE AS code, TOTAL_CLAIMS AS claims, TOTAL_PAID AS paid
FROM tmsis_enriched
WHERE "Provider Business Practice Location Address State Name" = 'GA'
ORDER BY claims DESC`)
	require.NoError(t, err)

	require.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"code", "claims", "paid"}, f.Names())

	claims, ok := f.Column("claims")
	require.True(t, ok)
	assert.Equal(t, frame.KindInt, claims.Kind)
	assert.Equal(t, []any{int64(100), int64(50), int64(25)}, claims.Values)

	paid, _ := f.Column("paid")
	assert.Equal(t, frame.KindFloat, paid.Kind)
	assert.InDelta(t, 2200.0, paid.Float(1), 0.001)
}

func TestClient_QueryEmptyResult(t *testing.T) {
	c := newTestClient(t, nil)

	f, err := c.Query(context.Background(), "SELECT HCPCS_CODE FROM tmsis_enriched")
	require.NoError(t, err)

	assert.Equal(t, 0, f.Len())
	assert.Equal(t, []string{"HCPCS_CODE"}, f.Names())
}

func TestClient_RejectsWrites(t *testing.T) {
	c := newTestClient(t, testutil.GAScenario())

	_, err := c.Query(context.Background(), "DELETE FROM tmsis_enriched")
	require.Error(t, err)
	assert.ErrorIs(t, err, warehouse.ErrQuery)

	f, err := c.Query(context.Background(), "SELECT COUNT(*) AS n FROM tmsis_enriched")
	require.NoError(t, err)
	n, _ := f.Column("n")
	assert.Equal(t, int64(5), n.Values[0])
}

func TestClient_QueryError(t *testing.T) {
	c := newTestClient(t, nil)

	_, err := c.Query(context.Background(), "SELECT nope FROM missing_table")
	require.Error(t, err)

	var werr *warehouse.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, warehouse.KindQuery, werr.Kind)
}

func TestClient_QueryOpensLazily(t *testing.T) {
	c, err := NewClient(logrus.New(), &Config{Path: testutil.NewSQLiteWarehouse(t, testutil.GAScenario())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Stop() })

	f, err := c.Query(context.Background(), "SELECT COUNT(*) AS n FROM tmsis_enriched")
	require.NoError(t, err)

	n, _ := f.Column("n")
	assert.Equal(t, int64(5), n.Values[0])
}

func TestClient_RecoversAfterFailedStart(t *testing.T) {
	path := testutil.NewSQLiteWarehouse(t, testutil.GAScenario())
	parked := path + ".parked"
	require.NoError(t, os.Rename(path, parked))

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	c, err := NewClient(logger, &Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Stop() })

	err = c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, warehouse.ErrConnection)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = c.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "a failed open must not create the file")

	require.NoError(t, os.Rename(parked, path))

	f, err := c.Query(context.Background(), "SELECT COUNT(*) AS n FROM tmsis_enriched")
	require.NoError(t, err)
	n, _ := f.Column("n")
	assert.Equal(t, int64(5), n.Values[0])
}

func TestClient_StartIsIdempotent(t *testing.T) {
	c := newTestClient(t, testutil.GAScenario())

	require.NoError(t, c.Start(context.Background()))

	_, err := c.Query(context.Background(), "SELECT 1 AS one")
	require.NoError(t, err)
}

func TestClient_ConcurrentStartAndQuery(t *testing.T) {
	c, err := NewClient(logrus.New(), &Config{Path: testutil.NewSQLiteWarehouse(t, testutil.GAScenario())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Stop() })

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			assert.NoError(t, c.Start(context.Background()))
		}()

		go func() {
			defer wg.Done()
			_, err := c.Query(context.Background(), "SELECT 1 AS one")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
}

func TestClient_ProviderCategoriesSortedAndIntact(t *testing.T) {
	reference := []testutil.ReferenceRow{
		{Code: "86701", Category: "Testing", Description: "HIV-1 antibody"},
		{Code: "J0739", Category: "PrEP, injectable", Description: "Injection, cabotegravir, 1 mg"},
		{Code: "J0750", Category: "ART", Description: "Emtricitabine/tenofovir oral"},
		{Code: "T1016", Category: "Case Management", Description: "Case management, each 15 minutes"},
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	c, err := NewClient(logger, &Config{Path: testutil.NewSQLiteWarehouseWithReference(t, testutil.GAScenario(), reference)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Stop() })

	catalog, err := query.NewCatalog(query.Config{}, query.SQLite)
	require.NoError(t, err)

	stmt, err := catalog.Build(query.ProviderDirectory, filter.New([]string{"GA"}, nil))
	require.NoError(t, err)

	f, err := c.Query(context.Background(), stmt.SQL)
	require.NoError(t, err)

	npi, ok := f.Column(query.OutNPI)
	require.True(t, ok)
	served, ok := f.Column(query.OutCategories)
	require.True(t, ok)

	byNPI := make(map[string]string, f.Len())
	for i := 0; i < f.Len(); i++ {
		byNPI[npi.String(i)] = served.String(i)
	}

	assert.Equal(t, map[string]string{
		"1000000001": "PrEP, injectable, Testing",
		"1000000002": "ART",
	}, byNPI)
}
