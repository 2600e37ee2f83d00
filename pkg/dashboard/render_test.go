package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/nastad/tmsis-dashboard/internal/testutil"
	"github.com/nastad/tmsis-dashboard/pkg/executor"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/lookup"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/sqlite"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	return logger
}

// newSQLiteRenderer wires a renderer over a seeded SQLite warehouse
func newSQLiteRenderer(t *testing.T, claims []testutil.ClaimRow) (*Renderer, *executor.Executor) {
	t.Helper()

	log := testLogger()

	client, err := sqlite.NewClient(log, &sqlite.Config{Path: testutil.NewSQLiteWarehouse(t, claims)})
	require.NoError(t, err)
	require.NoError(t, client.Start(context.Background()))
	t.Cleanup(func() { _ = client.Stop() })

	catalog, err := query.NewCatalog(query.Config{}, query.SQLite)
	require.NoError(t, err)

	exec, err := executor.New(log, client, executor.Config{})
	require.NoError(t, err)

	return NewRenderer(log, catalog, exec, lookup.NewService(log, catalog, exec)), exec
}

type staticDomain struct {
	domain filter.Domain
	err    error
}

func (s staticDomain) Domain(context.Context) (filter.Domain, error) {
	return s.domain, s.err
}

func newMockRenderer(t *testing.T, client *warehouse.MockClient) *Renderer {
	t.Helper()

	catalog, err := query.NewCatalog(query.Config{}, query.ClickHouse)
	require.NoError(t, err)

	exec, err := executor.New(testLogger(), client, executor.Config{})
	require.NoError(t, err)

	domain := staticDomain{domain: filter.NewDomain([]string{"GA", "NC"}, []string{"2021", "2022"}, []string{"ART", "PrEP"})}

	return NewRenderer(testLogger(), catalog, exec, domain)
}

func TestRender_StateOverviewGeorgia(t *testing.T) {
	r, _ := newSQLiteRenderer(t, testutil.GAScenario())

	out, err := r.Render(context.Background(), PageStateOverview, Request{Filter: filter.New([]string{"GA"}, nil)})
	require.NoError(t, err)
	require.Nil(t, out.Error)

	require.Len(t, out.Views, 1)
	view := out.Views[0]

	require.Equal(t, 1, view.RowCount)
	assert.Equal(t, "GA", view.Rows[0][query.OutState])
	assert.Equal(t, int64(175), view.Rows[0][query.OutClaims])
	assert.Equal(t, int64(2), view.Rows[0][query.OutProviders])

	metrics := make(map[string]string)
	for _, m := range view.Metrics {
		metrics[m.Label] = m.Text
	}
	assert.Equal(t, "175", metrics["Total Claims"])
	assert.Equal(t, "1", metrics["States"])
	assert.Equal(t, "$4,600.75", metrics["Total Paid"])
	assert.Equal(t, "state_summary.csv", out.CSVName)
	assert.Equal(t, "v2", out.Reference)
}

func TestRender_EveryPageAgainstSQLite(t *testing.T) {
	r, _ := newSQLiteRenderer(t, testutil.GAScenario())

	for _, page := range r.Pages() {
		t.Run(string(page.ID), func(t *testing.T) {
			out, err := r.Render(context.Background(), page.ID, Request{})
			require.NoError(t, err)
			require.Nil(t, out.Error)
			assert.Len(t, out.Views, len(page.Views))
			assert.Empty(t, out.Notices)
		})
	}
}

func TestRender_HIVServicesJoinsCategories(t *testing.T) {
	r, _ := newSQLiteRenderer(t, testutil.GAScenario())

	out, err := r.Render(context.Background(), PageHIVServices, Request{Filter: filter.New([]string{"GA"}, []string{"2021"})})
	require.NoError(t, err)

	categories := out.Views[0]
	assert.Equal(t, "categories", categories.ID)
	require.Equal(t, 2, categories.RowCount)
	assert.Equal(t, "HIV Testing", categories.Rows[0][query.OutCategory])
	assert.Equal(t, int64(100), categories.Rows[0][query.OutClaims])
	assert.Equal(t, "PrEP", categories.Rows[1][query.OutCategory])
}

func TestRender_ProviderDirectoryFilters(t *testing.T) {
	r, exec := newSQLiteRenderer(t, testutil.GAScenario())
	ctx := context.Background()

	out, err := r.Render(ctx, PageProviderDirectory, Request{})
	require.NoError(t, err)
	require.Equal(t, 4, out.Views[0].RowCount)
	fetches := exec.Stats().Fetches

	out, err = r.Render(ctx, PageProviderDirectory, Request{Category: "PrEP", Search: "smith"})
	require.NoError(t, err)

	view := out.Views[0]
	require.Equal(t, 1, view.RowCount)
	assert.Equal(t, "1000000001", view.Rows[0][query.OutNPI])
	assert.Equal(t, "HIV Testing, PrEP", view.Rows[0][query.OutCategories])

	var providers string
	for _, m := range view.Metrics {
		if m.Label == "Providers" {
			providers = m.Text
		}
	}
	assert.Equal(t, "1", providers)

	// Directory filtering reuses the cached rows; only the domain lookups are new
	assert.Equal(t, fetches+3, exec.Stats().Fetches)
}

func TestRender_TrendsIgnoreYearFilter(t *testing.T) {
	r, _ := newSQLiteRenderer(t, testutil.GAScenario())

	out, err := r.Render(context.Background(), PageTrends, Request{Filter: filter.New([]string{"GA"}, []string{"2021"})})
	require.NoError(t, err)

	require.Len(t, out.Notices, 1)
	assert.Contains(t, out.Notices[0].Message, "year filter does not apply to Trends")

	monthly := out.Views[0]
	assert.Equal(t, 3, monthly.RowCount)
	assert.Equal(t, "2021-03", monthly.Rows[0][query.OutMonth])
	assert.Equal(t, "2022-01", monthly.Rows[2][query.OutMonth])

	pivot := out.Views[2]
	assert.Equal(t, "category-trend", pivot.ID)
	assert.Equal(t, []string{"HIV Testing", "PrEP", "ART"}, pivot.Chart.Y)
	assert.Equal(t, int64(0), pivot.Rows[0]["ART"])
	assert.Equal(t, int64(100), pivot.Rows[0]["HIV Testing"])
}

func TestRender_ValidationErrorSkipsQueries(t *testing.T) {
	client := warehouse.NewMockClient()
	r := newMockRenderer(t, client)

	_, err := r.Render(context.Background(), PageStateOverview, Request{Filter: filter.New([]string{"GA", "ZZ'; DROP"}, nil)})

	var verr *filter.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, filter.FieldState, verr.Field)
	assert.Equal(t, 0, client.Calls())

	_, err = r.Render(context.Background(), PageProviderDirectory, Request{Category: "Dental"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, filter.FieldCategory, verr.Field)
	assert.Equal(t, 0, client.Calls())
}

func TestRender_WarehouseErrorBecomesPanel(t *testing.T) {
	client := warehouse.NewMockClient()
	client.QueryFunc = func(context.Context, string) (*frame.Frame, error) {
		return nil, warehouse.NewError(warehouse.KindTimeout, errors.New("deadline exceeded"))
	}
	r := newMockRenderer(t, client)

	out, err := r.Render(context.Background(), PageHIVServices, Request{})
	require.NoError(t, err)
	require.NotNil(t, out.Error)

	assert.Equal(t, warehouse.KindTimeout, out.Error.Kind)
	assert.NotEmpty(t, out.Error.Incident)
	assert.Contains(t, out.Error.Guidance, "Narrow")
	assert.Empty(t, out.Views)

	// The first failing view stops the page
	assert.Equal(t, 1, client.Calls())

	// Static pages keep working
	about, err := r.Render(context.Background(), PageAbout, Request{})
	require.NoError(t, err)
	assert.Nil(t, about.Error)
	assert.NotEmpty(t, about.Sections)
}

func TestRender_UnknownPage(t *testing.T) {
	r := newMockRenderer(t, warehouse.NewMockClient())

	_, err := r.Render(context.Background(), "billing", Request{})
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestExport(t *testing.T) {
	r, _ := newSQLiteRenderer(t, testutil.GAScenario())

	export, err := r.Export(context.Background(), PageStateOverview, Request{Filter: filter.New([]string{"GA"}, nil)})
	require.NoError(t, err)

	assert.Equal(t, "state_summary.csv", export.Filename)
	assert.Equal(t, 1, export.Frame.Len())
	assert.Equal(t, query.OutState, export.Columns[0].Key)

	_, err = r.Export(context.Background(), PageAbout, Request{})
	assert.ErrorIs(t, err, ErrNoExport)
}

func TestStatements_OnePerView(t *testing.T) {
	r := newMockRenderer(t, warehouse.NewMockClient())

	stmts, err := r.Statements(PageHIVServices, filter.New(nil, nil))
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.Equal(t, query.CategorySummary, stmts[0].Template.ID)
	assert.Equal(t, query.CategoryByState, stmts[1].Template.ID)
	assert.Equal(t, query.HcpcsDetail, stmts[2].Template.ID)
}

func TestPages_CSVNames(t *testing.T) {
	names := make(map[PageID]string)
	for _, p := range Pages() {
		names[p.ID] = p.CSVName
		if p.CSVName != "" {
			_, ok := p.View(p.Export)
			assert.True(t, ok, "export view of %s", p.ID)
		}
	}

	assert.Equal(t, map[PageID]string{
		PageAbout:             "",
		PageHcpcsReference:    "hiv_hcpcs_reference.csv",
		PageStateOverview:     "state_summary.csv",
		PageHIVServices:       "hiv_services.csv",
		PageProviderDirectory: "provider_directory.csv",
		PageTrends:            "hiv_trends.csv",
	}, names)
}
