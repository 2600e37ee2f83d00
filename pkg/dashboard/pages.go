// Package dashboard binds dashboard pages to catalog templates and renders
// them into views ready for presentation
package dashboard

import (
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/shape"
)

// PageID identifies a dashboard page
type PageID string

// Dashboard pages in selector order
const (
	PageAbout             PageID = "about"
	PageHcpcsReference    PageID = "hcpcs-reference"
	PageStateOverview     PageID = "state-overview"
	PageHIVServices       PageID = "hiv-services"
	PageProviderDirectory PageID = "provider-directory"
	PageTrends            PageID = "trends"
)

// Chart describes how a view is plotted by the presentation layer
type Chart struct {
	Type   string   `json:"type"` // bar, line, area
	X      string   `json:"x"`
	Y      []string `json:"y,omitempty"`
	Series string   `json:"series,omitempty"`
}

// PivotSpec reshapes a long view into one column per category
type PivotSpec struct {
	Period   string
	Category string
	Value    string
	Format   shape.Format
}

// ViewSpec binds one table or chart of a page to a template
type ViewSpec struct {
	ID       string
	Title    string
	Template query.ID
	Columns  []shape.DisplayColumn
	Metrics  []shape.MetricSpec
	Chart    *Chart
	Pivot    *PivotSpec
	// Directory applies the page's category and search selections to the fetched rows
	Directory bool
}

// Page is a declarative page binding
type Page struct {
	ID          PageID   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sections    []string `json:"sections,omitempty"`
	// CSVName is the download filename; empty when the page has no export
	CSVName string `json:"csv,omitempty"`
	// Export names the view written to CSV
	Export string     `json:"-"`
	Views  []ViewSpec `json:"-"`
	// Directory enables the category selector and free-text search
	Directory bool `json:"directory"`
}

// HasData reports whether the page queries the warehouse
func (p *Page) HasData() bool {
	return len(p.Views) > 0
}

// View looks up a view binding by ID
func (p *Page) View(id string) (*ViewSpec, bool) {
	for i := range p.Views {
		if p.Views[i].ID == id {
			return &p.Views[i], true
		}
	}

	return nil, false
}

func col(key, label string, format shape.Format) shape.DisplayColumn {
	return shape.DisplayColumn{Key: key, Label: label, Format: format}
}

//nolint:gochecknoglobals // Shared column declarations
var (
	colState         = col(query.OutState, "State", shape.FormatText)
	colCategory      = col(query.OutCategory, "Category", shape.FormatText)
	colHCPCS         = col(query.OutHCPCS, "HCPCS Code", shape.FormatText)
	colDescription   = col(query.OutDescription, "Description", shape.FormatText)
	colProviders     = col(query.OutProviders, "Providers", shape.FormatInt)
	colCodes         = col(query.OutCodes, "HCPCS Codes", shape.FormatInt)
	colClaims        = col(query.OutClaims, "Total Claims", shape.FormatInt)
	colBeneficiaries = col(query.OutBeneficiaries, "Beneficiaries", shape.FormatInt)
	colPaid          = col(query.OutPaid, "Total Paid", shape.FormatMoney)
)

func volumeColumns(withProviders bool) []shape.DisplayColumn {
	cols := []shape.DisplayColumn{colClaims, colBeneficiaries, colPaid}
	if withProviders {
		return append([]shape.DisplayColumn{colProviders}, cols...)
	}

	return cols
}

func volumeMetrics() []shape.MetricSpec {
	return []shape.MetricSpec{
		{Label: "Total Claims", Kind: shape.MetricSum, Column: query.OutClaims, Format: shape.FormatInt},
		{Label: "Total Beneficiaries", Kind: shape.MetricSum, Column: query.OutBeneficiaries, Format: shape.FormatInt},
		{Label: "Total Paid", Kind: shape.MetricSum, Column: query.OutPaid, Format: shape.FormatMoney},
	}
}

// Pages returns every page binding in selector order
func Pages() []*Page {
	return []*Page{
		{
			ID:          PageAbout,
			Title:       "About",
			Description: "Medicaid HIV service utilization from T-MSIS claims, aggregated by state, service category, provider and month.",
			Sections: []string{
				"Claims are read from the enriched T-MSIS extract joined to provider practice-location fields.",
				"HIV services are identified through a versioned HCPCS crosswalk; the active version is listed on the HCPCS Reference page.",
				"Results are cached for an hour. Figures are recomputed from the rows on screen, so they follow every filter.",
			},
		},
		{
			ID:          PageHcpcsReference,
			Title:       "HCPCS Reference",
			Description: "Procedure codes counted as HIV services and the category each one maps to.",
			CSVName:     "hiv_hcpcs_reference.csv",
			Export:      "reference",
			Views: []ViewSpec{
				{
					ID:       "reference",
					Title:    "HIV HCPCS Codes",
					Template: query.HcpcsReference,
					Columns:  []shape.DisplayColumn{colHCPCS, colCategory, colDescription},
					Metrics: []shape.MetricSpec{
						{Label: "Codes", Kind: shape.MetricCount, Format: shape.FormatInt},
						{Label: "Categories", Kind: shape.MetricDistinct, Column: query.OutCategory, Format: shape.FormatInt},
					},
				},
			},
		},
		{
			ID:          PageStateOverview,
			Title:       "State Overview",
			Description: "Providers, claims, beneficiaries and payments by practice-location state.",
			CSVName:     "state_summary.csv",
			Export:      "states",
			Views: []ViewSpec{
				{
					ID:       "states",
					Title:    "Claims by State",
					Template: query.StateOverview,
					Columns:  append([]shape.DisplayColumn{colState}, volumeColumns(true)...),
					Metrics: append([]shape.MetricSpec{
						{Label: "States", Kind: shape.MetricDistinct, Column: query.OutState, Format: shape.FormatInt},
					}, volumeMetrics()...),
					Chart: &Chart{Type: "bar", X: query.OutState, Y: []string{query.OutClaims}},
				},
			},
		},
		{
			ID:          PageHIVServices,
			Title:       "HIV Services",
			Description: "HIV service volume by category, by state and category, and by procedure code.",
			CSVName:     "hiv_services.csv",
			Export:      "categories",
			Views: []ViewSpec{
				{
					ID:       "categories",
					Title:    "Service Categories",
					Template: query.CategorySummary,
					Columns:  append([]shape.DisplayColumn{colCategory, colProviders, colCodes}, volumeColumns(false)...),
					Metrics: append([]shape.MetricSpec{
						{Label: "Categories", Kind: shape.MetricDistinct, Column: query.OutCategory, Format: shape.FormatInt},
					}, volumeMetrics()...),
					Chart: &Chart{Type: "bar", X: query.OutCategory, Y: []string{query.OutClaims}},
				},
				{
					ID:       "category-by-state",
					Title:    "Categories by State",
					Template: query.CategoryByState,
					Columns:  append([]shape.DisplayColumn{colState, colCategory}, volumeColumns(true)...),
					Chart:    &Chart{Type: "bar", X: query.OutState, Y: []string{query.OutClaims}, Series: query.OutCategory},
				},
				{
					ID:       "hcpcs",
					Title:    "Procedure Codes",
					Template: query.HcpcsDetail,
					Columns:  append([]shape.DisplayColumn{colHCPCS, colCategory, colDescription}, volumeColumns(true)...),
				},
			},
		},
		{
			ID:          PageProviderDirectory,
			Title:       "Provider Directory",
			Description: "Billing providers delivering HIV services, with the categories each one bills.",
			CSVName:     "provider_directory.csv",
			Export:      "providers",
			Directory:   true,
			Views: []ViewSpec{
				{
					ID:       "providers",
					Title:    "Providers",
					Template: query.ProviderDirectory,
					Columns: append([]shape.DisplayColumn{
						col(query.OutNPI, "NPI", shape.FormatText),
						col(query.OutOrganization, "Organization", shape.FormatText),
						col(query.OutLastName, "Last Name", shape.FormatText),
						col(query.OutFirstName, "First Name", shape.FormatText),
						col(query.OutCredential, "Credential", shape.FormatText),
						col(query.OutTaxonomy, "Taxonomy", shape.FormatText),
						col(query.OutAddress, "Address", shape.FormatText),
						col(query.OutCity, "City", shape.FormatText),
						colState,
						col(query.OutZip, "ZIP", shape.FormatText),
						col(query.OutCategories, "Categories Served", shape.FormatText),
					}, volumeColumns(false)...),
					Metrics: append([]shape.MetricSpec{
						{Label: "Providers", Kind: shape.MetricDistinct, Column: query.OutNPI, Format: shape.FormatInt},
					}, volumeMetrics()...),
					Directory: true,
				},
			},
		},
		{
			ID:          PageTrends,
			Title:       "Trends",
			Description: "HIV service volume over time. The year filter does not apply to this page.",
			CSVName:     "hiv_trends.csv",
			Export:      "monthly",
			Views: []ViewSpec{
				{
					ID:       "monthly",
					Title:    "Monthly Trend",
					Template: query.MonthlyTrend,
					Columns:  append([]shape.DisplayColumn{col(query.OutMonth, "Month", shape.FormatText)}, volumeColumns(true)...),
					Metrics:  volumeMetrics(),
					Chart:    &Chart{Type: "line", X: query.OutMonth, Y: []string{query.OutClaims, query.OutBeneficiaries}},
				},
				{
					ID:       "yearly",
					Title:    "Yearly Trend",
					Template: query.YearlyTrend,
					Columns:  append([]shape.DisplayColumn{col(query.OutYear, "Year", shape.FormatText)}, volumeColumns(true)...),
					Chart:    &Chart{Type: "bar", X: query.OutYear, Y: []string{query.OutClaims}},
				},
				{
					ID:       "category-trend",
					Title:    "Claims by Category over Time",
					Template: query.CategoryTrend,
					Pivot: &PivotSpec{
						Period:   query.OutMonth,
						Category: query.OutCategory,
						Value:    query.OutClaims,
						Format:   shape.FormatInt,
					},
					Chart: &Chart{Type: "area", X: query.OutMonth},
				},
			},
		},
	}
}
