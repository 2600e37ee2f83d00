package query

import (
	"github.com/nastad/tmsis-dashboard/pkg/filter"
)

// ID identifies a query template
type ID string

// Template identifiers, one per dashboard view
const (
	StateOverview     ID = "state_overview"
	CategorySummary   ID = "category_summary"
	CategoryByState   ID = "category_by_state"
	HcpcsDetail       ID = "hcpcs_detail"
	ProviderDirectory ID = "provider_directory"
	MonthlyTrend      ID = "monthly_trend"
	YearlyTrend       ID = "yearly_trend"
	CategoryTrend     ID = "category_trend"
	HcpcsReference    ID = "hcpcs_reference"
)

// Output column names shared across templates
const (
	OutState         = "state"
	OutCategory      = "category"
	OutHCPCS         = "hcpcs_code"
	OutDescription   = "description"
	OutNPI           = "npi"
	OutOrganization  = "organization_name"
	OutLastName      = "last_name"
	OutFirstName     = "first_name"
	OutCredential    = "credential"
	OutTaxonomy      = "taxonomy"
	OutAddress       = "address"
	OutCity          = "city"
	OutZip           = "zip"
	OutMonth         = "month"
	OutYear          = "year"
	OutProviders     = "total_providers"
	OutCodes         = "total_codes"
	OutClaims        = "total_claims"
	OutBeneficiaries = "total_beneficiaries"
	OutPaid          = "total_paid"
	OutCategories    = "categories_served"
)

// Table is a relation with an optional alias
type Table struct {
	Name  string
	Alias string
}

// Join correlates the base relation with another relation by column equality
type Join struct {
	Table   string
	Alias   string
	OnLeft  string
	OnRight string
}

// Expr is a select-list expression and its output alias
type Expr struct {
	SQL string
	As  string
}

// Order controls result ordering. With Period set the result is ordered by
// that column ascending; otherwise by Metric descending followed by the
// grouping columns ascending.
type Order struct {
	Metric string
	Period string
}

// Template is a fixed, parameterized aggregate query
type Template struct {
	ID         ID
	Base       Table
	Joins      []Join
	Grouping   []Expr
	Aggregates []Expr
	// Filters lists the selections the template honours
	Filters []filter.Field
	// FilterAlias is the alias of the claims relation inside the template
	FilterAlias string
	// StateGuard drops claims rows with no resolvable practice-location state
	StateGuard bool
	Order      Order
}

// Accepts reports whether the template honours field
func (t *Template) Accepts(field filter.Field) bool {
	return accepts(t.Filters, field)
}

// Columns returns the output column names in select order
func (t *Template) Columns() []string {
	cols := make([]string, 0, len(t.Grouping)+len(t.Aggregates))
	for _, e := range t.Grouping {
		cols = append(cols, e.As)
	}
	for _, e := range t.Aggregates {
		cols = append(cols, e.As)
	}

	return cols
}

// definitions wires the catalog's templates for one schema, dialect and crosswalk
func definitions(claimsTable string, ref ReferenceVersion, d Dialect) []*Template {
	c := func(col string) string { return qualify(claimsAlias, col) }
	h := func(col string) string { return qualify(referenceAlias, col) }

	claims := Table{Name: claimsTable, Alias: claimsAlias}
	refJoin := []Join{{Table: ref.Table, Alias: referenceAlias, OnLeft: c(ColHCPCS), OnRight: h(RefCode)}}
	stateFilters := []filter.Field{filter.FieldState}
	allFilters := []filter.Field{filter.FieldState, filter.FieldYear}

	volume := func(alias string, withProviders bool) []Expr {
		q := func(col string) string { return qualify(alias, col) }

		var exprs []Expr
		if withProviders {
			exprs = append(exprs, Expr{SQL: "COUNT(DISTINCT " + q(ColNPI) + ")", As: OutProviders})
		}

		return append(exprs,
			Expr{SQL: "SUM(" + q(ColClaims) + ")", As: OutClaims},
			Expr{SQL: "SUM(" + q(ColBeneficiary) + ")", As: OutBeneficiaries},
			Expr{SQL: "ROUND(SUM(" + q(ColPaid) + "), 2)", As: OutPaid},
		)
	}

	return []*Template{
		{
			ID:          StateOverview,
			Base:        Table{Name: claimsTable},
			Grouping:    []Expr{{SQL: ColState, As: OutState}},
			Aggregates:  volume("", true),
			Filters:     allFilters,
			FilterAlias: "",
			StateGuard:  true,
			Order:       Order{Metric: OutClaims},
		},
		{
			ID:       CategorySummary,
			Base:     claims,
			Joins:    refJoin,
			Grouping: []Expr{{SQL: h(RefCategory), As: OutCategory}},
			Aggregates: append(
				[]Expr{
					{SQL: "COUNT(DISTINCT " + c(ColNPI) + ")", As: OutProviders},
					{SQL: "COUNT(DISTINCT " + c(ColHCPCS) + ")", As: OutCodes},
				},
				volume(claimsAlias, false)...,
			),
			Filters:     allFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Metric: OutClaims},
		},
		{
			ID:    CategoryByState,
			Base:  claims,
			Joins: refJoin,
			Grouping: []Expr{
				{SQL: c(ColState), As: OutState},
				{SQL: h(RefCategory), As: OutCategory},
			},
			Aggregates:  volume(claimsAlias, true),
			Filters:     allFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Metric: OutClaims},
		},
		{
			ID:    HcpcsDetail,
			Base:  claims,
			Joins: refJoin,
			Grouping: []Expr{
				{SQL: c(ColHCPCS), As: OutHCPCS},
				{SQL: h(RefCategory), As: OutCategory},
				{SQL: h(RefDescription), As: OutDescription},
			},
			Aggregates:  volume(claimsAlias, true),
			Filters:     allFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Metric: OutClaims},
		},
		{
			ID:    ProviderDirectory,
			Base:  claims,
			Joins: refJoin,
			Grouping: []Expr{
				{SQL: c(ColNPI), As: OutNPI},
				{SQL: c(ColOrganization), As: OutOrganization},
				{SQL: c(ColLastName), As: OutLastName},
				{SQL: c(ColFirstName), As: OutFirstName},
				{SQL: c(ColCredential), As: OutCredential},
				{SQL: c(ColTaxonomy), As: OutTaxonomy},
				{SQL: c(ColAddress), As: OutAddress},
				{SQL: c(ColCity), As: OutCity},
				{SQL: c(ColState), As: OutState},
				{SQL: c(ColZip), As: OutZip},
			},
			Aggregates: append(
				[]Expr{{SQL: d.DistinctList(h(RefCategory)), As: OutCategories}},
				volume(claimsAlias, false)...,
			),
			Filters:     allFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Metric: OutClaims},
		},
		{
			ID:          MonthlyTrend,
			Base:        claims,
			Joins:       refJoin,
			Grouping:    []Expr{{SQL: c(ColMonth), As: OutMonth}},
			Aggregates:  volume(claimsAlias, true),
			Filters:     stateFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Period: OutMonth},
		},
		{
			ID:          YearlyTrend,
			Base:        claims,
			Joins:       refJoin,
			Grouping:    []Expr{{SQL: d.YearPrefix(c(ColMonth)), As: OutYear}},
			Aggregates:  volume(claimsAlias, true),
			Filters:     stateFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Period: OutYear},
		},
		{
			ID:    CategoryTrend,
			Base:  claims,
			Joins: refJoin,
			Grouping: []Expr{
				{SQL: c(ColMonth), As: OutMonth},
				{SQL: h(RefCategory), As: OutCategory},
			},
			Aggregates:  volume(claimsAlias, false),
			Filters:     stateFilters,
			FilterAlias: claimsAlias,
			StateGuard:  true,
			Order:       Order{Metric: OutClaims},
		},
		{
			ID:   HcpcsReference,
			Base: Table{Name: ref.Table, Alias: referenceAlias},
			Grouping: []Expr{
				{SQL: h(RefCode), As: OutHCPCS},
				{SQL: h(RefCategory), As: OutCategory},
				{SQL: h(RefDescription), As: OutDescription},
			},
		},
	}
}
