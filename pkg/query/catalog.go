package query

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nastad/tmsis-dashboard/pkg/filter"
)

// ErrUnknownTemplate is returned when a template ID is not in the catalog
var ErrUnknownTemplate = errors.New("unknown query template")

// Statement is a fully rendered query ready for execution
type Statement struct {
	Template *Template
	SQL      string
	// IgnoredFilters lists active selections the template does not honour
	IgnoredFilters []filter.Field
}

// Catalog holds the fixed set of templates. It is built once and never mutated.
type Catalog struct {
	dialect   Dialect
	builder   *Builder
	renderer  *renderer
	claims    string
	reference ReferenceVersion
	templates map[ID]*Template
	order     []ID
}

// NewCatalog builds the template catalog for cfg and dialect
func NewCatalog(cfg Config, dialect Dialect) (*Catalog, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ref, err := LookupReferenceVersion(cfg.Reference.Version, cfg.Reference.Table)
	if err != nil {
		return nil, err
	}

	r, err := newRenderer()
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		dialect:   dialect,
		builder:   NewBuilder(dialect),
		renderer:  r,
		claims:    cfg.ClaimsTable,
		reference: ref,
		templates: make(map[ID]*Template),
	}

	for _, t := range definitions(cfg.ClaimsTable, ref, dialect) {
		c.templates[t.ID] = t
		c.order = append(c.order, t.ID)
	}

	return c, nil
}

// Reference returns the active crosswalk revision
func (c *Catalog) Reference() ReferenceVersion {
	return c.reference
}

// IDs returns every template ID in definition order
func (c *Catalog) IDs() []ID {
	return append([]ID(nil), c.order...)
}

// Template looks up a template by ID
func (c *Catalog) Template(id ID) (*Template, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}

	return t, nil
}

// Build renders the statement for template id restricted by fs. Selections
// the template does not accept are left out and reported in IgnoredFilters.
func (c *Catalog) Build(id ID, fs filter.State) (*Statement, error) {
	t, err := c.Template(id)
	if err != nil {
		return nil, err
	}

	var ignored []filter.Field
	if fs.HasStates() && !t.Accepts(filter.FieldState) {
		ignored = append(ignored, filter.FieldState)
	}
	if fs.HasYears() && !t.Accepts(filter.FieldYear) {
		ignored = append(ignored, filter.FieldYear)
	}

	var where []string
	if t.StateGuard {
		where = append(where, qualify(t.FilterAlias, ColState)+" IS NOT NULL")
	}
	where = append(where, c.builder.Fragments(fs, t.FilterAlias, t.Filters...)...)

	sql, err := c.renderer.render(partsFor(t, where))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", id, err)
	}

	return &Statement{Template: t, SQL: sql, IgnoredFilters: ignored}, nil
}

// StateDomainSQL lists the distinct practice-location states
func (c *Catalog) StateDomainSQL() string {
	return fmt.Sprintf("SELECT DISTINCT %s AS %s\nFROM %s\nWHERE %s IS NOT NULL\nORDER BY %s ASC",
		ColState, OutState, c.claims, ColState, OutState)
}

// YearDomainSQL lists the distinct claim years
func (c *Catalog) YearDomainSQL() string {
	year := c.dialect.YearPrefix(ColMonth)

	return fmt.Sprintf("SELECT DISTINCT %s AS %s\nFROM %s\nWHERE %s IS NOT NULL\nORDER BY %s ASC",
		year, OutYear, c.claims, ColMonth, OutYear)
}

// CategoryDomainSQL lists the distinct service categories of the active crosswalk
func (c *Catalog) CategoryDomainSQL() string {
	return fmt.Sprintf("SELECT DISTINCT %s AS %s\nFROM %s\nWHERE %s IS NOT NULL\nORDER BY %s ASC",
		RefCategory, OutCategory, c.reference.Table, RefCategory, OutCategory)
}

// Templates returns every template sorted by ID
func (c *Catalog) Templates() []*Template {
	out := make([]*Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
