package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/observability"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/shape"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
	"github.com/sirupsen/logrus"
)

// Executor runs query text, normally through the result cache
type Executor interface {
	Execute(ctx context.Context, sql string) (*frame.Frame, error)
}

// DomainSource provides the legal filter values
type DomainSource interface {
	Domain(ctx context.Context) (filter.Domain, error)
}

// Request carries one analyst's selections for a page
type Request struct {
	Filter   filter.State
	Category string
	Search   string
}

// Notice is an informational message shown above a page's views
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// View is a rendered table or chart
type View struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Columns  []shape.DisplayColumn `json:"columns"`
	Rows     []map[string]any      `json:"rows"`
	RowCount int                   `json:"row_count"` //nolint:tagliatelle // presentation format
	Metrics  []shape.Metric        `json:"metrics,omitempty"`
	Chart    *Chart                `json:"chart,omitempty"`

	frame *frame.Frame
}

// Frame returns the rows behind the view
func (v *View) Frame() *frame.Frame {
	return v.frame
}

// Rendered is a page ready for presentation
type Rendered struct {
	Page        PageID      `json:"page"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Sections    []string    `json:"sections,omitempty"`
	Filter      string      `json:"filter"`
	Reference   string      `json:"reference"`
	CSVName     string      `json:"csv,omitempty"`
	Notices     []Notice    `json:"notices,omitempty"`
	Views       []*View     `json:"views"`
	Error       *ErrorPanel `json:"error,omitempty"`
}

// Export is the table written to a page's CSV download
type Export struct {
	Filename string
	Frame    *frame.Frame
	Columns  []shape.DisplayColumn
}

// Renderer turns page bindings and analyst selections into views. One
// renderer is shared by every session.
type Renderer struct {
	log      logrus.FieldLogger
	catalog  *query.Catalog
	executor Executor
	domain   DomainSource
	pages    map[PageID]*Page
	order    []*Page
}

// NewRenderer creates a renderer over the page bindings
func NewRenderer(log logrus.FieldLogger, catalog *query.Catalog, executor Executor, domain DomainSource) *Renderer {
	r := &Renderer{
		log:      log.WithField("component", "dashboard"),
		catalog:  catalog,
		executor: executor,
		domain:   domain,
		pages:    make(map[PageID]*Page),
	}

	for _, p := range Pages() {
		r.pages[p.ID] = p
		r.order = append(r.order, p)
	}

	return r
}

// Pages returns the page bindings in selector order
func (r *Renderer) Pages() []*Page {
	return append([]*Page(nil), r.order...)
}

// Page looks up a page binding
func (r *Renderer) Page(id PageID) (*Page, error) {
	p, ok := r.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, id)
	}

	return p, nil
}

// Statements returns the statements a page issues for fs, in execution order
func (r *Renderer) Statements(id PageID, fs filter.State) ([]*query.Statement, error) {
	page, err := r.Page(id)
	if err != nil {
		return nil, err
	}

	stmts := make([]*query.Statement, 0, len(page.Views))
	for i := range page.Views {
		stmt, err := r.catalog.Build(page.Views[i].Template, fs)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

// Render executes the page's queries in order and shapes their results.
// Invalid selections fail with *filter.ValidationError before any query runs.
// A warehouse failure is reported through Rendered.Error rather than err so
// that other pages stay usable.
func (r *Renderer) Render(ctx context.Context, id PageID, req Request) (*Rendered, error) {
	page, err := r.Page(id)
	if err != nil {
		return nil, err
	}

	out := &Rendered{
		Page:        page.ID,
		Title:       page.Title,
		Description: page.Description,
		Sections:    page.Sections,
		Filter:      req.Filter.String(),
		Reference:   r.catalog.Reference().ID,
		CSVName:     page.CSVName,
		Views:       make([]*View, 0, len(page.Views)),
	}

	if !page.HasData() {
		observability.RecordPageRender(string(page.ID), "success")
		return out, nil
	}

	if err := r.validate(ctx, page, req); err != nil {
		return r.fail(out, page, err)
	}

	for i := range page.Views {
		view, notices, err := r.renderView(ctx, page, &page.Views[i], req)
		if err != nil {
			return r.fail(out, page, err)
		}

		out.Notices = appendNotices(out.Notices, notices...)
		out.Views = append(out.Views, view)
	}

	observability.RecordPageRender(string(page.ID), "success")

	return out, nil
}

// Export renders only the page's export view
func (r *Renderer) Export(ctx context.Context, id PageID, req Request) (*Export, error) {
	page, err := r.Page(id)
	if err != nil {
		return nil, err
	}

	spec, ok := page.View(page.Export)
	if !ok || page.CSVName == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoExport, id)
	}

	if err := r.validate(ctx, page, req); err != nil {
		return nil, err
	}

	view, _, err := r.renderView(ctx, page, spec, req)
	if err != nil {
		return nil, err
	}

	return &Export{Filename: page.CSVName, Frame: view.frame, Columns: view.Columns}, nil
}

// fail converts a warehouse failure into an error panel and passes any
// other error through
func (r *Renderer) fail(out *Rendered, page *Page, err error) (*Rendered, error) {
	var werr *warehouse.Error
	if !errors.As(err, &werr) {
		status := "error"
		var verr *filter.ValidationError
		if errors.As(err, &verr) {
			status = "invalid"
		}
		observability.RecordPageRender(string(page.ID), status)

		return nil, err
	}

	panel := NewErrorPanel(werr)

	r.log.WithError(err).WithFields(logrus.Fields{
		"page":     page.ID,
		"incident": panel.Incident,
		"kind":     werr.Kind,
	}).Error("Page data unavailable")

	observability.RecordPageRender(string(page.ID), "error")

	out.Views = []*View{}
	out.Error = panel

	return out, nil
}

// validate checks the selections against the legal domain
func (r *Renderer) validate(ctx context.Context, page *Page, req Request) error {
	if req.Filter.IsEmpty() && req.Category == "" {
		return nil
	}

	domain, err := r.domain.Domain(ctx)
	if err != nil {
		return err
	}

	if err := domain.Validate(req.Filter); err != nil {
		return err
	}

	if page.Directory {
		return domain.ValidateCategory(req.Category)
	}

	return nil
}

func (r *Renderer) renderView(ctx context.Context, page *Page, spec *ViewSpec, req Request) (*View, []Notice, error) {
	stmt, err := r.catalog.Build(spec.Template, req.Filter)
	if err != nil {
		return nil, nil, err
	}

	f, err := r.executor.Execute(ctx, stmt.SQL)
	if err != nil {
		return nil, nil, err
	}

	columns := spec.Columns

	if spec.Directory && page.Directory {
		f, err = shape.DirectoryFilter{
			Category:         req.Category,
			Search:           req.Search,
			CategoriesColumn: query.OutCategories,
		}.Apply(f)
		if err != nil {
			return nil, nil, err
		}
	}

	if spec.Pivot != nil {
		f, err = shape.Pivot(f, spec.Pivot.Period, spec.Pivot.Category, spec.Pivot.Value)
		if err != nil {
			return nil, nil, err
		}
		columns = pivotColumns(f, spec.Pivot)
	}

	metrics, err := shape.Metrics(f, spec.Metrics)
	if err != nil {
		return nil, nil, err
	}

	view := &View{
		ID:       spec.ID,
		Title:    spec.Title,
		Columns:  columns,
		Rows:     f.Records(),
		RowCount: f.Len(),
		Metrics:  metrics,
		Chart:    chartFor(spec.Chart, columns, spec.Pivot),
		frame:    f,
	}

	return view, ignoredNotices(page, stmt.IgnoredFilters), nil
}

func pivotColumns(f *frame.Frame, p *PivotSpec) []shape.DisplayColumn {
	cols := make([]shape.DisplayColumn, 0, len(f.Columns))
	for i, name := range f.Names() {
		format := p.Format
		if i == 0 {
			format = shape.FormatText
		}
		cols = append(cols, shape.DisplayColumn{Key: name, Label: name, Format: format})
	}

	return cols
}

// chartFor fills in the series of a pivoted chart from the observed categories
func chartFor(chart *Chart, columns []shape.DisplayColumn, p *PivotSpec) *Chart {
	if chart == nil || p == nil {
		return chart
	}

	out := *chart
	out.Y = make([]string, 0, len(columns))
	for _, c := range columns[1:] {
		out.Y = append(out.Y, c.Key)
	}

	return &out
}

func ignoredNotices(page *Page, ignored []filter.Field) []Notice {
	if len(ignored) == 0 {
		return nil
	}

	names := make([]string, len(ignored))
	for i, f := range ignored {
		names[i] = string(f)
	}

	return []Notice{{
		Level:   "info",
		Message: fmt.Sprintf("The %s filter does not apply to %s; showing all values.", strings.Join(names, " and "), page.Title),
	}}
}

func appendNotices(existing []Notice, notices ...Notice) []Notice {
	for _, n := range notices {
		dup := false
		for _, e := range existing {
			if e == n {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, n)
		}
	}

	return existing
}
