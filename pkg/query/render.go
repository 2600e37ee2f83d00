package query

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const statementTemplate = `SELECT
    {{ join ",\n    " .Select }}
FROM {{ .From }}
{{- range .Joins }}
INNER JOIN {{ . }}
{{- end }}
{{- if .Where }}
WHERE {{ join "\n  AND " .Where }}
{{- end }}
{{- if .GroupBy }}
GROUP BY {{ join ", " .GroupBy }}
{{- end }}
{{- if .OrderBy }}
ORDER BY {{ join ", " .OrderBy }}
{{- end }}`

// statementParts is the rendering input for statementTemplate
type statementParts struct {
	Select  []string
	From    string
	Joins   []string
	Where   []string
	GroupBy []string
	OrderBy []string
}

// renderer renders statements with Sprig functions available
type renderer struct {
	tmpl *template.Template
}

func newRenderer() (*renderer, error) {
	tmpl, err := template.New("statement").Funcs(sprig.TxtFuncMap()).Parse(statementTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement template: %w", err)
	}

	return &renderer{tmpl: tmpl}, nil
}

func (r *renderer) render(parts statementParts) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, parts); err != nil {
		return "", fmt.Errorf("failed to execute statement template: %w", err)
	}

	return buf.String(), nil
}

// partsFor lays out a template's clauses around the given WHERE conditions
func partsFor(t *Template, where []string) statementParts {
	parts := statementParts{
		From:  tableRef(t.Base.Name, t.Base.Alias),
		Where: where,
	}

	for _, e := range t.Grouping {
		parts.Select = append(parts.Select, e.SQL+" AS "+e.As)
		parts.GroupBy = append(parts.GroupBy, e.SQL)
	}

	for _, e := range t.Aggregates {
		parts.Select = append(parts.Select, e.SQL+" AS "+e.As)
	}

	for _, j := range t.Joins {
		parts.Joins = append(parts.Joins, tableRef(j.Table, j.Alias)+" ON "+j.OnLeft+" = "+j.OnRight)
	}

	switch {
	case t.Order.Period != "":
		parts.OrderBy = []string{t.Order.Period + " ASC"}
	case t.Order.Metric != "":
		parts.OrderBy = append(parts.OrderBy, t.Order.Metric+" DESC")
		fallthrough
	default:
		for _, e := range t.Grouping {
			parts.OrderBy = append(parts.OrderBy, e.As+" ASC")
		}
	}

	return parts
}

func tableRef(name, alias string) string {
	if alias == "" {
		return name
	}

	return name + " AS " + alias
}
