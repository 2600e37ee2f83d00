// Package lookup resolves the legal filter values from the warehouse
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/sirupsen/logrus"
)

// ErrMissingColumn is returned when a domain query result lacks its value column
var ErrMissingColumn = errors.New("domain query result is missing its column")

// Executor runs query text, normally through the result cache
type Executor interface {
	Execute(ctx context.Context, sql string) (*frame.Frame, error)
}

// Service computes filter domains. Because lookups go through the cached
// executor, domains refresh on the same cadence as every other result.
type Service struct {
	log      logrus.FieldLogger
	catalog  *query.Catalog
	executor Executor
}

// NewService creates a lookup service
func NewService(log logrus.FieldLogger, catalog *query.Catalog, executor Executor) *Service {
	return &Service{
		log:      log.WithField("component", "lookup"),
		catalog:  catalog,
		executor: executor,
	}
}

// Domain returns the distinct states, years and categories present in the data
func (s *Service) Domain(ctx context.Context) (filter.Domain, error) {
	// One page's queries run one after another
	states, err := s.distinct(ctx, s.catalog.StateDomainSQL(), query.OutState)
	if err != nil {
		return filter.Domain{}, err
	}

	years, err := s.distinct(ctx, s.catalog.YearDomainSQL(), query.OutYear)
	if err != nil {
		return filter.Domain{}, err
	}

	categories, err := s.distinct(ctx, s.catalog.CategoryDomainSQL(), query.OutCategory)
	if err != nil {
		return filter.Domain{}, err
	}

	s.log.WithFields(logrus.Fields{
		"states":     len(states),
		"years":      len(years),
		"categories": len(categories),
	}).Debug("Resolved filter domain")

	return filter.NewDomain(states, years, categories), nil
}

func (s *Service) distinct(ctx context.Context, sql, column string) ([]string, error) {
	f, err := s.executor.Execute(ctx, sql)
	if err != nil {
		return nil, err
	}

	col, ok := f.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}

	seen := make(map[string]struct{}, f.Len())
	values := make([]string, 0, f.Len())

	for i := 0; i < f.Len(); i++ {
		v := col.String(i)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	sort.Strings(values)

	return values, nil
}
