// Package handlers implements the dashboard HTTP API request handlers.
package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/nastad/tmsis-dashboard/pkg/dashboard"
	"github.com/nastad/tmsis-dashboard/pkg/executor"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/sirupsen/logrus"
)

// Dashboard renders pages and exports
type Dashboard interface {
	Pages() []*dashboard.Page
	Render(ctx context.Context, id dashboard.PageID, req dashboard.Request) (*dashboard.Rendered, error)
	Export(ctx context.Context, id dashboard.PageID, req dashboard.Request) (*dashboard.Export, error)
}

// Filters provides the legal filter values
type Filters interface {
	Domain(ctx context.Context) (filter.Domain, error)
}

// Cache exposes result cache administration
type Cache interface {
	Invalidate(ctx context.Context) error
	Stats() executor.Stats
}

// Server holds the dependencies shared by every handler
type Server struct {
	dashboard Dashboard
	filters   Filters
	cache     Cache
	reference query.ReferenceVersion
	log       logrus.FieldLogger
}

// NewServer creates a new API server instance
func NewServer(dash Dashboard, filters Filters, cache Cache, reference query.ReferenceVersion, log logrus.FieldLogger) *Server {
	return &Server{
		dashboard: dash,
		filters:   filters,
		cache:     cache,
		reference: reference,
		log:       log.WithField("component", "api.handlers"),
	}
}

// Register mounts every handler on router
func (s *Server) Register(router fiber.Router) {
	router.Get("/pages", s.ListPages)
	router.Get("/pages/:page", s.GetPage)
	router.Get("/pages/:page/csv", s.GetPageCSV)
	router.Get("/filters", s.GetFilters)
	router.Get("/reference", s.GetReference)
	router.Get("/cache", s.GetCacheStats)
	router.Post("/cache/flush", s.FlushCache)
}

// parseRequest reads the analyst's selections. Multi-valued filters may be
// repeated or comma separated.
func parseRequest(c fiber.Ctx) dashboard.Request {
	return dashboard.Request{
		Filter:   filter.New(queryValues(c, "state"), queryValues(c, "year")),
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
}

func queryValues(c fiber.Ctx, key string) []string {
	var out []string

	for _, raw := range c.Request().URI().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			// Kept verbatim; validation compares against stored values
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		}
	}

	return out
}
