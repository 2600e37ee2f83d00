package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/nastad/tmsis-dashboard/pkg/query"
)

// ReferenceResponse is the body of GET /reference
type ReferenceResponse struct {
	Active   query.ReferenceVersion   `json:"active"`
	Versions []query.ReferenceVersion `json:"versions"`
}

// GetFilters handles GET /filters
func (s *Server) GetFilters(c fiber.Ctx) error {
	domain, err := s.filters.Domain(c.Context())
	if err != nil {
		return s.requestError(c, err)
	}

	return c.JSON(domain)
}

// GetReference handles GET /reference
func (s *Server) GetReference(c fiber.Ctx) error {
	return c.JSON(ReferenceResponse{
		Active:   s.reference,
		Versions: query.ReferenceVersions(),
	})
}
