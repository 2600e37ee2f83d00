package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/nastad/tmsis-dashboard/pkg/executor"
)

// CacheStatsResponse is the body of GET /cache
type CacheStatsResponse struct {
	executor.Stats
	FreshnessSeconds float64 `json:"freshness_seconds"` //nolint:tagliatelle // presentation format
}

// GetCacheStats handles GET /cache
func (s *Server) GetCacheStats(c fiber.Ctx) error {
	stats := s.cache.Stats()

	return c.JSON(CacheStatsResponse{Stats: stats, FreshnessSeconds: stats.Freshness.Seconds()})
}

// FlushCache handles POST /cache/flush
func (s *Server) FlushCache(c fiber.Ctx) error {
	if err := s.cache.Invalidate(c.Context()); err != nil {
		s.log.WithError(err).Error("Failed to flush query cache")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to flush query cache")
	}

	s.log.Info("Query cache flushed via API")

	return c.JSON(fiber.Map{"flushed": true})
}
