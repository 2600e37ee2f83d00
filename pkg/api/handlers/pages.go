package handlers

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/nastad/tmsis-dashboard/pkg/dashboard"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/shape"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
)

// PageSummary is one entry of the page selector
type PageSummary struct {
	ID          dashboard.PageID `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CSV         string           `json:"csv,omitempty"`
}

// ListPagesResponse is the body of GET /pages
type ListPagesResponse struct {
	Pages []PageSummary `json:"pages"`
}

// ValidationErrorResponse is returned when a selection is outside the legal domain
type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Code   int          `json:"code"`
	Field  filter.Field `json:"field"`
	Values []string     `json:"values"`
}

// ListPages handles GET /pages
func (s *Server) ListPages(c fiber.Ctx) error {
	pages := s.dashboard.Pages()

	out := ListPagesResponse{Pages: make([]PageSummary, 0, len(pages))}
	for _, p := range pages {
		out.Pages = append(out.Pages, PageSummary{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			CSV:         p.CSVName,
		})
	}

	return c.JSON(out)
}

// GetPage handles GET /pages/:page
func (s *Server) GetPage(c fiber.Ctx) error {
	id := dashboard.PageID(c.Params("page"))

	rendered, err := s.dashboard.Render(c.Context(), id, parseRequest(c))
	if err != nil {
		return s.requestError(c, err)
	}

	if rendered.Error != nil {
		return c.Status(fiber.StatusBadGateway).JSON(rendered)
	}

	return c.JSON(rendered)
}

// GetPageCSV handles GET /pages/:page/csv
func (s *Server) GetPageCSV(c fiber.Ctx) error {
	id := dashboard.PageID(c.Params("page"))

	export, err := s.dashboard.Export(c.Context(), id, parseRequest(c))
	if err != nil {
		return s.requestError(c, err)
	}

	var buf bytes.Buffer
	if err := shape.WriteCSV(&buf, export.Frame, export.Columns); err != nil {
		return err
	}

	c.Attachment(export.Filename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")

	return c.Send(buf.Bytes())
}

// requestError maps domain failures to responses. Anything unrecognised is
// left to the application error handler.
func (s *Server) requestError(c fiber.Ctx, err error) error {
	var verr *filter.ValidationError
	var werr *warehouse.Error

	switch {
	case errors.Is(err, dashboard.ErrUnknownPage):
		return ErrPageNotFound
	case errors.Is(err, dashboard.ErrNoExport):
		return ErrExportNotFound
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
			Error:  verr.Error(),
			Code:   fiber.StatusBadRequest,
			Field:  verr.Field,
			Values: verr.Values,
		})
	case errors.As(err, &werr):
		panel := dashboard.NewErrorPanel(werr)
		s.log.WithError(err).WithField("incident", panel.Incident).Error("Export data unavailable")

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": panel})
	default:
		return err
	}
}
