package handlers

import "github.com/gofiber/fiber/v3"

// ErrPageNotFound is returned when the page path parameter names no page
var ErrPageNotFound = fiber.NewError(fiber.StatusNotFound, "page not found")

// ErrExportNotFound is returned when a page offers no CSV download
var ErrExportNotFound = fiber.NewError(fiber.StatusNotFound, "page has no CSV export")
