package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/contrack/pkg/contracts"
)

// GetDashboard handles GET /api/v1/dashboard
func (s *Server) GetDashboard(c fiber.Ctx) error {
	stats, err := s.tracker.Dashboard(c.Context())
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

// ListAlerts handles GET /api/v1/alerts
func (s *Server) ListAlerts(c fiber.Ctx) error {
	view, err := s.tracker.View(c.Context())
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"date":   view.Date,
		"alerts": view.Alerts,
	})
}

// ListNatures handles GET /api/v1/natures
func (s *Server) ListNatures(c fiber.Ctx) error {
	natures, err := s.tracker.Natures(c.Context())
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"natures": natures})
}

// GetFilterOptions handles GET /api/v1/options
func (s *Server) GetFilterOptions(c fiber.Ctx) error {
	opts, err := s.tracker.Options(c.Context())
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(opts)
}

// GetParams handles GET /api/v1/params
func (s *Server) GetParams(c fiber.Ctx) error {
	params, err := s.tracker.Params(c.Context())
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(params)
}

// UpdateParams handles PUT /api/v1/params
func (s *Server) UpdateParams(c fiber.Ctx) error {
	var params contracts.AlertConfig
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return ErrInvalidBody
	}

	saved, err := s.tracker.UpdateParams(c.Context(), params)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(saved)
}

// RenderReport handles GET /api/v1/reports/:name
func (s *Server) RenderReport(c fiber.Ctx) error {
	view, err := s.tracker.View(c.Context())
	if err != nil {
		return httpError(err)
	}

	out, err := s.reports.Render(c.Params("name"), view)
	if err != nil {
		return httpError(err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.Status(fiber.StatusOK).SendString(out)
}
