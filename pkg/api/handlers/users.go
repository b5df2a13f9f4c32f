package handlers

import (
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/contrack/pkg/store"
)

// ListUsers handles GET /api/v1/users
func (s *Server) ListUsers(c fiber.Ctx) error {
	users, err := s.tracker.Users(c.Context())
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"users": users})
}

// SetUserRole handles PUT /api/v1/users/:email/role
func (s *Server) SetUserRole(c fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return ErrInvalidBody
	}

	role, err := store.ParseRole(body.Role)
	if err != nil {
		return httpError(err)
	}

	user, err := s.tracker.SetRole(c.Context(), email, role)
	if err != nil {
		return httpError(err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}
