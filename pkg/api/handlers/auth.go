package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/contrack/pkg/store"
)

// HeaderUserEmail carries the caller's identity, set by the fronting proxy
const HeaderUserEmail = "X-User-Email"

const (
	localEmail = "email"
	localRole  = "role"
)

// identify resolves the caller's role from the email header
func (s *Server) identify(c fiber.Ctx) error {
	email := store.NormalizeEmail(c.Get(HeaderUserEmail))
	if email == "" {
		return ErrIdentityRequired
	}

	role, err := s.tracker.Role(c.Context(), email)
	if err != nil {
		return httpError(err)
	}

	c.Locals(localEmail, email)
	c.Locals(localRole, role)

	return c.Next()
}

func requireAdmin(c fiber.Ctx) error {
	if role, _ := c.Locals(localRole).(store.Role); role != store.RoleAdmin {
		return ErrAdminRequired
	}

	return c.Next()
}

func callerEmail(c fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)

	return email
}

// GetCurrentUser handles GET /api/v1/me
func (s *Server) GetCurrentUser(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"email": callerEmail(c),
		"role":  c.Locals(localRole),
	})
}
