package server

import (
	"forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their state for the
// current admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	raw := map[string]string{}
	evaluated := map[string]bool{}
	if s.featureFlags != nil {
		raw = s.featureFlags.Raw()
		evaluated = s.featureFlags.Snapshot(userID)
	}

	return c.JSON(fiber.Map{
		"raw":       raw,
		"evaluated": evaluated,
	})
}
