package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserIDLocal is the fiber.Ctx Locals key holding the caller's user id.
const UserIDLocal = "user_id"

// UserContextMiddleware copies the gateway's X-User-ID header into Locals.
// An absent header selects the single local profile. When required is true
// the header must be present.
func UserContextMiddleware(required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if required && userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}
		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

// UserID reads the id stored by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocal).(string)
	return id
}
