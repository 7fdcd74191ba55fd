package middleware

import (
	"strings"

	"wildlife-progress/logger"

	"github.com/gofiber/fiber/v2"
)

// SSEQueryAuthMiddleware lets EventSource clients, which cannot set headers,
// pass `token` and `user_id` as query params. They are copied into the
// Authorization and X-User-ID headers when those are absent, so it must run
// before GatewayAuthMiddleware.
//
// Usage:
//
//	app.Use("/user/profile/stream", middleware.SSEQueryAuthMiddleware(log))
func SSEQueryAuthMiddleware(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		args := c.Request().URI().QueryArgs()
		token := strings.TrimSpace(string(args.Peek("token")))
		userID := strings.TrimSpace(string(args.Peek("user_id")))

		if token != "" && c.Get(fiber.HeaderAuthorization) == "" {
			c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
		if userID != "" && c.Get("X-User-ID") == "" {
			c.Request().Header.Set("X-User-ID", userID)
		}

		log.Debug("sse auth from query",
			"path", c.Path(),
			"token_len", len(token),
			"user_id", userID,
		)
		return c.Next()
	}
}
