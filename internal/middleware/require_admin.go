package middleware

import (
	"crypto/subtle"

	"invitewatch-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const adminKeyHeader = "X-Admin-Key"

// RequireAdminKey gates write endpoints behind a shared admin key carried in
// the X-Admin-Key header. An empty configured key disables the endpoints
// entirely rather than leaving them open.
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return response.Error(c, "Admin endpoints are disabled", fiber.StatusForbidden)
		}
		got := c.Get(adminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}
