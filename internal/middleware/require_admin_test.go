package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminApp(key string) *fiber.App {
	app := fiber.New()
	app.Post("/write", RequireAdminKey(key), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireAdminKey_Valid(t *testing.T) {
	app := adminApp("secret")
	req := httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("X-Admin-Key", "secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdminKey_WrongKey(t *testing.T) {
	app := adminApp("secret")
	req := httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("X-Admin-Key", "nope")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdminKey_MissingKey(t *testing.T) {
	app := adminApp("secret")
	resp, err := app.Test(httptest.NewRequest("POST", "/write", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdminKey_UnconfiguredDisablesEndpoint(t *testing.T) {
	app := adminApp("")
	req := httptest.NewRequest("POST", "/write", nil)
	req.Header.Set("X-Admin-Key", "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
