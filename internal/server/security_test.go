package server

import (
	"net/http/httptest"
	"testing"

	"forum/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityMiddleware(t *testing.T) {
	srv := &Server{config: &config.Config{}}
	app := fiber.New()
	srv.SetupMiddleware(app)

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	t.Run("Security Headers", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
		assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
		assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	})

	t.Run("Request ID", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	})

	t.Run("Panics recover", func(t *testing.T) {
		app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
		resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}
