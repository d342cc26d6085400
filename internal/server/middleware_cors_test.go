package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"forum/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsApp(allowed string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: allowed}}

	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/api/Post", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/Post", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func TestCORS_DefaultOriginsWhenUnset(t *testing.T) {
	app := corsApp("")

	for _, origin := range strings.Split(config.DefaultAllowedOrigins, ",") {
		t.Run(origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/Post", nil)
			req.Header.Set("Origin", origin)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_UnknownOriginGetsNoGrant(t *testing.T) {
	app := corsApp("https://forum.example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/Post", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightAllowsBearerAndWebsocketHeaders(t *testing.T) {
	app := corsApp("https://forum.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/api/Post", nil)
	req.Header.Set("Origin", "https://forum.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://forum.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))

	allowed := resp.Header.Get("Access-Control-Allow-Headers")
	for _, h := range []string{"Authorization", "Content-Type", "Sec-WebSocket-Key", "Sec-WebSocket-Version"} {
		assert.Contains(t, allowed, h)
	}
}

func TestCORS_SurvivesRateLimitAndPreflightSkipsIt(t *testing.T) {
	const origin = "https://forum.example.com"
	app := corsApp(origin)

	post := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/Post", nil)
		req.Header.Set("Origin", origin)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}
	for i := 0; i < 100; i++ {
		resp := post()
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	limited := post()
	defer func() { _ = limited.Body.Close() }()
	assert.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	assert.Equal(t, origin, limited.Header.Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/Post", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = preflight.Body.Close() }()
	assert.Equal(t, fiber.StatusNoContent, preflight.StatusCode)
}
