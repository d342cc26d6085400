package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"forum/internal/featureflags"
	"forum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"commentId", "comment ID"},
		{"parentCommentId", "parent comment ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- statusFor ---

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.NewNotFoundError("Post", 1), http.StatusNotFound},
		{"forbidden", models.NewForbiddenError("no"), http.StatusForbidden},
		{"validation", models.NewValidationError("bad"), http.StatusBadRequest},
		{"upload", models.NewUploadRejectedError("big"), http.StatusBadRequest},
		{"unprocessable", models.NewUnprocessableError("reserved"), http.StatusUnprocessableEntity},
		{"unauthorized", models.NewUnauthorizedError("who"), http.StatusUnauthorized},
		{"internal", models.NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"foreign", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError_HidesForeignCause(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/fail", func(c *fiber.Ctx) error {
		return s.respondError(c, errors.New("dial tcp: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.Empty(t, body.Details)
}

// --- parseID ---

func TestParseID_ValidID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(42), body["id"])
}

func TestParseID_Rejects(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-3"} {
		t.Run(raw, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:id", func(c *fiber.Ctx) error {
				_, _ = s.parseID(c, "id")
				return nil
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+raw, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "Invalid ID", body["error"])
		})
	}
}

func TestParseID_ContextSpecificErrorMessage(t *testing.T) {
	tests := []struct {
		param       string
		expectedMsg string
	}{
		{"id", "Invalid ID"},
		{"userId", "Invalid user ID"},
		{"commentId", "Invalid comment ID"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				_, _ = s.parseID(c, tt.param)
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/items/abc", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedMsg, body["error"])
		})
	}
}

// --- flagEnabled ---

func TestFlagEnabled(t *testing.T) {
	s := &Server{}
	assert.True(t, s.flagEnabled(FlagRealtime, 0), "no manager keeps flags on")

	s.featureFlags = featureflags.NewManager("registration=off").
		WithDefault(FlagRegistration, true).
		WithDefault(FlagRealtime, true)
	assert.False(t, s.flagEnabled(FlagRegistration, 0))
	assert.True(t, s.flagEnabled(FlagRealtime, 0))
}
