package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"forum/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func adminApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Get("/admin", s.AdminRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

const adminCountQuery = `SELECT count\(\*\) FROM "users" WHERE \(?id = \$1 AND is_admin = \$2`

func TestAdminRequired_AllowsAdmin(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := &Server{userRepo: repository.NewUserRepository(gormDB)}

	mock.ExpectQuery(adminCountQuery).
		WithArgs(sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	resp, err := adminApp(s, 1).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRequired_RejectsNonAdmin(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := &Server{userRepo: repository.NewUserRepository(gormDB)}

	mock.ExpectQuery(adminCountQuery).
		WithArgs(sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	resp, err := adminApp(s, 2).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Admin access required", body["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRequired_AnonymousSkipsQuery(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := &Server{userRepo: repository.NewUserRepository(gormDB)}

	resp, err := adminApp(s, 0).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRequired_DatabaseError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := &Server{userRepo: repository.NewUserRepository(gormDB)}

	mock.ExpectQuery(adminCountQuery).
		WillReturnError(errors.New("connection reset"))

	resp, err := adminApp(s, 3).Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
