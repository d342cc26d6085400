package bootstrap

import (
	"context"
	"testing"

	"forum/internal/config"
	"forum/internal/models"
	"forum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDevAdmin_Creates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		Env:              "development",
		DevAdminUsername: "Root",
		DevAdminPassword: "Sup3rSecret!!",
	}

	require.NoError(t, EnsureDevAdmin(context.Background(), cfg, db))

	var admin models.User
	require.NoError(t, db.Where("username = ?", "root").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, "admin@forum.local", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("Sup3rSecret!!")))
}

func TestEnsureDevAdmin_PromotesExisting(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	existing := testutil.CreateUser(t, db, "admin", false)
	cfg := &config.Config{Env: "development", DevAdminPassword: "An0ther!Secret"}

	require.NoError(t, EnsureDevAdmin(context.Background(), cfg, db))

	var admin models.User
	require.NoError(t, db.First(&admin, existing.ID).Error)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("An0ther!Secret")))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureDevAdmin_Skips(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"production", &config.Config{Env: "production", DevAdminPassword: "Sup3rSecret!!"}},
		{"no password", &config.Config{Env: "development"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewSQLiteDB(t)
			require.NoError(t, EnsureDevAdmin(context.Background(), tt.cfg, db))

			var count int64
			require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestEnsureDevAdmin_InvalidUsername(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{Env: "development", DevAdminUsername: "no spaces", DevAdminPassword: "Sup3rSecret!!"}
	assert.Error(t, EnsureDevAdmin(context.Background(), cfg, db))
}
