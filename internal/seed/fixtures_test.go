package seed

import (
	"context"
	"testing"

	"forum/internal/models"
	"forum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefaultFixtures(t *testing.T) {
	f, err := DefaultFixtures()
	require.NoError(t, err)
	assert.NotEmpty(t, f.Categories)
	assert.NotEmpty(t, f.Tags)

	admins := 0
	for _, u := range f.Users {
		if u.Admin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestParseFixtures_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "categories: [\n"},
		{"short category", "categories:\n  - name: x\n"},
		{"bad color", "categories:\n  - name: General\n    color: red\n"},
		{"bad tag", "tags: ['  ']\n"},
		{"reserved user", "users:\n  - userName: Anonymous\n    email: a@b.io\n    password: Sup3rSecret!!\n"},
		{"weak password", "users:\n  - userName: weak\n    email: a@b.io\n    password: short\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseFixtures_Defaults(t *testing.T) {
	f, err := ParseFixtures([]byte("categories:\n  - name: ' Plain '\nusers:\n  - userName: ' Someone '\n    email: s@b.io\n    password: Sup3rSecret!!\n"))
	require.NoError(t, err)
	assert.Equal(t, "Plain", f.Categories[0].Name)
	assert.Equal(t, "#6c757d", f.Categories[0].Color)
	assert.Equal(t, "someone", f.Users[0].UserName)
}

func TestApplyFixtures_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	f, err := ParseFixtures([]byte(`
categories:
  - name: General
    color: "#111111"
tags: [go, sql]
users:
  - userName: boss
    email: boss@forum.local
    password: Sup3rSecret!!
    admin: true
`))
	require.NoError(t, err)

	require.NoError(t, ApplyFixtures(ctx, db, f))
	f.Categories[0].Color = "#222222"
	require.NoError(t, ApplyFixtures(ctx, db, f))

	var categories []models.Category
	require.NoError(t, db.Find(&categories).Error)
	require.Len(t, categories, 1)
	assert.Equal(t, "#222222", categories[0].Color)

	var tagCount, userCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(2), tagCount)
	assert.Equal(t, int64(1), userCount)

	var boss models.User
	require.NoError(t, db.Where("username = ?", "boss").First(&boss).Error)
	assert.True(t, boss.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(boss.Password), []byte("Sup3rSecret!!")))
}
