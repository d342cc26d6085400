// Package testutil provides an in-memory database and fixture builders for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"forum/internal/database"
	"forum/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB returns a migrated private in-memory database with foreign keys
// enforced.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:forumtest%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.ApplySchema(context.Background(), db))
	return db
}

// CreateUser inserts a user whose password is "Password123!".
func CreateUser(t *testing.T, db *gorm.DB, username string, admin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsAdmin:  admin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Color: "#123456"}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateTags inserts one tag per name.
func CreateTags(t *testing.T, db *gorm.DB, names ...string) []models.Tag {
	t.Helper()
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag := models.Tag{Name: name}
		require.NoError(t, db.Create(&tag).Error)
		tags = append(tags, tag)
	}
	return tags
}

// CreatePost inserts a post created at the given time with tags attached.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, category *models.Category, title string, createdAt time.Time, tags ...models.Tag) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:      title,
		Content:    "content of " + title,
		CreatedAt:  createdAt,
		EditedAt:   createdAt,
		UserID:     author.ID,
		CategoryID: category.ID,
		Tags:       tags,
	}
	require.NoError(t, db.Omit("Tags.*").Create(post).Error)
	return post
}

// CreateComment inserts a comment, optionally as a reply to parent.
func CreateComment(t *testing.T, db *gorm.DB, author *models.User, post *models.Post, parent *models.Comment, content string) *models.Comment {
	t.Helper()
	now := time.Now().UTC()
	comment := &models.Comment{
		Content:   content,
		CreatedAt: now,
		EditedAt:  now,
		PostID:    post.ID,
		UserID:    author.ID,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}
