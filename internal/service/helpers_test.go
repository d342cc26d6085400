package service

import (
	"errors"
	"testing"
	"time"

	"forum/internal/models"
	"forum/internal/repository"
	"forum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type forumFixture struct {
	db       *gorm.DB
	posts    *PostService
	comments *CommentService
	alice    *models.User
	bob      *models.User
	admin    *models.User
	category *models.Category
	tags     []models.Tag
}

func newForumFixture(t *testing.T) *forumFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	sanitizer := NewSanitizer()

	f := &forumFixture{
		db: db,
		posts: NewPostService(
			postRepo,
			repository.NewTagRepository(db),
			repository.NewCategoryRepository(db),
			userRepo,
			sanitizer,
		),
		comments: NewCommentService(repository.NewCommentRepository(db), postRepo, userRepo, sanitizer),
		alice:    testutil.CreateUser(t, db, "alice", false),
		bob:      testutil.CreateUser(t, db, "bob", false),
		admin:    testutil.CreateUser(t, db, "root", true),
		category: testutil.CreateCategory(t, db, "General"),
	}
	f.tags = testutil.CreateTags(t, db, "Beginner", "HTML", "Go")
	return f
}

// clock returns a now func that advances a minute per call.
func clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func (f *forumFixture) createPost(t *testing.T, author *models.User, title string, tagIDs ...uint) *models.PostView {
	t.Helper()
	post, err := f.posts.CreatePost(t.Context(), CreatePostInput{
		UserID:     author.ID,
		Title:      title,
		Content:    "Body of " + title,
		CategoryID: f.category.ID,
		TagIDs:     tagIDs,
	})
	require.NoError(t, err)
	return post
}

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, models.CodeValidation, err)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, models.CodeForbidden, err)
}
