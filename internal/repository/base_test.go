package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"forum/internal/models"
	"forum/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormRepository_CRUD(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository[models.Tag](db, "tags")
	ctx := context.Background()

	tag := &models.Tag{Name: "Beginner"}
	require.NoError(t, repo.Create(ctx, tag))
	require.NotZero(t, tag.ID)

	got, err := repo.GetByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beginner", got.Name)

	got.Name = "Advanced"
	require.NoError(t, repo.Update(ctx, got))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Advanced", all[0].Name)

	assert.True(t, repo.Delete(ctx, tag.ID))
	_, err = repo.GetByID(ctx, tag.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestGormRepository_DeleteUnknown(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository[models.Category](db, "categories")
	ctx := context.Background()

	assert.False(t, repo.Delete(ctx, 0))
	assert.False(t, repo.Delete(ctx, 4242))
}

func TestGormRepository_CreateDuplicate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository[models.Tag](db, "tags")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Tag{Name: "HTML"}))
	err := repo.Create(ctx, &models.Tag{Name: "HTML"})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "Tag already exists")
}

func TestGormRepository_PostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository[models.Category](db, "categories")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "categories"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Category{Name: "General", Color: "#ffffff"})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "Category already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_FailureIsWrapped(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository[models.Tag](db, "tags")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tags" ORDER BY id ASC`)).
		WillReturnError(errors.New("connection reset"))

	tags, err := repo.GetAll(context.Background())
	assert.Nil(t, tags)
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_RemoveAllPostTags_SingleStatement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM post_tags WHERE post_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RemoveAllPostTags(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_RemoveAllPostTags_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM post_tags WHERE post_id = $1`)).
		WithArgs(7).
		WillReturnError(errors.New("disk full"))

	err := repo.RemoveAllPostTags(context.Background(), 7)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "Post", resourceName("posts"))
	assert.Equal(t, "Category", resourceName("categories"))
	assert.Equal(t, "User", resourceName("users"))
}
