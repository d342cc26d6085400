package repository

import (
	"context"
	"testing"

	"forum/internal/cache"
	"forum/internal/models"
	"forum/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", true)

	byName, err := repo.GetByIdentifier(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := repo.GetByIdentifier(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	admin, err := repo.IsAdmin(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, admin)
	admin, err = repo.IsAdmin(ctx, 0)
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestUserRepository_GetUserActivity(t *testing.T) {
	f := newPostFixture(t)
	users := NewUserRepository(f.db)
	posts := NewPostRepository(f.db)
	comments := NewCommentRepository(f.db)
	ctx := context.Background()

	comment := testutil.CreateComment(t, f.db, f.bob, f.post, nil, "first")
	_, err := posts.TogglePostLike(ctx, f.bob.ID, f.post.ID)
	require.NoError(t, err)
	_, err = comments.ToggleCommentLike(ctx, f.bob.ID, comment.ID)
	require.NoError(t, err)

	activity, err := users.GetUserActivity(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", activity.User.Username)
	assert.Empty(t, activity.Posts)
	assert.Len(t, activity.Comments, 1)
	assert.True(t, activity.LikedPostSet()[f.post.ID])
	assert.True(t, activity.LikedCommentSet()[comment.ID])

	ids, err := users.LikedPostIDs(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.post.ID}, ids)
	ids, err = users.LikedCommentIDs(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = users.GetUserActivity(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestCatalogRepositories(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer cache.Close()

	db := testutil.NewSQLiteDB(t)
	tags := NewTagRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()
	created := testutil.CreateTags(t, db, "Beginner", "HTML")

	found, err := tags.FindByIDs(ctx, []uint{created[1].ID, 9999})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "HTML", found[0].Name)

	list, err := tags.ListCached(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, mr.Exists(cache.TagsListKey))

	general := testutil.CreateCategory(t, db, "General")
	cats, err := categories.ListCached(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	n, err := categories.CountPosts(ctx, general.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
