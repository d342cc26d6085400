package repository

import (
	"context"
	"testing"
	"time"

	"forum/internal/models"
	"forum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_DeleteCommentCascade(t *testing.T) {
	f := newPostFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()

	t.Run("Refuses comment with replies", func(t *testing.T) {
		root := testutil.CreateComment(t, f.db, f.alice, f.post, nil, "root")
		testutil.CreateComment(t, f.db, f.bob, f.post, root, "reply")

		_, err := repo.DeleteCommentCascade(ctx, root.ID)
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("Prunes tombstoned parent", func(t *testing.T) {
		root := testutil.CreateComment(t, f.db, f.alice, f.post, nil, "root")
		reply := testutil.CreateComment(t, f.db, f.bob, f.post, root, "reply")
		require.NoError(t, repo.UpdateContent(ctx, root.ID, "", time.Now().UTC()))

		pruned, err := repo.DeleteCommentCascade(ctx, reply.ID)
		require.NoError(t, err)
		require.NotNil(t, pruned)
		assert.Equal(t, root.ID, *pruned)

		_, err = repo.GetComment(ctx, root.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("Keeps live parent", func(t *testing.T) {
		root := testutil.CreateComment(t, f.db, f.alice, f.post, nil, "root")
		reply := testutil.CreateComment(t, f.db, f.bob, f.post, root, "reply")
		_, err := repo.ToggleCommentLike(ctx, f.alice.ID, reply.ID)
		require.NoError(t, err)

		pruned, err := repo.DeleteCommentCascade(ctx, reply.ID)
		require.NoError(t, err)
		assert.Nil(t, pruned)

		_, err = repo.GetComment(ctx, root.ID)
		assert.NoError(t, err)
		liked, err := repo.IsCommentLiked(ctx, f.alice.ID, reply.ID)
		require.NoError(t, err)
		assert.False(t, liked)
	})

	t.Run("Unknown comment", func(t *testing.T) {
		_, err := repo.DeleteCommentCascade(ctx, 9999)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})
}

func TestCommentRepository_ToggleCommentLike(t *testing.T) {
	f := newPostFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()
	comment := testutil.CreateComment(t, f.db, f.alice, f.post, nil, "hello")

	res, err := repo.ToggleCommentLike(ctx, f.bob.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToggleResult{Liked: true, TotalLikes: 1}, *res)

	res, err = repo.ToggleCommentLike(ctx, f.bob.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToggleResult{Liked: false, TotalLikes: 0}, *res)

	_, err = repo.ToggleCommentLike(ctx, f.bob.ID, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestCommentRepository_ListByPostAndCount(t *testing.T) {
	f := newPostFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()
	root := testutil.CreateComment(t, f.db, f.alice, f.post, nil, "root")
	testutil.CreateComment(t, f.db, f.bob, f.post, root, "one")
	testutil.CreateComment(t, f.db, f.bob, f.post, root, "two")

	n, err := repo.CountReplies(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	views, err := repo.ListByPost(ctx, f.post.ID, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Replies, 2)
	assert.Equal(t, "bob", views[0].Replies[0].User.Username)

	require.NoError(t, repo.UpdateContent(ctx, root.ID, "", time.Now().UTC()))
	views, err = repo.ListByPost(ctx, f.post.ID, 0)
	require.NoError(t, err)
	assert.True(t, views[0].Deleted)
}
