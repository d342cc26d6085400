package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_ResolvesTags(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	post, err := f.posts.CreatePost(ctx, CreatePostInput{
		UserID:     f.alice.ID,
		Title:      "Intro to markup",
		Content:    "Hello <b>world</b><script>alert(1)</script>",
		CategoryID: f.category.ID,
		TagIDs:     []uint{f.tags[0].ID, f.tags[1].ID, 9999},
	})
	require.NoError(t, err)

	var names []string
	for _, tag := range post.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"Beginner", "HTML"}, names)
	assert.Equal(t, "Hello <b>world</b>", post.Content)
	assert.Equal(t, "alice", post.User.Username)
	assert.False(t, post.CreatedAt.IsZero())
	assert.Equal(t, post.CreatedAt, post.EditedAt)
	assert.Zero(t, post.TotalLikes)

	var owned int64
	require.NoError(t, f.db.Model(&models.Post{}).Where("user_id = ?", f.alice.ID).Count(&owned).Error)
	assert.Equal(t, int64(1), owned)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"Missing title", CreatePostInput{Content: "body", CategoryID: f.category.ID}},
		{"Script-only content", CreatePostInput{Title: "t", Content: "<script>x</script>", CategoryID: f.category.ID}},
		{"Title too long", CreatePostInput{Title: strings.Repeat("x", 201), Content: "body", CategoryID: f.category.ID}},
		{"Missing category", CreatePostInput{Title: "t", Content: "body"}},
		{"Unknown category", CreatePostInput{Title: "t", Content: "body", CategoryID: 9999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = f.alice.ID
			_, err := f.posts.CreatePost(ctx, tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_ListPosts_Sorting(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	_, err := f.posts.ListPosts(ctx, "", 0)
	assertCode(t, models.CodeNotFound, err)

	f.posts.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	first := f.createPost(t, f.alice, "first")
	second := f.createPost(t, f.alice, "second")
	third := f.createPost(t, f.bob, "third")

	for _, u := range []*models.User{f.alice, f.bob} {
		_, err := f.posts.ToggleLike(ctx, u.ID, second.ID)
		require.NoError(t, err)
	}
	_, err = f.posts.ToggleLike(ctx, f.bob.ID, third.ID)
	require.NoError(t, err)
	_, err = f.comments.CreateComment(ctx, CreateCommentInput{UserID: f.bob.ID, PostID: first.ID, Content: "hi"})
	require.NoError(t, err)

	ids := func(views []models.PostView) []uint {
		out := make([]uint, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	tests := []struct {
		sortBy string
		want   []uint
	}{
		{"newest", []uint{third.ID, second.ID, first.ID}},
		{"", []uint{third.ID, second.ID, first.ID}},
		{"bogus", []uint{third.ID, second.ID, first.ID}},
		{"oldest", []uint{first.ID, second.ID, third.ID}},
		{"likes", []uint{second.ID, third.ID, first.ID}},
		{"leastlikes", []uint{first.ID, third.ID, second.ID}},
		{"comments", []uint{first.ID, third.ID, second.ID}},
		{"leastcomments", []uint{third.ID, second.ID, first.ID}},
	}
	for _, tt := range tests {
		t.Run("sortBy="+tt.sortBy, func(t *testing.T) {
			views, err := f.posts.ListPosts(ctx, tt.sortBy, f.bob.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(views))
		})
	}

	views, err := f.posts.ListPosts(ctx, "likes", 0)
	require.NoError(t, err)
	for i := 1; i < len(views); i++ {
		assert.GreaterOrEqual(t, views[i-1].TotalLikes, views[i].TotalLikes)
	}
	views, err = f.posts.ListPosts(ctx, "oldest", 0)
	require.NoError(t, err)
	for i := 1; i < len(views); i++ {
		assert.False(t, views[i].CreatedAt.Before(views[i-1].CreatedAt))
	}
}

func TestPostService_SearchPosts(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Concurrency in practice", f.tags[2].ID)

	for _, term := range []string{"", "   ", "c", " g "} {
		views, err := f.posts.SearchPosts(ctx, term, 0)
		require.NoError(t, err, "term %q", term)
		assert.Empty(t, views, "term %q", term)
	}

	views, err := f.posts.SearchPosts(ctx, "go", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, post.ID, views[0].ID)

	_, err = f.posts.SearchPosts(ctx, "nothing-like-this", 0)
	assertCode(t, models.CodeNotFound, err)
}

func TestPostService_ToggleLike_TwoUsers(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "P", f.tags[0].ID, f.tags[1].ID)

	res, err := f.posts.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToggleResult{Liked: true, TotalLikes: 1}, *res)

	res, err = f.posts.ToggleLike(ctx, f.bob.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalLikes)

	res, err = f.posts.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToggleResult{Liked: false, TotalLikes: 1}, *res)

	asAlice, err := f.posts.GetPost(ctx, post.ID, f.alice.ID)
	require.NoError(t, err)
	assert.False(t, asAlice.IsLiked)
	asBob, err := f.posts.GetPost(ctx, post.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, asBob.IsLiked)
	assert.Equal(t, 1, asBob.TotalLikes)

	_, err = f.posts.ToggleLike(ctx, f.bob.ID, 9999)
	assertCode(t, models.CodeNotFound, err)
}

func TestPostService_UpdatePost(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Original", f.tags[0].ID)
	help := f.category

	t.Run("Non-owner is forbidden and post unchanged", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, UpdatePostInput{
			UserID: f.bob.ID, PostID: post.ID, Title: "Hijacked", Content: "x",
			CategoryID: help.ID, TagIDs: []uint{f.tags[1].ID},
		})
		assertForbiddenError(t, err)

		view, err := f.posts.GetPost(ctx, post.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, "Original", view.Title)
		require.Len(t, view.Tags, 1)
		assert.Equal(t, "Beginner", view.Tags[0].Name)
	})

	t.Run("Tag list is required", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, UpdatePostInput{
			UserID: f.alice.ID, PostID: post.ID, Title: "t", Content: "x", CategoryID: help.ID,
		})
		assertValidationError(t, err)
	})

	t.Run("Owner rewrites fields and tags", func(t *testing.T) {
		before, err := f.posts.GetPost(ctx, post.ID, 0)
		require.NoError(t, err)

		view, err := f.posts.UpdatePost(ctx, UpdatePostInput{
			UserID: f.alice.ID, PostID: post.ID, Title: "Renamed", Content: "<i>new</i>",
			CategoryID: help.ID, TagIDs: []uint{f.tags[1].ID, f.tags[2].ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", view.Title)
		assert.Equal(t, "<i>new</i>", view.Content)
		assert.Len(t, view.Tags, 2)
		assert.False(t, view.EditedAt.Before(before.EditedAt))
	})

	t.Run("Admin may update", func(t *testing.T) {
		view, err := f.posts.UpdatePost(ctx, UpdatePostInput{
			UserID: f.admin.ID, PostID: post.ID, Title: "Moderated", Content: "x",
			CategoryID: help.ID, TagIDs: []uint{f.tags[0].ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "Moderated", view.Title)
	})

	t.Run("Unknown post", func(t *testing.T) {
		_, err := f.posts.UpdatePost(ctx, UpdatePostInput{
			UserID: f.alice.ID, PostID: 9999, Title: "t", Content: "x",
			CategoryID: help.ID, TagIDs: []uint{f.tags[0].ID},
		})
		assertCode(t, models.CodeNotFound, err)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Doomed", f.tags[0].ID)
	_, err := f.comments.CreateComment(ctx, CreateCommentInput{UserID: f.bob.ID, PostID: post.ID, Content: "hi"})
	require.NoError(t, err)

	err = f.posts.DeletePost(ctx, DeletePostInput{UserID: f.bob.ID, PostID: post.ID})
	assertForbiddenError(t, err)
	_, err = f.posts.GetPost(ctx, post.ID, 0)
	require.NoError(t, err, "post survives a forbidden delete")

	err = f.posts.DeletePost(ctx, DeletePostInput{UserID: 0, PostID: post.ID})
	assertForbiddenError(t, err)

	require.NoError(t, f.posts.DeletePost(ctx, DeletePostInput{UserID: f.admin.ID, PostID: post.ID}))
	_, err = f.posts.GetPost(ctx, post.ID, 0)
	assertCode(t, models.CodeNotFound, err)

	err = f.posts.DeletePost(ctx, DeletePostInput{UserID: f.alice.ID, PostID: post.ID})
	assertCode(t, models.CodeNotFound, err)
}
