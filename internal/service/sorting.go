package service

import (
	"sort"
	"strings"

	"forum/internal/models"
)

// Sort keys accepted by ListPosts.
const (
	SortNewest        = "newest"
	SortOldest        = "oldest"
	SortLikes         = "likes"
	SortLeastLikes    = "leastlikes"
	SortComments      = "comments"
	SortLeastComments = "leastcomments"
)

// SortPosts orders posts in place. Unknown or empty keys sort newest first.
// Ties keep the newest post first.
func SortPosts(posts []models.PostView, sortBy string) {
	var less func(a, b models.PostView) bool
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case SortOldest:
		less = func(a, b models.PostView) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortLikes:
		less = func(a, b models.PostView) bool { return a.TotalLikes > b.TotalLikes }
	case SortLeastLikes:
		less = func(a, b models.PostView) bool { return a.TotalLikes < b.TotalLikes }
	case SortComments:
		less = func(a, b models.PostView) bool { return a.CommentCount > b.CommentCount }
	case SortLeastComments:
		less = func(a, b models.PostView) bool { return a.CommentCount < b.CommentCount }
	default:
		less = func(a, b models.PostView) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if less(posts[i], posts[j]) {
			return true
		}
		if less(posts[j], posts[i]) {
			return false
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
