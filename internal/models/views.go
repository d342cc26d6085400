package models

// PostView is the per-viewer projection of a Post. IsLiked is computed for the
// requesting user and never stored.
type PostView struct {
	*Post
	IsLiked      bool          `json:"isLiked"`
	CommentCount int           `json:"commentCount"`
	Comments     []CommentView `json:"comments,omitempty"`
}

// CommentView is the per-viewer projection of a Comment with its direct replies.
type CommentView struct {
	*Comment
	IsLiked bool          `json:"isLiked"`
	Deleted bool          `json:"deleted"`
	Replies []CommentView `json:"replies,omitempty"`
}

// UserActivity aggregates a user's authored and liked content.
type UserActivity struct {
	User          *Account  `json:"user"`
	Posts         []Post    `json:"posts"`
	Comments      []Comment `json:"comments"`
	LikedPosts    []Post    `json:"likedPosts"`
	LikedComments []Comment `json:"likedComments"`
}

// LikedPostSet returns the ids of liked posts as a set.
func (a *UserActivity) LikedPostSet() map[uint]bool {
	set := make(map[uint]bool, len(a.LikedPosts))
	for _, p := range a.LikedPosts {
		set[p.ID] = true
	}
	return set
}

// LikedCommentSet returns the ids of liked comments as a set.
func (a *UserActivity) LikedCommentSet() map[uint]bool {
	set := make(map[uint]bool, len(a.LikedComments))
	for _, c := range a.LikedComments {
		set[c.ID] = true
	}
	return set
}

// ToggleResult reports the outcome of a like toggle.
type ToggleResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}
