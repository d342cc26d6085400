package repository

import (
	"context"

	"forum/internal/models"

	"gorm.io/gorm"
)

// likedIDs returns the subset of ids the viewer has liked, read from a like
// join table. Anonymous viewers (id 0) have liked nothing.
func likedIDs(ctx context.Context, db *gorm.DB, table, column string, viewerID uint, ids []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == 0 || len(ids) == 0 {
		return set, nil
	}
	var liked []uint
	err := db.WithContext(ctx).Table(table).
		Where("user_id = ? AND "+column+" IN ?", viewerID, ids).
		Pluck(column, &liked).Error
	if err != nil {
		return nil, err
	}
	for _, id := range liked {
		set[id] = true
	}
	return set, nil
}

// annotatePosts projects posts for a viewer.
func annotatePosts(posts []models.Post, liked map[uint]bool) []models.PostView {
	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		views = append(views, models.PostView{
			Post:         p,
			IsLiked:      liked[p.ID],
			CommentCount: p.CommentCount(),
		})
	}
	return views
}

// threadComments nests a post's flat comment list one level deep. Replies
// whose parent is itself a reply are attached to the thread root. Input order
// is preserved within each level.
func threadComments(comments []models.Comment, liked map[uint]bool) []models.CommentView {
	parentOf := make(map[uint]*uint, len(comments))
	for i := range comments {
		parentOf[comments[i].ID] = comments[i].ParentID
	}
	rootOf := func(id uint) uint {
		seen := 0
		for {
			parent := parentOf[id]
			if parent == nil || seen > len(comments) {
				return id
			}
			if _, ok := parentOf[*parent]; !ok {
				return id
			}
			id = *parent
			seen++
		}
	}

	var roots []models.CommentView
	index := make(map[uint]int)
	var replies []*models.Comment
	for i := range comments {
		c := &comments[i]
		if rootOf(c.ID) != c.ID {
			replies = append(replies, c)
			continue
		}
		index[c.ID] = len(roots)
		roots = append(roots, commentView(c, liked))
	}
	for _, c := range replies {
		pos := index[rootOf(c.ID)]
		roots[pos].Replies = append(roots[pos].Replies, commentView(c, liked))
	}
	return roots
}

func commentView(c *models.Comment, liked map[uint]bool) models.CommentView {
	c.Replies = nil
	return models.CommentView{
		Comment: c,
		IsLiked: liked[c.ID],
		Deleted: c.IsTombstone(),
	}
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func commentIDs(comments []models.Comment) []uint {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}
