package repository

import (
	"context"
	"errors"
	"time"

	"forum/internal/models"

	"gorm.io/gorm"
)

// CommentQueries is the comment data access surface used by the comment service.
type CommentQueries interface {
	Repository[models.Comment]
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID, viewerID uint) ([]models.CommentView, error)
	CountReplies(ctx context.Context, id uint) (int64, error)
	UpdateContent(ctx context.Context, id uint, content string, editedAt time.Time) error
	ToggleCommentLike(ctx context.Context, userID, commentID uint) (*models.ToggleResult, error)
	IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error)
	// DeleteCommentCascade hard-deletes a reply-less comment and its likes. When
	// that leaves a tombstoned parent without replies the parent is removed too
	// and its id is returned.
	DeleteCommentCascade(ctx context.Context, id uint) (prunedParentID *uint, err error)
}

type commentRepository struct {
	*GormRepository[models.Comment]
}

// NewCommentRepository creates a new CommentQueries
func NewCommentRepository(db *gorm.DB) CommentQueries {
	return &commentRepository{GormRepository: NewRepository[models.Comment](db, "comments")}
}

func (r *commentRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, r.failLookup(ctx, "GetComment", id, err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID, viewerID uint) ([]models.CommentView, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, r.fail(ctx, "ListByPost", err)
	}
	liked, err := likedIDs(ctx, r.db, "comment_likes", "comment_id", viewerID, commentIDs(comments))
	if err != nil {
		return nil, r.fail(ctx, "ListByPost", err)
	}
	return threadComments(comments, liked), nil
}

func (r *commentRepository) CountReplies(ctx context.Context, id uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return 0, r.fail(ctx, "CountReplies", err)
	}
	return n, nil
}

// UpdateContent rewrites content and edited time. An empty content tombstones
// the comment.
func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string, editedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":   content,
		"edited_at": editedAt,
	})
	if res.Error != nil {
		return r.fail(ctx, "UpdateContent", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "tombstone": content == ""})
	return nil
}

func (r *commentRepository) ToggleCommentLike(ctx context.Context, userID, commentID uint) (*models.ToggleResult, error) {
	result, err := toggleLike(ctx, r.db, likeTarget{
		table:      "comment_likes",
		column:     "comment_id",
		owner:      &models.Comment{},
		resource:   "Comment",
		entityName: "comments",
	}, userID, commentID)
	if err != nil {
		return nil, r.fail(ctx, "ToggleCommentLike", err)
	}
	return result, nil
}

func (r *commentRepository) IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	liked, err := likedIDs(ctx, r.db, "comment_likes", "comment_id", userID, []uint{commentID})
	if err != nil {
		return false, r.fail(ctx, "IsCommentLiked", err)
	}
	return liked[commentID], nil
}

func (r *commentRepository) DeleteCommentCascade(ctx context.Context, id uint) (*uint, error) {
	var pruned *uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Comment", id)
			}
			return err
		}

		var replies int64
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", id).Count(&replies).Error; err != nil {
			return err
		}
		if replies > 0 {
			return models.NewValidationError("comment has replies and cannot be removed")
		}

		if err := deleteCommentRow(tx, id); err != nil {
			return err
		}

		if comment.ParentID == nil {
			return nil
		}
		var parent models.Comment
		if err := tx.First(&parent, *comment.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !parent.IsTombstone() {
			return nil
		}
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", parent.ID).Count(&replies).Error; err != nil {
			return err
		}
		if replies > 0 {
			return nil
		}
		if err := deleteCommentRow(tx, parent.ID); err != nil {
			return err
		}
		pruned = &parent.ID
		return nil
	})
	if err != nil {
		return nil, r.fail(ctx, "DeleteCommentCascade", err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return pruned, nil
}

func deleteCommentRow(tx *gorm.DB, id uint) error {
	if err := tx.Exec("DELETE FROM comment_likes WHERE comment_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Exec("DELETE FROM comments WHERE id = ?", id).Error
}
