package service

import (
	"context"
	"time"

	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"
	"forum/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	commentRepo repository.CommentQueries
	postRepo    repository.PostQueries
	sanitizer   *Sanitizer
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
	now         func() time.Time
}

type CreateCommentInput struct {
	UserID   uint   `json:"-"`
	PostID   uint   `json:"-"`
	Content  string `json:"content" validate:"notblank,max=10000"`
	ParentID *uint  `json:"parentId,omitempty"`
}

type UpdateCommentInput struct {
	UserID    uint   `json:"-"`
	CommentID uint   `json:"-"`
	Content   string `json:"content" validate:"notblank,max=10000"`
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// DeleteCommentResult describes what DeleteComment did. A comment with
// replies is tombstoned; otherwise it is removed, and PrunedParentID names a
// tombstoned parent that went with it.
type DeleteCommentResult struct {
	Comment        *models.Comment `json:"comment"`
	Tombstoned     bool            `json:"tombstoned"`
	PrunedParentID *uint           `json:"prunedParentId,omitempty"`
}

func NewCommentService(
	commentRepo repository.CommentQueries,
	postRepo repository.PostQueries,
	userRepo repository.UserRepository,
	sanitizer *Sanitizer,
) *CommentService {
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		sanitizer:   sanitizer,
		isAdmin:     userRepo.IsAdmin,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateComment adds a comment to a post. Replies to a reply are attached to
// the thread root so threads stay one level deep.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (_ *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService", "CreateComment", attribute.Int("post.id", int(in.PostID)))
	defer span.End(&err)

	if _, err := s.postRepo.GetCanonical(ctx, in.PostID); err != nil {
		return nil, err
	}

	in.Content = s.sanitizer.Content(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	parentID, err := s.resolveParent(ctx, in.PostID, in.ParentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		Content:   in.Content,
		CreatedAt: now,
		EditedAt:  now,
		PostID:    in.PostID,
		UserID:    in.UserID,
		ParentID:  parentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("comment", "create").Inc()
	return s.commentRepo.GetComment(ctx, comment.ID)
}

func (s *CommentService) resolveParent(ctx context.Context, postID uint, parentID *uint) (*uint, error) {
	if parentID == nil || *parentID == 0 {
		return nil, nil
	}
	parent, err := s.commentRepo.GetComment(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if parent.PostID != postID {
		return nil, models.NewValidationError("Parent comment belongs to another post")
	}
	if parent.ParentID != nil {
		root := *parent.ParentID
		return &root, nil
	}
	return &parent.ID, nil
}

// ListComments returns the threaded comments of a post.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]models.CommentView, error) {
	if _, err := s.postRepo.GetCanonical(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, viewerID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (_ *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService", "UpdateComment", attribute.Int("comment.id", int(in.CommentID)))
	defer span.End(&err)

	comment, err := s.commentRepo.GetComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, comment.UserID, in.UserID, "You can only update your own comments"); err != nil {
		return nil, err
	}
	if comment.IsTombstone() {
		return nil, models.NewValidationError("Deleted comments cannot be edited")
	}

	in.Content = s.sanitizer.Content(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, comment.ID, in.Content, s.now()); err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("comment", "update").Inc()
	return s.commentRepo.GetComment(ctx, comment.ID)
}

// DeleteComment hard-deletes a comment without replies and tombstones one
// with replies.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (_ *DeleteCommentResult, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService", "DeleteComment", attribute.Int("comment.id", int(in.CommentID)))
	defer span.End(&err)

	comment, err := s.commentRepo.GetComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(ctx, s.isAdmin, comment.UserID, in.UserID, "You can only delete your own comments"); err != nil {
		return nil, err
	}

	replies, err := s.commentRepo.CountReplies(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	if replies == 0 {
		pruned, err := s.commentRepo.DeleteCommentCascade(ctx, comment.ID)
		switch {
		case err == nil:
			observability.ContentEvents.WithLabelValues("comment", "delete").Inc()
			return &DeleteCommentResult{Comment: comment, PrunedParentID: pruned}, nil
		case models.ErrorCode(err) != models.CodeValidation:
			return nil, err
		}
		// a reply arrived in between; fall through to the tombstone
	}

	editedAt := s.now()
	if err := s.commentRepo.UpdateContent(ctx, comment.ID, "", editedAt); err != nil {
		return nil, err
	}
	comment.Content = ""
	comment.EditedAt = editedAt

	observability.ContentEvents.WithLabelValues("comment", "tombstone").Inc()
	return &DeleteCommentResult{Comment: comment, Tombstoned: true}, nil
}

// ToggleLike likes the comment for userID, or unlikes it if already liked.
func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID uint) (_ *models.ToggleResult, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService", "ToggleLike", attribute.Int("comment.id", int(commentID)))
	defer span.End(&err)

	result, err := s.commentRepo.ToggleCommentLike(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	observability.RecordLikeToggle("comment", result.Liked)
	return result, nil
}
