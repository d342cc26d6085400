// Package service holds the forum's business logic: post and comment
// orchestration, likes, accounts, the admin dashboard and uploads.
package service

import (
	"context"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"
	"forum/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// MinSearchTermLength is the shortest term SearchPosts sends to the database.
const MinSearchTermLength = 2

type PostService struct {
	postRepo     repository.PostQueries
	tagRepo      repository.TagRepository
	categoryRepo repository.CategoryRepository
	sanitizer    *Sanitizer
	isAdmin      func(ctx context.Context, userID uint) (bool, error)
	now          func() time.Time
}

type CreatePostInput struct {
	UserID     uint   `json:"-"`
	Title      string `json:"title" validate:"notblank,max=200"`
	Content    string `json:"content" validate:"notblank,max=50000"`
	CategoryID uint   `json:"categoryId" validate:"required"`
	TagIDs     []uint `json:"tagIds"`
}

type UpdatePostInput struct {
	UserID     uint   `json:"-"`
	PostID     uint   `json:"-"`
	Title      string `json:"title" validate:"notblank,max=200"`
	Content    string `json:"content" validate:"notblank,max=50000"`
	CategoryID uint   `json:"categoryId" validate:"required"`
	TagIDs     []uint `json:"tagIds" validate:"min=1"`
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostQueries,
	tagRepo repository.TagRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	sanitizer *Sanitizer,
) *PostService {
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	return &PostService{
		postRepo:     postRepo,
		tagRepo:      tagRepo,
		categoryRepo: categoryRepo,
		sanitizer:    sanitizer,
		isAdmin:      userRepo.IsAdmin,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ListPosts returns every post for the viewer in sortBy order. An empty forum
// is NOT_FOUND.
func (s *PostService) ListPosts(ctx context.Context, sortBy string, viewerID uint) ([]models.PostView, error) {
	posts, err := s.postRepo.GetAllPosts(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, models.NewNotFoundError("Post", "any")
	}
	SortPosts(posts, sortBy)
	return posts, nil
}

// SearchPosts returns posts matching term. Blank or too-short terms are a
// no-op: an empty result without error. A real search with no match is
// NOT_FOUND.
func (s *PostService) SearchPosts(ctx context.Context, term string, viewerID uint) ([]models.PostView, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchTermLength {
		return []models.PostView{}, nil
	}
	return s.postRepo.GetAllPostsByTerm(ctx, term, viewerID)
}

// GetPost returns a post with its threaded comments.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.PostView, error) {
	return s.postRepo.GetPostByID(ctx, id, viewerID)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "CreatePost", attribute.Int("user.id", int(in.UserID)))
	defer span.End(&err)

	in.Title = s.sanitizer.Plain(in.Title)
	in.Content = s.sanitizer.Content(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	tags, err := s.tagRepo.FindByIDs(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		CreatedAt:  now,
		EditedAt:   now,
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
	}
	if err := s.postRepo.CreatePostWithTags(ctx, post, tags); err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("post", "create").Inc()
	return s.postRepo.GetPostByID(ctx, post.ID, in.UserID)
}

// UpdatePost rewrites title, content, category and tags of an owned post.
// The full tag id list is required; unknown ids are dropped.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (_ *models.PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "UpdatePost", attribute.Int("post.id", int(in.PostID)))
	defer span.End(&err)

	in.Title = s.sanitizer.Plain(in.Title)
	in.Content = s.sanitizer.Content(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetCanonical(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(ctx, post.UserID, in.UserID, "You can only update your own posts"); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	tags, err := s.tagRepo.FindByIDs(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.CategoryID = in.CategoryID
	post.EditedAt = s.now()
	if err := s.postRepo.UpdatePostWithTags(ctx, post, tags); err != nil {
		return nil, err
	}

	observability.ContentEvents.WithLabelValues("post", "update").Inc()
	return s.postRepo.GetPostByID(ctx, post.ID, in.UserID)
}

// DeletePost removes an owned post with its comments, tags and likes. Anyone
// else gets FORBIDDEN.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "DeletePost", attribute.Int("post.id", int(in.PostID)))
	defer span.End(&err)

	post, err := s.postRepo.GetCanonical(ctx, in.PostID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrAdmin(ctx, post.UserID, in.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	if err := s.postRepo.DeletePostCascade(ctx, post.ID); err != nil {
		return err
	}

	observability.ContentEvents.WithLabelValues("post", "delete").Inc()
	return nil
}

// ToggleLike likes the post for userID, or unlikes it if already liked.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (_ *models.ToggleResult, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "ToggleLike", attribute.Int("post.id", int(postID)))
	defer span.End(&err)

	result, err := s.postRepo.TogglePostLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	observability.RecordLikeToggle("post", result.Liked)
	return result, nil
}

func (s *PostService) requireCategory(ctx context.Context, categoryID uint) error {
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if models.IsNotFound(err) {
			return models.NewValidationError("Category does not exist")
		}
		return err
	}
	return nil
}

func (s *PostService) requireOwnerOrAdmin(ctx context.Context, ownerID, userID uint, message string) error {
	return requireOwnerOrAdmin(ctx, s.isAdmin, ownerID, userID, message)
}

func requireOwnerOrAdmin(
	ctx context.Context,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	ownerID, userID uint,
	message string,
) error {
	if userID != 0 && ownerID == userID {
		return nil
	}
	if isAdmin == nil || userID == 0 {
		return models.NewForbiddenError(message)
	}
	admin, err := isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(message)
	}
	return nil
}
