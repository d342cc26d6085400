package service

import (
	"context"
	"strings"

	"forum/internal/cache"
	"forum/internal/models"
	"forum/internal/repository"
	"forum/internal/validation"
)

// DashboardService is the admin surface over categories and tags. Callers
// enforce the admin role.
type DashboardService struct {
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
	activity     repository.UserActivityQueries
	images       *ImageService
}

// DefaultCategoryColor is used when a category is saved without a color.
const DefaultCategoryColor = "#6c757d"

type CategoryInput struct {
	Name  string `json:"name" form:"name" validate:"entityname"`
	Color string `json:"color" form:"color" validate:"omitempty,rgbcolor"`
	// PictureURL references an externally hosted picture.
	PictureURL string `json:"pictureUrl,omitempty" form:"pictureUrl" validate:"omitempty,url"`
	// Picture holds upload bytes; it is never persisted on the row.
	Picture []byte `json:"-" form:"-"`
}

func (in *CategoryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.ToLower(strings.TrimSpace(in.Color))
	if in.Color == "" {
		in.Color = DefaultCategoryColor
	}
}

type TagInput struct {
	Name string `json:"name" validate:"entityname"`
}

func NewDashboardService(
	categoryRepo repository.CategoryRepository,
	tagRepo repository.TagRepository,
	activity repository.UserActivityQueries,
	images *ImageService,
) *DashboardService {
	return &DashboardService{
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
		activity:     activity,
		images:       images,
	}
}

func (s *DashboardService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.ListCached(ctx)
}

func (s *DashboardService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *DashboardService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	picture, err := s.stagePicture(in)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: in.Name, Color: in.Color, PicturePath: picture}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if len(in.Picture) > 0 {
			s.images.RemoveLocal(ctx, picture)
		}
		return nil, err
	}

	cache.InvalidateCategories(ctx)
	return category, nil
}

// UpdateCategory rewrites a category. A new picture replaces the old one,
// whose local file is removed once the row is saved.
func (s *DashboardService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := category.PicturePath
	picture := previous
	if len(in.Picture) > 0 || in.PictureURL != "" {
		if picture, err = s.stagePicture(in); err != nil {
			return nil, err
		}
	}

	category.Name = in.Name
	category.Color = in.Color
	category.PicturePath = picture
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if picture != previous && len(in.Picture) > 0 {
			s.images.RemoveLocal(ctx, picture)
		}
		return nil, err
	}

	if picture != previous {
		s.images.RemoveLocal(ctx, previous)
	}
	cache.InvalidateCategories(ctx)
	return category, nil
}

// DeleteCategory removes a category without posts and its local picture.
func (s *DashboardService) DeleteCategory(ctx context.Context, id uint) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	posts, err := s.categoryRepo.CountPosts(ctx, id)
	if err != nil {
		return err
	}
	if posts > 0 {
		return models.NewValidationError("Category still has posts")
	}
	if !s.categoryRepo.Delete(ctx, id) {
		return models.NewNotFoundError("Category", id)
	}

	s.images.RemoveLocal(ctx, category.PicturePath)
	cache.InvalidateCategories(ctx)
	return nil
}

// DeleteCategoryPicture clears the picture reference, then removes the file
// if it was hosted locally.
func (s *DashboardService) DeleteCategoryPicture(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := category.PicturePath
	if previous == "" {
		return category, nil
	}

	category.PicturePath = ""
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.images.RemoveLocal(ctx, previous)
	cache.InvalidateCategories(ctx)
	return category, nil
}

// stagePicture resolves the picture reference for in: uploaded bytes win over
// an external URL.
func (s *DashboardService) stagePicture(in CategoryInput) (string, error) {
	if len(in.Picture) > 0 {
		return s.images.SaveCategoryPicture(in.Picture)
	}
	return strings.TrimSpace(in.PictureURL), nil
}

func (s *DashboardService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tagRepo.ListCached(ctx)
}

func (s *DashboardService) CreateTag(ctx context.Context, in TagInput) (*models.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: in.Name}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return tag, nil
}

func (s *DashboardService) UpdateTag(ctx context.Context, id uint, in TagInput) (*models.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tag.Name = in.Name
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return tag, nil
}

// DeleteTag unlinks the tag from every post, then removes it.
func (s *DashboardService) DeleteTag(ctx context.Context, id uint) error {
	if _, err := s.tagRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.tagRepo.Unlink(ctx, id); err != nil {
		return err
	}
	if !s.tagRepo.Delete(ctx, id) {
		return models.NewNotFoundError("Tag", id)
	}
	cache.InvalidateTags(ctx)
	return nil
}

// UserActivity returns everything a user wrote or liked.
func (s *DashboardService) UserActivity(ctx context.Context, userID uint) (*models.UserActivity, error) {
	return s.activity.GetUserActivity(ctx, userID)
}
