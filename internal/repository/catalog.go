package repository

import (
	"context"

	"forum/internal/cache"
	"forum/internal/models"

	"gorm.io/gorm"
)

// TagRepository manages tags. ListCached serves the public tag list.
type TagRepository interface {
	Repository[models.Tag]
	// FindByIDs returns the existing tags among ids; unknown ids are dropped.
	FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	ListCached(ctx context.Context) ([]models.Tag, error)
	// Unlink removes the tag from every post before deletion.
	Unlink(ctx context.Context, id uint) error
}

// CategoryRepository manages categories.
type CategoryRepository interface {
	Repository[models.Category]
	ListCached(ctx context.Context) ([]models.Category, error)
	CountPosts(ctx context.Context, id uint) (int64, error)
}

type tagRepository struct {
	*GormRepository[models.Tag]
}

// NewTagRepository returns the tag repository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{GormRepository: NewRepository[models.Tag](db, "tags")}
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, r.fail(ctx, "FindByIDs", err)
	}
	return tags, nil
}

func (r *tagRepository) ListCached(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagsListKey, &tags, cache.CatalogTTL, func() error {
		var err error
		tags, err = r.GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Unlink(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
		return r.fail(ctx, "Unlink", err)
	}
	return nil
}

type categoryRepository struct {
	*GormRepository[models.Category]
}

// NewCategoryRepository returns the category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{GormRepository: NewRepository[models.Category](db, "categories")}
}

func (r *categoryRepository) ListCached(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoriesListKey, &categories, cache.CatalogTTL, func() error {
		var err error
		categories, err = r.GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) CountPosts(ctx context.Context, id uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return 0, r.fail(ctx, "CountPosts", err)
	}
	return n, nil
}
