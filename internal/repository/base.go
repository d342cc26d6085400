// Package repository provides the GORM data access layer: a generic CRUD
// repository plus entity-specific query interfaces for posts, comments, users
// and the category/tag catalog.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"forum/internal/models"
	"forum/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the generic CRUD surface shared by every entity.
type Repository[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	// Delete reports whether a row was removed; unknown ids and id 0 yield false.
	Delete(ctx context.Context, id uint) bool
}

// GormRepository implements Repository for any GORM model. Failures are
// logged with the entity and method and returned as *models.AppError.
type GormRepository[T any] struct {
	db     *gorm.DB
	entity string
	log    *observability.RepoLogger
}

// NewRepository returns a generic repository for T; entity names the table in logs.
func NewRepository[T any](db *gorm.DB, entity string) *GormRepository[T] {
	return &GormRepository[T]{
		db:     db,
		entity: entity,
		log:    observability.NewRepoLogger(entity),
	}
}

func (r *GormRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, r.fail(ctx, "GetAll", err)
	}
	return out, nil
}

func (r *GormRepository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, r.failLookup(ctx, "GetByID", id, err)
	}
	return &entity, nil
}

func (r *GormRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return r.fail(ctx, "Create", err)
	}
	r.log.LogCreate(ctx, nil)
	return nil
}

// Update saves the scalar columns of entity; associations are managed by the
// entity-specific repositories.
func (r *GormRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error; err != nil {
		return r.fail(ctx, "Update", err)
	}
	r.log.LogUpdate(ctx, nil)
	return nil
}

func (r *GormRepository[T]) Delete(ctx context.Context, id uint) bool {
	if id == 0 {
		return false
	}
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		_ = r.fail(ctx, "Delete", res.Error)
		return false
	}
	if res.RowsAffected == 0 {
		return false
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return true
}

// fail logs err and converts it to an AppError. Unique violations become
// validation errors so callers can report duplicates.
func (r *GormRepository[T]) fail(ctx context.Context, method string, err error) error {
	return failWith(ctx, r.log, r.entity, method, err)
}

func (r *GormRepository[T]) failLookup(ctx context.Context, method string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resourceName(r.entity), id)
	}
	return r.fail(ctx, method, err)
}

func failWith(ctx context.Context, log *observability.RepoLogger, entity, method string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	log.LogError(ctx, err, method)
	if isUniqueConstraintError(err) {
		return models.NewValidationError(fmt.Sprintf("%s already exists", resourceName(entity)))
	}
	return models.NewInternalError(err)
}

// resourceName turns a table name into the singular resource used in messages.
func resourceName(table string) string {
	name := strings.TrimSuffix(table, "s")
	if strings.HasSuffix(name, "ie") {
		name = strings.TrimSuffix(name, "ie") + "y"
	}
	if name == "" {
		return table
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}
