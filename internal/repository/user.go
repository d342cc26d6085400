package repository

import (
	"context"
	"errors"
	"strings"

	"forum/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Repository[models.User]
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIdentifier resolves a login identifier: an address containing "@"
	// is matched against email, anything else against username.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// UserActivityQueries loads a user's authored and liked content.
type UserActivityQueries interface {
	GetUserActivity(ctx context.Context, userID uint) (*models.UserActivity, error)
	LikedPostIDs(ctx context.Context, userID uint) ([]uint, error)
	LikedCommentIDs(ctx context.Context, userID uint) ([]uint, error)
}

type userRepository struct {
	*GormRepository[models.User]
}

// UserQueries combines account lookups with activity aggregation.
type UserQueries interface {
	UserRepository
	UserActivityQueries
}

// NewUserRepository returns a new UserQueries implementation.
func NewUserRepository(db *gorm.DB) UserQueries {
	return &userRepository{GormRepository: NewRepository[models.User](db, "users")}
}

func (r *userRepository) findOne(ctx context.Context, method, column, value string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", value)
		}
		return nil, r.fail(ctx, method, err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "GetByUsername", "username", strings.ToLower(username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "GetByEmail", "LOWER(email)", strings.ToLower(email))
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return r.GetByEmail(ctx, identifier)
	}
	return r.GetByUsername(ctx, identifier)
}

// IsAdmin reports whether userID is an administrator. Unknown users are not.
func (r *userRepository) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var admins int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_admin = ?", userID, true).
		Count(&admins).Error
	if err != nil {
		return false, r.fail(ctx, "IsAdmin", err)
	}
	return admins > 0, nil
}

func (r *userRepository) GetUserActivity(ctx context.Context, userID uint) (*models.UserActivity, error) {
	var user models.User
	newestFirst := func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }
	err := r.db.WithContext(ctx).
		Preload("Posts", newestFirst).
		Preload("Posts.Category").
		Preload("Comments", newestFirst).
		Preload("LikedPosts", newestFirst).
		Preload("LikedComments", newestFirst).
		First(&user, userID).Error
	if err != nil {
		return nil, r.failLookup(ctx, "GetUserActivity", userID, err)
	}

	activity := &models.UserActivity{
		User:          models.NewAccount(&user),
		Posts:         user.Posts,
		Comments:      user.Comments,
		LikedPosts:    user.LikedPosts,
		LikedComments: user.LikedComments,
	}
	user.Posts, user.Comments, user.LikedPosts, user.LikedComments = nil, nil, nil, nil
	return activity, nil
}

func (r *userRepository) LikedPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.likedIDs(ctx, "LikedPostIDs", "post_likes", "post_id", userID)
}

func (r *userRepository) LikedCommentIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.likedIDs(ctx, "LikedCommentIDs", "comment_likes", "comment_id", userID)
}

func (r *userRepository) likedIDs(ctx context.Context, method, table, column string, userID uint) ([]uint, error) {
	ids := []uint{}
	if userID == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Table(table).Where("user_id = ?", userID).Order(column).Pluck(column, &ids).Error; err != nil {
		return nil, r.fail(ctx, method, err)
	}
	return ids, nil
}
