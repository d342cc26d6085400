package repository

import (
	"context"
	"errors"
	"strings"

	"forum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostQueries is the post data access surface used by the post service.
type PostQueries interface {
	Repository[models.Post]
	GetAllPosts(ctx context.Context, viewerID uint) ([]models.PostView, error)
	GetPostByID(ctx context.Context, id, viewerID uint) (*models.PostView, error)
	GetAllPostsByTerm(ctx context.Context, term string, viewerID uint) ([]models.PostView, error)
	// GetCanonical loads the bare post row in a fresh session.
	GetCanonical(ctx context.Context, id uint) (*models.Post, error)
	// CreatePostWithTags inserts post for its author and links tags in one
	// transaction.
	CreatePostWithTags(ctx context.Context, post *models.Post, tags []models.Tag) error
	// UpdatePostWithTags rewrites the mutable columns and replaces the tag
	// links in one transaction.
	UpdatePostWithTags(ctx context.Context, post *models.Post, tags []models.Tag) error
	RemoveAllPostTags(ctx context.Context, postID uint) error
	ReplacePostTags(ctx context.Context, postID uint, tags []models.Tag) error
	TogglePostLike(ctx context.Context, userID, postID uint) (*models.ToggleResult, error)
	IsPostLiked(ctx context.Context, userID, postID uint) (bool, error)
	DeletePostCascade(ctx context.Context, postID uint) error
}

type postRepository struct {
	*GormRepository[models.Post]
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostQueries {
	return &postRepository{GormRepository: NewRepository[models.Post](db, "posts")}
}

// withDetails preloads author, category, tags and comment ids (for counts).
func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Select("id", "post_id") })
}

func (r *postRepository) annotate(ctx context.Context, method string, posts []models.Post, viewerID uint) ([]models.PostView, error) {
	liked, err := likedIDs(ctx, r.db, "post_likes", "post_id", viewerID, postIDs(posts))
	if err != nil {
		return nil, r.fail(ctx, method, err)
	}
	return annotatePosts(posts, liked), nil
}

func (r *postRepository) GetAllPosts(ctx context.Context, viewerID uint) ([]models.PostView, error) {
	var posts []models.Post
	if err := r.withDetails(ctx).Order("posts.created_at DESC").Find(&posts).Error; err != nil {
		return nil, r.fail(ctx, "GetAllPosts", err)
	}
	return r.annotate(ctx, "GetAllPosts", posts, viewerID)
}

func (r *postRepository) GetPostByID(ctx context.Context, id, viewerID uint) (*models.PostView, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		First(&post, id).Error
	if err != nil {
		return nil, r.failLookup(ctx, "GetPostByID", id, err)
	}

	var comments []models.Comment
	err = r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, r.fail(ctx, "GetPostByID", err)
	}

	postLiked, err := likedIDs(ctx, r.db, "post_likes", "post_id", viewerID, []uint{id})
	if err != nil {
		return nil, r.fail(ctx, "GetPostByID", err)
	}
	commentLiked, err := likedIDs(ctx, r.db, "comment_likes", "comment_id", viewerID, commentIDs(comments))
	if err != nil {
		return nil, r.fail(ctx, "GetPostByID", err)
	}

	view := &models.PostView{
		Post:         &post,
		IsLiked:      postLiked[id],
		CommentCount: len(comments),
		Comments:     threadComments(comments, commentLiked),
	}
	return view, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GetAllPostsByTerm matches term case-insensitively against title, content,
// category name, tag names, comment content and author username. No match is
// a NOT_FOUND error.
func (r *postRepository) GetAllPostsByTerm(ctx context.Context, term string, viewerID uint) ([]models.PostView, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Distinct("posts.id").
		Joins("JOIN users ON users.id = posts.user_id").
		Joins("LEFT JOIN categories ON categories.id = posts.category_id").
		Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("LEFT JOIN tags ON tags.id = post_tags.tag_id").
		Joins("LEFT JOIN comments ON comments.post_id = posts.id").
		Where(
			"LOWER(posts.title) LIKE ? ESCAPE '\\' OR LOWER(posts.content) LIKE ? ESCAPE '\\' "+
				"OR LOWER(categories.name) LIKE ? ESCAPE '\\' OR LOWER(tags.name) LIKE ? ESCAPE '\\' "+
				"OR LOWER(comments.content) LIKE ? ESCAPE '\\' OR LOWER(users.username) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern, pattern, pattern,
		).
		Pluck("posts.id", &ids).Error
	if err != nil {
		return nil, r.fail(ctx, "GetAllPostsByTerm", err)
	}
	if len(ids) == 0 {
		return nil, models.NewNoMatchError("Post", term)
	}

	var posts []models.Post
	if err := r.withDetails(ctx).Where("posts.id IN ?", ids).Order("posts.created_at DESC").Find(&posts).Error; err != nil {
		return nil, r.fail(ctx, "GetAllPostsByTerm", err)
	}
	return r.annotate(ctx, "GetAllPostsByTerm", posts, viewerID)
}

func (r *postRepository) GetCanonical(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).First(&post, id).Error
	if err != nil {
		return nil, r.failLookup(ctx, "GetCanonical", id, err)
	}
	return &post, nil
}

// RemoveAllPostTags deletes every post_tags row of the post in one statement.
func (r *postRepository) RemoveAllPostTags(ctx context.Context, postID uint) error {
	if err := clearPostTags(r.db.WithContext(ctx), postID); err != nil {
		return r.fail(ctx, "RemoveAllPostTags", err)
	}
	return nil
}

// ReplacePostTags clears the post's tag links and links tags instead, atomically.
func (r *postRepository) ReplacePostTags(ctx context.Context, postID uint, tags []models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearPostTags(tx, postID); err != nil {
			return err
		}
		return linkPostTags(tx, postID, tags)
	})
	if err != nil {
		return r.fail(ctx, "ReplacePostTags", err)
	}
	return nil
}

func (r *postRepository) CreatePostWithTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		return linkPostTags(tx, post.ID, tags)
	})
	if err != nil {
		return r.fail(ctx, "CreatePostWithTags", err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "user_id": post.UserID, "tags": len(tags)})
	return nil
}

func (r *postRepository) UpdatePostWithTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
			"title":       post.Title,
			"content":     post.Content,
			"category_id": post.CategoryID,
			"edited_at":   post.EditedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := clearPostTags(tx, post.ID); err != nil {
			return err
		}
		return linkPostTags(tx, post.ID, tags)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Post", post.ID)
	}
	if err != nil {
		return r.fail(ctx, "UpdatePostWithTags", err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": post.ID, "tags": len(tags)})
	return nil
}

func clearPostTags(db *gorm.DB, postID uint) error {
	return db.Exec("DELETE FROM post_tags WHERE post_id = ?", postID).Error
}

func linkPostTags(tx *gorm.DB, postID uint, tags []models.Tag) error {
	for _, tag := range tags {
		if err := tx.Exec("INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)", postID, tag.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

// TogglePostLike flips the user's like membership and recomputes the post's
// counter from the join table in the same transaction.
func (r *postRepository) TogglePostLike(ctx context.Context, userID, postID uint) (*models.ToggleResult, error) {
	result, err := toggleLike(ctx, r.db, likeTarget{
		table:      "post_likes",
		column:     "post_id",
		owner:      &models.Post{},
		resource:   "Post",
		entityName: "posts",
	}, userID, postID)
	if err != nil {
		return nil, r.fail(ctx, "TogglePostLike", err)
	}
	return result, nil
}

func (r *postRepository) IsPostLiked(ctx context.Context, userID, postID uint) (bool, error) {
	liked, err := likedIDs(ctx, r.db, "post_likes", "post_id", userID, []uint{postID})
	if err != nil {
		return false, r.fail(ctx, "IsPostLiked", err)
	}
	return liked[postID], nil
}

// DeletePostCascade removes a post with its comments, tag links and likes.
func (r *postRepository) DeletePostCascade(ctx context.Context, postID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewNotFoundError("Post", postID)
		}
		threadIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", postID)
		steps := []struct {
			sql  string
			args []interface{}
		}{
			{"DELETE FROM comment_likes WHERE comment_id IN (?)", []interface{}{threadIDs}},
			{"DELETE FROM comments WHERE post_id = ? AND parent_id IS NOT NULL", []interface{}{postID}},
			{"DELETE FROM comments WHERE post_id = ?", []interface{}{postID}},
			{"DELETE FROM post_likes WHERE post_id = ?", []interface{}{postID}},
			{"DELETE FROM post_tags WHERE post_id = ?", []interface{}{postID}},
			{"DELETE FROM posts WHERE id = ?", []interface{}{postID}},
		}
		for _, step := range steps {
			if err := tx.Exec(step.sql, step.args...).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.fail(ctx, "DeletePostCascade", err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": postID})
	return nil
}

type likeTarget struct {
	table      string
	column     string
	owner      interface{}
	resource   string
	entityName string
}

// toggleLike is shared by post and comment likes. A missing user or target
// yields NOT_FOUND.
func toggleLike(ctx context.Context, db *gorm.DB, t likeTarget, userID, targetID uint) (*models.ToggleResult, error) {
	result := &models.ToggleResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(t.owner).Where("id = ?", targetID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError(t.resource, targetID)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("User", userID)
		}

		var existing int64
		if err := tx.Table(t.table).Where("user_id = ? AND "+t.column+" = ?", userID, targetID).Count(&existing).Error; err != nil {
			return err
		}
		var stmt *gorm.DB
		if existing > 0 {
			stmt = tx.Exec("DELETE FROM "+t.table+" WHERE user_id = ? AND "+t.column+" = ?", userID, targetID)
		} else {
			stmt = tx.Exec("INSERT INTO "+t.table+" (user_id, "+t.column+") VALUES (?, ?)", userID, targetID)
			result.Liked = true
		}
		if stmt.Error != nil {
			return stmt.Error
		}

		// the counter is always the size of the membership set
		err := tx.Exec(
			"UPDATE "+t.entityName+" SET total_likes = (SELECT COUNT(*) FROM "+t.table+" WHERE "+t.column+" = ?) WHERE id = ?",
			targetID, targetID,
		).Error
		if err != nil {
			return err
		}
		return tx.Model(t.owner).Select("total_likes").Where("id = ?", targetID).Scan(&result.TotalLikes).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
