package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"

	"gorm.io/gorm"
)

// Options configuration for the demo seeder
type Options struct {
	NumUsers           int
	NumPosts           int
	MaxCommentsPerPost int
	// LikeChance is the percentage chance a user likes a given post or comment.
	LikeChance  int
	ShouldClean bool
	Factory     FactoryOptions
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Seeder populates a database with demo content.
type Seeder struct {
	db       *gorm.DB
	factory  *Factory
	posts    repository.PostQueries
	comments repository.CommentQueries
	log      *slog.Logger
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts FactoryOptions) *Seeder {
	return &Seeder{
		db:       db,
		factory:  NewFactory(db, opts),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		log:      observability.GlobalLogger.Logger,
	}
}

// clearOrder lists tables children first so foreign keys never block a delete.
var clearOrder = []string{
	"comment_likes", "post_likes", "post_tags", "comments", "posts", "tags", "categories", "users",
}

// ClearAll removes every forum row. Schema and migration history stay.
func (s *Seeder) ClearAll(ctx context.Context) error {
	s.log.Info("clearing existing data")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range clearOrder {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedDemo creates users, posts across the existing catalog, comment threads
// and likes. The catalog must already hold at least one category.
func (s *Seeder) SeedDemo(ctx context.Context, opts Options) (*Summary, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, errors.New("no categories found; apply fixtures first")
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Find(&tags).Error; err != nil {
		return nil, err
	}

	summary := &Summary{}
	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := s.factory.CreateUser()
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for range opts.NumPosts {
		author := users[s.factory.Intn(len(users))]
		category := &categories[s.factory.Intn(len(categories))]
		posts = append(posts, s.factory.BuildPost(author, category, tags))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return summary, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)

	for _, post := range posts {
		n, err := s.seedThread(ctx, post, users, opts)
		summary.Comments += n
		if err != nil {
			return summary, err
		}
		likes, err := s.seedPostLikes(ctx, post, users, opts.LikeChance)
		summary.Likes += likes
		if err != nil {
			return summary, err
		}
	}

	s.log.Info("demo data seeded",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("comments", summary.Comments),
		slog.Int("likes", summary.Likes),
	)
	return summary, nil
}

// seedThread adds top-level comments to post, each with a few replies.
func (s *Seeder) seedThread(ctx context.Context, post *models.Post, users []*models.User, opts Options) (int, error) {
	if opts.MaxCommentsPerPost <= 0 {
		return 0, nil
	}
	created := 0
	for range s.factory.Intn(opts.MaxCommentsPerPost + 1) {
		root, err := s.factory.CreateComment(users[s.factory.Intn(len(users))], post, nil)
		if err != nil {
			return created, fmt.Errorf("create comment: %w", err)
		}
		created++
		if err := s.seedCommentLikes(ctx, root, users, opts.LikeChance); err != nil {
			return created, err
		}

		for range s.factory.Intn(3) {
			if _, err := s.factory.CreateComment(users[s.factory.Intn(len(users))], post, root); err != nil {
				return created, fmt.Errorf("create reply: %w", err)
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) seedPostLikes(ctx context.Context, post *models.Post, users []*models.User, chance int) (int, error) {
	likes := 0
	for _, u := range users {
		if s.factory.Intn(100) >= chance {
			continue
		}
		if _, err := s.posts.TogglePostLike(ctx, u.ID, post.ID); err != nil {
			return likes, fmt.Errorf("like post %d: %w", post.ID, err)
		}
		likes++
	}
	return likes, nil
}

func (s *Seeder) seedCommentLikes(ctx context.Context, comment *models.Comment, users []*models.User, chance int) error {
	for _, u := range users {
		if s.factory.Intn(100) >= chance {
			continue
		}
		if _, err := s.comments.ToggleCommentLike(ctx, u.ID, comment.ID); err != nil {
			return fmt.Errorf("like comment %d: %w", comment.ID, err)
		}
	}
	return nil
}
