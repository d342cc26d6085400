// Package bootstrap wires the process-wide runtime: database, Redis and the
// development admin account.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"forum/internal/cache"
	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/seed"
	"forum/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedFixtures applies the built-in catalog fixtures after connecting.
	SeedFixtures bool
}

// InitRuntime connects to DB and Redis and optionally seeds the catalog.
// The returned Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedFixtures {
		fixtures, err := seed.DefaultFixtures()
		if err != nil {
			return nil, nil, err
		}
		fixtures.Users = nil
		if err := seed.ApplyFixtures(ctx, db, fixtures); err != nil {
			return nil, nil, fmt.Errorf("failed to seed catalog fixtures: %w", err)
		}
	}

	return db, r, nil
}

// EnsureDevAdmin creates or promotes the DEV_ADMIN_* account in development.
// It does nothing elsewhere or when no password is configured.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || cfg.DevAdminPassword == "" {
		return nil
	}

	username := validation.NormalizeUsername(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("DEV_ADMIN_USERNAME: %w", err)
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@forum.local"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("username = ?", username).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
				IsAdmin:  true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&admin).Updates(map[string]any{
				"is_admin": true,
				"password": string(hashedPassword),
			}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("username", username))
	return nil
}
