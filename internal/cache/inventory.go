package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	CategoriesListKey = "categories:all"
	TagsListKey       = "tags:all"
	UserKeyPrefix     = "user:%d"
	BlacklistPrefix   = "blacklist:%s"
)

const (
	CatalogTTL = 10 * time.Minute
	UserTTL    = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistPrefix, jti)
}

// Invalidate removes key; a missing client is a no-op.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesListKey)
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagsListKey)
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
