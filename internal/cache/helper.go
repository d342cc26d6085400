package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. found is false on a miss or without a client.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from the cache, falling back to fetch and storing the
// result. Cache failures degrade to a plain fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// TokenBlacklist revokes access tokens by jti until they would have expired.
type TokenBlacklist struct {
	rdb *redis.Client
}

// NewTokenBlacklist returns a blacklist backed by rdb. A nil client never revokes.
func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb}
}

// Revoke blacklists jti until expiresAt. Expired tokens need no entry.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if b.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked. Redis errors count as not revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) bool {
	if b.rdb == nil {
		return false
	}
	n, err := b.rdb.Exists(ctx, BlacklistKey(jti)).Result()
	return err == nil && n > 0
}
