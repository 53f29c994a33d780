package auth

import (
	"context"
	"time"

	"invoicepay/internal/cache"
)

const (
	stampKeyPrefix = "security_stamp:"
	stampTTL       = 24 * time.Hour
)

// StampStore publishes users' current security stamps so that bearer tokens
// minted before a stamp rotation can be rejected.
type StampStore interface {
	Publish(ctx context.Context, userID, stamp string) error
	// Current returns the published stamp, or "" when unknown.
	Current(ctx context.Context, userID string) string
}

// RedisStampStore handles storage of stamps in Redis.
type RedisStampStore struct {
	cache *cache.Client
}

// Ensure RedisStampStore implements StampStore
var _ StampStore = (*RedisStampStore)(nil)

// NewStampStore creates a new stamp store.
func NewStampStore(cache *cache.Client) *RedisStampStore {
	return &RedisStampStore{cache: cache}
}

// Publish stores the user's stamp with a bounded TTL.
func (s *RedisStampStore) Publish(ctx context.Context, userID, stamp string) error {
	return s.cache.Set(ctx, stampKeyPrefix+userID, []byte(stamp), stampTTL)
}

// Current returns "" on miss or when redis is unavailable (fail open).
func (s *RedisStampStore) Current(ctx context.Context, userID string) string {
	data, _ := s.cache.Get(ctx, stampKeyPrefix+userID)
	return string(data)
}
