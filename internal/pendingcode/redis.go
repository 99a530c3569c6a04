package pendingcode

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kasu/pkg/cache"
	kasuerrors "kasu/pkg/errors"
)

// RedisStore keeps pending codes in Redis with a key TTL matching the code's
// validity window, so entries expire server-side without a sweeper.
type RedisStore struct {
	cache *cache.RedisCache
}

func NewRedisStore(c *cache.RedisCache) *RedisStore {
	return &RedisStore{cache: c}
}

func key(vendorID uuid.UUID, purpose Purpose) string {
	return "pendingcode:" + vendorID.String() + ":" + string(purpose)
}

func (s *RedisStore) Put(ctx context.Context, code *PendingCode) error {
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return kasuerrors.ErrInvalidOrExpiredCode
	}
	return s.cache.Set(ctx, key(code.VendorID, code.Purpose), code, ttl)
}

func (s *RedisStore) Get(ctx context.Context, vendorID uuid.UUID, purpose Purpose) (*PendingCode, error) {
	var code PendingCode
	err := s.cache.Get(ctx, key(vendorID, purpose), &code)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kasuerrors.ErrCodeNotFound
		}
		return nil, kasuerrors.Wrap(err, "failed to load pending code")
	}
	if code.Expired(time.Now()) {
		return nil, kasuerrors.ErrCodeNotFound
	}
	return &code, nil
}

func (s *RedisStore) Delete(ctx context.Context, vendorID uuid.UUID, purpose Purpose) error {
	return s.cache.Delete(ctx, key(vendorID, purpose))
}
