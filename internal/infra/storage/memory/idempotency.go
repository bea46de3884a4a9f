package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"furnishedstay/internal/app/middleware"
)

// IdempotencyStore keeps replay records in an expiring cache so retried
// commands observe their original outcome within the TTL window.
type IdempotencyStore struct {
	cache *gocache.Cache
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{cache: gocache.New(ttl, ttl/2)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	v, found := s.cache.Get(key)
	if !found {
		return middleware.IdempotencyRecord{}, false, nil
	}
	rec, ok := v.(middleware.IdempotencyRecord)
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.cache.SetDefault(rec.Key, rec)
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
