package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bookinggo/internal/models"
	"bookinggo/internal/redis"
)

const listCacheKey = "reservations:list"

// CachedStore serves List from redis and drops the cached list after every
// successful mutation. Cache failures are logged and fall through to the
// wrapped store.
//
// A list read from the wrapped store is only cached if no mutation finished
// while it was being read; gen counts finished mutations.
type CachedStore struct {
	inner  Store
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	gen    atomic.Uint64
}

// NewCachedStore decorates inner with a redis-backed list cache.
func NewCachedStore(inner Store, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (s *CachedStore) List(ctx context.Context) ([]models.Reservation, error) {
	data, err := s.cache.Get(ctx, listCacheKey)
	if err == nil {
		var cached []models.Reservation
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("discarding undecodable cached list")
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		s.logger.Warn("read list cache", zap.Error(err))
	}

	gen := s.gen.Load()
	list, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.gen.Load() != gen {
		return list, nil
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return list, nil
	}
	if err := s.cache.Set(ctx, listCacheKey, encoded, s.ttl); err != nil {
		s.logger.Warn("write list cache", zap.Error(err))
		return list, nil
	}
	// A mutation that finished between the check and the write may have
	// already deleted the key; drop what was just written.
	if s.gen.Load() != gen {
		s.drop(ctx)
	}
	return list, nil
}

func (s *CachedStore) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.inner.Get(ctx, id)
}

func (s *CachedStore) Create(ctx context.Context, r models.Reservation) (*models.Reservation, error) {
	created, err := s.inner.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *CachedStore) Update(ctx context.Context, id int64, mutate func(*models.Reservation) error) (*models.Reservation, error) {
	updated, err := s.inner.Update(ctx, id, mutate)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *CachedStore) Delete(ctx context.Context, id int64) error {
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context) {
	s.gen.Add(1)
	s.drop(ctx)
}

func (s *CachedStore) drop(ctx context.Context) {
	if err := s.cache.Del(ctx, listCacheKey); err != nil {
		s.logger.Warn("invalidate list cache", zap.Error(err))
	}
}
