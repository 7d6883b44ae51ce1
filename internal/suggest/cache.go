package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/UnendingLoop/CakeArtist/internal/model"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a Store when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

const cachePrefix = "placement:"

// Store - минимальный key-value, которым пользуется Cached
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore implements Store on top of go-redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr, password string) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password})}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Cached memoizes successful suggestions by (base, photo, view). Cache failures never fail the request.
type Cached struct {
	next  Source
	store Store
	ttl   time.Duration
}

func NewCached(next Source, store Store, ttl time.Duration) *Cached {
	return &Cached{next: next, store: store, ttl: ttl}
}

func (c *Cached) Suggest(ctx context.Context, base, photo string, view model.View) (model.PlacementSpec, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	key := cacheKey(base, photo, view)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var spec model.PlacementSpec
		if err := json.Unmarshal([]byte(raw), &spec); err == nil {
			return spec.Clamp(), nil
		}
		logger.Warn().Str("key", key).Msg("Broken placement in cache, asking the model again")
	case !errors.Is(err, ErrCacheMiss):
		logger.Warn().Err(err).Msg("Placement cache is unavailable")
	}

	spec, err := c.next.Suggest(ctx, base, photo, view)
	if err != nil {
		return model.PlacementSpec{}, err
	}

	if data, err := json.Marshal(spec); err == nil {
		if err := c.store.Set(ctx, key, string(data), c.ttl); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache placement")
		}
	}

	return spec, nil
}

func cacheKey(base, photo string, view model.View) string {
	h := sha256.New()
	h.Write([]byte(base))
	h.Write([]byte{0})
	h.Write([]byte(photo))
	h.Write([]byte{0})
	h.Write([]byte(view.Hint()))
	return cachePrefix + hex.EncodeToString(h.Sum(nil))
}
