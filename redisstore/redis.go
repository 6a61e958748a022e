package redisstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/dashcache/cache"
)

// tagKeyPrefix prefixes the Redis sets that index cache keys by tag.
// Kept out of the cache key namespaces so tag sets are never matched by
// pattern invalidation.
const tagKeyPrefix = "dashcache-tags:"

// scanBatch is the COUNT hint for SCAN iterations.
const scanBatch = 200

// Store is a Redis-backed cache.Store.
type Store struct {
	client redis.UniversalClient
}

// New creates a store on an existing Redis client. The client's own
// dial/read/write timeouts bound every store call.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Open connects to a single Redis instance and returns a store on it.
func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get retrieves a value. Returns (nil, false, nil) on miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores a value until expiresAt and indexes it under tags. A zero
// expiresAt stores without a TTL; an instant already in the past stores
// nothing.
func (s *Store) Set(ctx context.Context, key string, value []byte, expiresAt time.Time, tags []string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKeyPrefix+tag, key)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes a value. Idempotent; reports whether a key was removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeletePattern removes all keys matching the Redis glob pattern via SCAN.
func (s *Store) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		return 0, nil
	}

	removed := 0
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// DeleteTag removes all keys indexed under the tag, then drops the tag set.
func (s *Store) DeleteTag(ctx context.Context, tag string) (int, error) {
	setKey := tagKeyPrefix + tag
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	if len(members) > 0 {
		n, err := s.client.Del(ctx, members...).Result()
		if err != nil {
			return 0, err
		}
		removed = int(n)
	}
	if err := s.client.Del(ctx, setKey).Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Keys lists keys with the given prefix. Sizes come from STRLEN, one call
// per key, so this is intended for diagnostics rather than hot paths.
func (s *Store) Keys(ctx context.Context, prefix string) ([]cache.KeyInfo, error) {
	var infos []cache.KeyInfo

	iter := s.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasPrefix(key, tagKeyPrefix) {
			continue
		}
		size, err := s.client.StrLen(ctx, key).Result()
		if err != nil {
			size = 0
		}
		infos = append(infos, cache.KeyInfo{Key: key, Size: size})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// Ensure Store implements every store capability
var (
	_ cache.Store           = (*Store)(nil)
	_ cache.PatternStore    = (*Store)(nil)
	_ cache.TagStore        = (*Store)(nil)
	_ cache.EnumerableStore = (*Store)(nil)
)
