package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/redis/go-redis/v9"
)

// Entry is one cached query result. Entries are replaced whole, never patched.
type Entry struct {
	Key       string       `json:"key"`
	Frame     *frame.Frame `json:"frame"`
	CreatedAt time.Time    `json:"created_at"` //nolint:tagliatelle // stored format
}

// Stale reports whether the entry is older than freshness at now
func (e *Entry) Stale(now time.Time, freshness time.Duration) bool {
	return now.Sub(e.CreatedAt) > freshness
}

// Store is a shared cache tier consulted after the in-process tier misses
type Store interface {
	// Get returns the entry for key, or nil on a miss
	Get(ctx context.Context, key string) (*Entry, error)
	// Set stores entry until ttl elapses
	Set(ctx context.Context, entry *Entry, ttl time.Duration) error
	// Flush removes every entry
	Flush(ctx context.Context) error
}

// RedisStore keeps query results in Redis so every replica shares them
type RedisStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

// NewRedisStore creates a Redis-backed store. prefix namespaces every key.
func NewRedisStore(redisClient *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		keyPrefix:   prefix + ":query:",
	}
}

// storeKey hashes the query text so keys stay short and free of whitespace
func (s *RedisStore) storeKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.keyPrefix + hex.EncodeToString(sum[:])
}

// Get retrieves a cached result from Redis
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.redisClient.Get(ctx, s.storeKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}

	// A hash collision is not a hit
	if entry.Key != key {
		return nil, nil
	}

	return &entry, nil
}

// Set stores a result in Redis with ttl
func (s *RedisStore) Set(ctx context.Context, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.redisClient.Set(ctx, s.storeKey(entry.Key), data, ttl).Err()
}

// Flush removes every cached result under the store's prefix
func (s *RedisStore) Flush(ctx context.Context) error {
	iter := s.redisClient.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	return s.redisClient.Del(ctx, keys...).Err()
}
