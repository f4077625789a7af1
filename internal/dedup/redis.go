package dedup

import (
	"context"
	"fmt"

	"github.com/jonathan/listing-notifier/internal/db"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the Redis set holding notified listing ids.
const DefaultRedisKey = "listing-notifier:notified"

// RedisStore keeps the set in a Redis SET.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// OpenRedisStore connects to redisURL and returns a store owning the client.
func OpenRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis dedup store requires a Redis URL")
	}
	rdb, err := db.NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return NewRedisStore(rdb, key), nil
}

// Load returns the members of the key; a missing key is an empty set.
func (s *RedisStore) Load(ctx context.Context) (Set, error) {
	members, err := s.rdb.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS %s: %w", s.key, err)
	}
	return NewSet(members...), nil
}

// Save replaces the key's members with ids in one MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context, ids Set) error {
	members := make([]any, 0, ids.Len())
	for _, id := range ids.Sorted() {
		members = append(members, id)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(members) > 0 {
			pipe.SAdd(ctx, s.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
