package ledger

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tutorgate:attempts:"

// RedisStore is a Store backend that survives process restarts. Keys carry no
// TTL: the attempt count is a lifetime counter, not a window.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. The caller owns the connection.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the current count for id.
func (s *RedisStore) Get(ctx context.Context, id string) (int, error) {
	n, err := s.client.Get(ctx, redisKeyPrefix+id).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return n, nil
}

// Increment adds one to the count for id and returns the new count.
func (s *RedisStore) Increment(ctx context.Context, id string) (int, error) {
	n, err := s.client.Incr(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr failed: %w", err)
	}
	return int(n), nil
}
