package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores slot values as Redis strings under "<prefix>:<key>".
type RedisSlot struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSlot creates a slot store. A positive ttl makes Redis expire values on its own
// as a backstop; staleness is still decided by the session store.
func NewRedisSlot(client *redis.Client, prefix string, ttl time.Duration) *RedisSlot {
	if prefix == "" {
		prefix = "plx"
	}
	return &RedisSlot{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSlot) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisSlot) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get slot[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisSlot) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set slot[%s]: %w", key, err)
	}
	return nil
}

func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete slot[%s]: %w", key, err)
	}
	return nil
}

// Ping checks that the Redis server is reachable.
func (s *RedisSlot) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
