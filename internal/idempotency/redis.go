package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store maps an Idempotency-Key to the booking it originally created, so a
// retried create returns the original booking instead of a conflict.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, bookingID string, ttl time.Duration) error
}

var ErrNotFound = errors.New("idempotency key not found")

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	const op = "idempotency.RedisStore.Get"

	bookingID, err := s.client.Get(ctx, fmt.Sprintf("idem:%s", key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return bookingID, nil
}

func (s *RedisStore) Set(ctx context.Context, key, bookingID string, ttl time.Duration) error {
	const op = "idempotency.RedisStore.Set"

	if err := s.client.Set(ctx, fmt.Sprintf("idem:%s", key), bookingID, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
