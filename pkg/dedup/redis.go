package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store shared between hookd instances through redis.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*redisStore, error) {
	if url == "" {
		return nil, fmt.Errorf("redis deduplication backend requires redis_url")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &redisStore{
		client: redis.NewClient(options),
		ttl:    ttl,
	}, nil
}

func (s *redisStore) Record(ctx context.Context, key string, body []byte) (bool, error) {
	created, err := s.client.SetNX(ctx, key, body, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record delivery %s: %w", key, err)
	}
	return created, nil
}

func (s *redisStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to forget delivery %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
