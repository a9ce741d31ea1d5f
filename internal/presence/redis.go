package presence

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// statusHashKey matches the hash the rest of the deployment reads.
const statusHashKey = "user_statuses"

// RedisStore backs FastStore with a single Redis hash.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetStatus(ctx context.Context, userID, status string) error {
	return s.client.HSet(ctx, statusHashKey, userID, status).Err()
}

// GetStatus returns "" without error when the user has no entry.
func (s *RedisStore) GetStatus(ctx context.Context, userID string) (string, error) {
	status, err := s.client.HGet(ctx, statusHashKey, userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}
