package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens the fast store used for presence. The connection
// is verified once up front; individual operations carry no timeout.
func ConnectRedis(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
