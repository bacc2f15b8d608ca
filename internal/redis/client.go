package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionKey is the storage key for a user's session document.
func SessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

// SessionLockKey is the per-user mutation lock.
func SessionLockKey(userID string) string {
	return fmt.Sprintf("session-lock:%s", userID)
}
