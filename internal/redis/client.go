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

// ChatChannel is the pub/sub channel carrying chat room events. A single
// room means a single channel; publish order on it is the broadcast order.
func ChatChannel() string {
	return "chat:events"
}
