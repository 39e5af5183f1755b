package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "discounts"

var _ Publisher = (*RedisPublisher)(nil)

// RedisPublisher implements Publisher using Redis pub/sub
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		MaxRetries:  1,
	})

	return &RedisPublisher{
		client:  client,
		channel: channel,
	}
}

// Channel returns the channel messages are published on
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish publishes the message on the channel and returns an error when
// Redis cannot be reached.
func (p *RedisPublisher) Publish(ctx context.Context, message []byte) error {
	if err := p.client.Publish(ctx, p.channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
