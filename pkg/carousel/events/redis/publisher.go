// Package redis publishes carousel change events on a Redis channel so
// other processes can drop cached carousel renderings.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

// DefaultChannel is the channel events are published on
const DefaultChannel = "carousel:changed"

// PubSubClient is the subset of the redis client used by Publisher
type PubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher implements carousel.EventSink over Redis pub/sub
type Publisher struct {
	client  PubSubClient
	channel string
}

// NewPublisher creates a publisher on channel, DefaultChannel when empty
func NewPublisher(client PubSubClient, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// NewClient connects to redisURL and checks the connection
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CarouselChanged publishes the event as JSON
func (p *Publisher) CarouselChanged(ctx context.Context, event carousel.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}

// Decode parses a published payload
func Decode(payload string) (carousel.ChangeEvent, error) {
	var event carousel.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, fmt.Errorf("failed to decode event: %w", err)
	}
	return event, nil
}
