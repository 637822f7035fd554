package notify

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "activity-signup/internal/common/errors"
)

// Publisher is the slice of *database.RedisClient the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RedisPublisher publishes events as JSON on a pub/sub channel.
type RedisPublisher struct {
	client  Publisher
	channel string
}

func NewRedisPublisher(client Publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	if _, err := p.client.Publish(ctx, p.channel, payload); err != nil {
		return apperrors.NewNotificationPublishFailedError(p.channel, err)
	}
	return nil
}
