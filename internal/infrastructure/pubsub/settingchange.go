package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

// SettingChangeEvent announces that a settings group was written by another
// process, typically the settings CLI.
type SettingChangeEvent struct {
	Group     string `json:"group"`
	Timestamp int64  `json:"timestamp"`
}

// SettingChangeHandler is called once per received event.
type SettingChangeHandler func(ctx context.Context, event SettingChangeEvent)

const settingChangeChannel = "lineconnect:settings:change"

// RedisSettingChangeBus distributes setting changes across instances over
// Redis Pub/Sub.
type RedisSettingChangeBus struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisSettingChangeBus(client *redis.Client, logger logger.Interface) *RedisSettingChangeBus {
	return &RedisSettingChangeBus{
		client: client,
		logger: logger,
	}
}

// PublishChange announces a write to group.
func (b *RedisSettingChangeBus) PublishChange(ctx context.Context, group string) error {
	data, err := json.Marshal(SettingChangeEvent{Group: group, Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, settingChangeChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish setting change", "group", group, "error", err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("setting change published", "group", group)
	return nil
}

// Subscribe blocks delivering events to handler until ctx is done. ready, if
// non-nil, is closed once the subscription is confirmed.
func (b *RedisSettingChangeBus) Subscribe(ctx context.Context, handler SettingChangeHandler, ready chan<- struct{}) error {
	sub := b.client.Subscribe(ctx, settingChangeChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	b.logger.Infow("subscribed to setting changes", "channel", settingChangeChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("setting change subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("setting change channel closed")
				return nil
			}

			var event SettingChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal setting change", "error", err)
				continue
			}
			if event.Group == "" {
				continue
			}

			handler(ctx, event)
		}
	}
}
