package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultInvalidationChannel = "compia:cache:invalidate"

// Target names the cache an invalidation applies to
type Target string

const TargetDashboard Target = "dashboard"

// InvalidationMessage is broadcast to every instance
type InvalidationMessage struct {
	Target    Target `json:"target"`
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}

// Invalidator broadcasts cache invalidations over Redis Pub/Sub.
// Messages sent by this instance are not delivered back to it.
type Invalidator struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

// NewInvalidator wraps an existing client; the caller owns it
func NewInvalidator(client *redis.Client, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{
		client:  client,
		channel: defaultInvalidationChannel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Publish sends msg to every subscribed instance
func (i *Invalidator) Publish(ctx context.Context, msg InvalidationMessage) error {
	msg.Origin = i.origin
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		i.logger.Error("Failed to publish cache invalidation",
			zap.String("channel", i.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Subscribe calls fn for each message from another instance.
// It blocks until ctx is done or the subscription fails.
func (i *Invalidator) Subscribe(ctx context.Context, fn func(InvalidationMessage)) error {
	pubsub := i.client.Subscribe(ctx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", i.channel, err)
	}
	i.logger.Info("Subscribed to cache invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				i.logger.Warn("Cache invalidation channel closed")
				return nil
			}
			var msg InvalidationMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				i.logger.Warn("Ignoring malformed invalidation", zap.String("payload", m.Payload))
				continue
			}
			if msg.Origin == i.origin {
				continue
			}
			i.dispatch(fn, msg)
		}
	}
}

func (i *Invalidator) dispatch(fn func(InvalidationMessage), msg InvalidationMessage) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("Panic in cache invalidation callback", zap.Any("panic", r))
		}
	}()
	fn(msg)
}
