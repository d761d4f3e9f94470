package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qedlabs/labyrinth-gateway/internal/config"
)

// RedisBus is a Bus backed by Redis Pub/Sub.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client from the given configuration.
//
// Postcondition: Returns a client; connectivity is not verified (use Ping).
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisBus creates a Bus over the given Redis client.
//
// Precondition: client and logger must be non-nil.
func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		logger: logger,
	}
}

// Publish sends payload on the named channel.
//
// Postcondition: Returns nil if Redis accepted the message, or a wrapped error.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return nil
}

// Subscribe starts a delivery loop for the named channel. The handler is
// invoked synchronously for each message, so messages are processed
// strictly in arrival order. Receive errors are logged and the loop
// continues; the loop exits when ctx is cancelled or the subscription
// is closed.
//
// Precondition: handler must be non-nil.
// Postcondition: Returns a Subscription once the Redis subscription is confirmed.
func (b *RedisBus) Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)

	// Force the SUBSCRIBE round-trip so a bad connection surfaces here
	// rather than as a silent dead loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	sub := &redisSubscription{pubsub: pubsub}
	go b.deliver(ctx, channel, pubsub, handler)

	b.logger.Info("bus subscription established",
		zap.String("channel", channel),
	)
	return sub, nil
}

func (b *RedisBus) deliver(ctx context.Context, channel string, pubsub *redis.PubSub, handler Handler) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.logger.Info("bus subscription closed",
					zap.String("channel", channel),
				)
				return
			}
			handler([]byte(msg.Payload))
		}
	}
}

type redisSubscription struct {
	pubsub *redis.PubSub
	once   sync.Once
	err    error
}

// Close unsubscribes and stops the delivery loop.
func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.pubsub.Close()
	})
	return s.err
}
