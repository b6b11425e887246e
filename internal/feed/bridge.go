package feed

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/events"
)

// LocalNotifier returns an event handler that marks every local group dirty.
func LocalNotifier(registry *Registry) events.EventHandler {
	return func(context.Context, events.Event) error {
		registry.Notify()
		return nil
	}
}

// RedisBridge fans gig changes out to every instance sharing a Redis
// channel. Each instance publishes the changed gig id and every instance,
// including the publisher, notifies its own registry on receipt.
type RedisBridge struct {
	client   *redis.Client
	channel  string
	registry *Registry
	logger   *zap.Logger

	retryMin time.Duration
	retryMax time.Duration
}

// NewRedisBridge builds a bridge over client.
func NewRedisBridge(client *redis.Client, channel string, registry *Registry, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{
		client:   client,
		channel:  channel,
		registry: registry,
		logger:   logger.Named("feed.redis"),
		retryMin: 500 * time.Millisecond,
		retryMax: 30 * time.Second,
	}
}

// WithRetry overrides the subscribe backoff bounds.
func (b *RedisBridge) WithRetry(minDelay, maxDelay time.Duration) *RedisBridge {
	b.retryMin, b.retryMax = minDelay, maxDelay
	return b
}

// Handler publishes the event's gig id. If the publish fails the local
// registry is notified directly so this instance's observers still refresh.
func (b *RedisBridge) Handler() events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		if err := b.client.Publish(ctx, b.channel, event.GigID).Err(); err != nil {
			b.registry.Notify()
			return err
		}
		return nil
	}
}

// Run consumes the channel until ctx is cancelled. A failed subscribe or a
// dropped subscription is retried with capped exponential backoff, and every
// (re)established subscription triggers a local refresh for changes missed
// while disconnected.
func (b *RedisBridge) Run(ctx context.Context) {
	delay := b.retryMin
	for {
		err := b.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			delay = b.retryMin
			continue
		}
		b.logger.Warn("gig change subscription failed", zap.Error(err), zap.Duration("retry_in", delay))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, b.retryMax)
	}
}

// listen holds one subscription. It returns nil when an established
// subscription ends and the receive error when it could not be established.
func (b *RedisBridge) listen(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("listening for gig changes", zap.String("channel", b.channel))
	b.registry.Notify()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.logger.Debug("gig changed", zap.String("gig_id", msg.Payload))
			b.registry.Notify()
		}
	}
}
