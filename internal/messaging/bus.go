package messaging

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// Handler processes one inbound bus message. Delivery is at-most-once and
// unordered across channels; a handler must never assume replay.
type Handler func(ctx context.Context, channel string, payload []byte)

// Bus is the publish/subscribe transport feeding the subscriber. It is
// injected so nothing in the pipeline reaches for a process-wide connection.
type Bus interface {
	Subscribe(ctx context.Context, handler Handler, channels ...string) error
	Close() error
}

type RedisBus struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	stopped *atomic.Bool
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{
		client:  client,
		stopped: atomic.NewBool(false),
	}
}

// Subscribe registers the channels and consumes messages on a background
// goroutine until Close. Transport errors are handled inside go-redis by
// resubscribing; the loop itself only ends when the subscription is closed.
func (b *RedisBus) Subscribe(ctx context.Context, handler Handler, channels ...string) error {
	pubsub := b.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	b.pubsub = pubsub
	go func() {
		for msg := range pubsub.Channel() {
			if b.stopped.Load() {
				return
			}
			handler(ctx, msg.Channel, []byte(msg.Payload))
		}
		log.Info().Msg("bus subscription channel closed")
	}()
	return nil
}

// Publish emits a raw payload on a channel. Producers live in other services;
// this is used by tooling and tests.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Close() error {
	b.stopped.Store(true)
	if b.pubsub == nil {
		return nil
	}
	return b.pubsub.Close()
}
