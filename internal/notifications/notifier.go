// Package notifications fans forum events out to websocket clients, across
// instances through Redis pub/sub.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"forum/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes events into the feed channel.
type Notifier struct {
	rdb     *redis.Client
	channel string
}

// NewNotifier creates a Notifier on FeedChannel. A nil client turns every
// method into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, channel: FeedChannel}
}

// Enabled reports whether events leave this process.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// Publish writes an encoded event to the feed channel.
func (n *Notifier) Publish(ctx context.Context, payload []byte) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	return nil
}

// StartFeedSubscriber subscribes to the feed channel and calls onMessage for
// each payload until ctx is cancelled. It returns once the subscription is
// confirmed by the server.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to %s: %w", n.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in feed subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
