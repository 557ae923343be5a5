// Package notify delivers outbox messages to the notification collaborator
// through a Redis stream.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"opserp/internal/infrastructure/storage/postgres"
	"opserp/pkg/logger"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "opserp:events"

var _ postgres.OutboxHandler = (*StreamNotifier)(nil)

// StreamNotifier appends outbox messages to a Redis stream with XADD.
// Consumers read with consumer groups; the outbox message id travels in
// the entry so that they can drop redeliveries.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// Option configures a StreamNotifier.
type Option func(*StreamNotifier)

// WithStream overrides the stream key.
func WithStream(stream string) Option {
	return func(n *StreamNotifier) {
		if stream != "" {
			n.stream = stream
		}
	}
}

// WithMaxLen caps the stream length (approximate trimming).
func WithMaxLen(maxLen int64) Option {
	return func(n *StreamNotifier) { n.maxLen = maxLen }
}

// NewStreamNotifier wraps an existing client.
func NewStreamNotifier(client *redis.Client, opts ...Option) *StreamNotifier {
	n := &StreamNotifier{client: client, stream: DefaultStream, maxLen: 100_000}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Dial parses redisURL, connects and verifies the connection.
func Dial(ctx context.Context, redisURL string, opts ...Option) (*StreamNotifier, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStreamNotifier(client, opts...), nil
}

// Handle implements postgres.OutboxHandler.
func (n *StreamNotifier) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"message_id":     msg.ID.String(),
			"event_type":     msg.EventType,
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID.String(),
			"payload":        string(msg.Payload),
			"created_at":     msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}

	entryID, err := n.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}

	logger.Debug(ctx, "event relayed",
		"stream", n.stream,
		"entry_id", entryID,
		"event_type", msg.EventType,
		"aggregate_id", msg.AggregateID,
	)
	return nil
}

// Ping checks the Redis connection.
func (n *StreamNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (n *StreamNotifier) Close() error {
	return n.client.Close()
}
