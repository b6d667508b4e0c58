// Package notification delivers committed ledger Transfer events to
// downstream systems.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// LoggerNotifier writes each Transfer event to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Publish writes the event to the structured logger.
func (n *LoggerNotifier) Publish(ctx context.Context, ev ledger.Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "transfer",
		slog.String("event_id", ev.ID.String()),
		slog.String("from", ev.From.Hex()),
		slog.String("to", ev.To.Hex()),
		slog.String("amount", amount.Format(ev.Amount)),
	)
	return nil
}

// RedisStreamNotifier appends Transfer events to a Redis stream.
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamNotifier builds a stream publisher. A positive maxLen trims
// the stream approximately to that many entries.
func NewRedisStreamNotifier(client *redis.Client, stream string, maxLen int64) *RedisStreamNotifier {
	return &RedisStreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends ev to the stream. Amounts are written in base units.
func (n *RedisStreamNotifier) Publish(ctx context.Context, ev ledger.Event) error {
	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"id":     ev.ID.String(),
			"from":   ev.From.Hex(),
			"to":     ev.To.Hex(),
			"amount": ev.Amount.Dec(),
			"at":     ev.At.Format(time.RFC3339Nano),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}
	return n.client.XAdd(ctx, args).Err()
}

// Fanout forwards each event to every sink, joining their errors.
type Fanout []ledger.EventSink

// Publish delivers ev to all sinks even when some of them fail.
func (f Fanout) Publish(ctx context.Context, ev ledger.Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
