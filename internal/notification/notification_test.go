package notification

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
	"github.com/curation-ledger/curation_ledger/internal/logging"
)

func sampleEvent() ledger.Event {
	return ledger.Event{
		ID:     uuid.MustParse("6f1c64b4-8a43-4f7a-9d0e-2a4f3c2f1b10"),
		From:   ledger.ZeroAddress,
		To:     common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Amount: amount.MustParse("1.5"),
		At:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisStreamNotifierAppends(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n := NewRedisStreamNotifier(client, "ledger:transfers", 0)
	require.NoError(t, n.Publish(context.Background(), sampleEvent()))

	entries, err := client.XRange(context.Background(), "ledger:transfers", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	values := entries[0].Values
	assert.Equal(t, "6f1c64b4-8a43-4f7a-9d0e-2a4f3c2f1b10", values["id"])
	assert.Equal(t, ledger.ZeroAddress.Hex(), values["from"])
	assert.Equal(t, "1500000000000000000", values["amount"])
	assert.Equal(t, "2024-05-01T12:00:00Z", values["at"])
}

func TestRedisStreamNotifierTrims(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	n := NewRedisStreamNotifier(client, "ledger:transfers", 2)
	for i := 0; i < 5; i++ {
		require.NoError(t, n.Publish(context.Background(), sampleEvent()))
	}

	length, err := client.XLen(context.Background(), "ledger:transfers").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, length, int64(5))
	assert.GreaterOrEqual(t, length, int64(2))
}

func TestLoggerNotifierWritesRecord(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewWithWriter(&buf, "info", ""))
	require.NoError(t, n.Publish(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), `"amount":"1.5"`)

	var nilNotifier *LoggerNotifier
	assert.NoError(t, nilNotifier.Publish(context.Background(), sampleEvent()))
}

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, ledger.Event) error { return f.err }

type countingSink struct{ n int }

func (c *countingSink) Publish(context.Context, ledger.Event) error {
	c.n++
	return nil
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingSink{}
	fan := Fanout{failingSink{err: boom}, nil, counter}

	err := fan.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, counter.n)
}
