package infra

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClientAppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0", RedisOptions{PoolSize: 7, Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	opts := client.Options()
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Equal(t, time.Second, opts.WriteTimeout)
}

func TestNewRedisClientRejectsBadURLs(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "", RedisOptions{})
	require.ErrorContains(t, err, "required")

	_, err = NewRedisClient(context.Background(), "http://nope", RedisOptions{})
	require.ErrorContains(t, err, "parse redis url")
}

func TestNewRedisClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), "redis://"+addr, RedisOptions{Timeout: 200 * time.Millisecond})
	require.ErrorContains(t, err, "ping redis")
}
