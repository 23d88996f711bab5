package adgate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pakreward/rewards-service/internal/idempotency"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupOnce(t *testing.T) idempotency.Manager {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return idempotency.NewManager(idempotency.NewRedisStore(client, testLogger()), testLogger())
}

func TestRun_FiresAfterCountdown(t *testing.T) {
	gate := New(10*time.Millisecond, nil, testLogger())

	fired := false
	err := gate.Run(context.Background(), func(ctx context.Context) error {
		fired = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, fired)
}

func TestRun_CancelledContextSkipsContinuation(t *testing.T) {
	gate := New(time.Hour, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fired := false
	err := gate.Run(ctx, func(ctx context.Context) error {
		fired = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, fired)
}

func TestRun_NilContinuation(t *testing.T) {
	gate := New(time.Millisecond, nil, testLogger())

	assert.NoError(t, gate.Run(context.Background(), nil))
}

func TestRunGuarded_AtMostOncePerKey(t *testing.T) {
	gate := New(time.Millisecond, setupOnce(t), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) error {
		calls++
		return nil
	}

	fromCache, err := gate.RunGuarded(ctx, "daily:a@example.com", time.Hour, fn)
	require.NoError(t, err)
	assert.False(t, fromCache)

	fromCache, err = gate.RunGuarded(ctx, "daily:a@example.com", time.Hour, fn)
	require.NoError(t, err)
	assert.True(t, fromCache)

	assert.Equal(t, 1, calls)
}

func TestRunGuarded_WithoutManagerDegradesToRun(t *testing.T) {
	gate := New(time.Millisecond, nil, testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) error {
		calls++
		return nil
	}

	for i := 0; i < 2; i++ {
		fromCache, err := gate.RunGuarded(ctx, "daily:a@example.com", time.Hour, fn)
		require.NoError(t, err)
		assert.False(t, fromCache)
	}

	assert.Equal(t, 2, calls)
}
