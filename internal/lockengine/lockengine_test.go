package lockengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/yyle88/must"
	"github.com/yyle88/rese"

	"github.com/go-xlan/redis-sess-suo/internal/lockengine"
)

type fakeProber struct {
	alive bool
}

func (f fakeProber) Identity() string    { return "fake-host|1" }
func (f fakeProber) IsAlive(string) bool { return f.alive }

func newTestClient(t *testing.T) redis.Cmdable {
	t.Helper()
	miniRedis := rese.P1(miniredis.Run())
	t.Cleanup(miniRedis.Close)

	client := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	must.Done(client.Ping(context.Background()).Err())
	return client
}

func baseConfig() lockengine.Config {
	return lockengine.Config{
		SleepTime:          10 * time.Millisecond,
		BreakAfter:         100 * time.Millisecond,
		FailAfter:          50 * time.Millisecond,
		MaxConcurrency:     6,
		DetectZombiesEvery: 20,
	}
}

func TestAcquireUncontended(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	outcome, err := lockengine.Acquire(ctx, client, "sess_a", "host|1", baseConfig(), fakeProber{alive: true}, nil)
	require.NoError(t, err)
	require.True(t, outcome.HasLock)
	require.Equal(t, 0, outcome.Tries)
	require.False(t, outcome.Broken)
}

func TestAcquireGivesUpWhenOwnerStaysAliveAndHolds(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "sess_b", "lock", 1, "pid", "other-host|999").Err())

	cfg := baseConfig()
	// Give-up happens at breakAfter+failAfter ticks; with failAfter zero that
	// is the break-after tick itself (6), so the loop abandons before the
	// break check of the following tick can steal the lock.
	cfg.BreakAfter = 30 * time.Millisecond
	cfg.FailAfter = 0
	cfg.SleepTime = 5 * time.Millisecond

	outcome, err := lockengine.Acquire(ctx, client, "sess_b", "host|1", cfg, fakeProber{alive: true}, nil)
	require.NoError(t, err)
	require.False(t, outcome.HasLock)
	require.Greater(t, outcome.Tries, 0)
}

func TestAcquireBreaksStaleLock(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "sess_c", "lock", 1, "pid", "dead-host|42").Err())

	cfg := baseConfig()
	cfg.SleepTime = 5 * time.Millisecond
	cfg.BreakAfter = 20 * time.Millisecond // ~4 ticks
	cfg.FailAfter = 1 * time.Hour

	outcome, err := lockengine.Acquire(ctx, client, "sess_c", "host|1", cfg, fakeProber{alive: true}, nil)
	require.NoError(t, err)
	require.True(t, outcome.HasLock)
	require.True(t, outcome.Broken)
}

func TestAcquireClearsZombieOwner(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "sess_d", "lock", 1, "pid", "host|dead-pid").Err())

	cfg := baseConfig()
	cfg.SleepTime = 1 * time.Millisecond
	cfg.BreakAfter = 1 * time.Hour
	cfg.FailAfter = 1 * time.Hour
	cfg.DetectZombiesEvery = 20

	// The owner is reported dead; within 20 ticks the zombie-owner check
	// should reset lock to 0, letting our very next increment take it.
	outcome, err := lockengine.Acquire(ctx, client, "sess_d", "host|1", cfg, fakeProber{alive: false}, nil)
	require.NoError(t, err)
	require.True(t, outcome.HasLock)
}

func TestAcquireAdmissionControlRejectsOverCapacity(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "sess_e", "lock", 1, "pid", "other-host|1", "wait", 2).Err())

	cfg := baseConfig()
	cfg.SleepTime = 5 * time.Millisecond
	cfg.BreakAfter = 1 * time.Hour
	cfg.FailAfter = 1 * time.Hour
	cfg.MaxConcurrency = 2

	_, err := lockengine.Acquire(ctx, client, "sess_e", "host|1", cfg, fakeProber{alive: true}, nil)
	require.ErrorIs(t, err, lockengine.ErrConcurrentConnectionsExceeded)

	waitVal, err := client.HGet(ctx, "sess_e", "wait").Int64()
	require.NoError(t, err)
	require.Equal(t, int64(2), waitVal) // registered (+1) then released on rejection (-1)
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.HSet(context.Background(), "sess_f", "lock", 1, "pid", "other-host|1").Err())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	cfg := baseConfig()
	cfg.SleepTime = 5 * time.Millisecond
	cfg.BreakAfter = 1 * time.Hour
	cfg.FailAfter = 1 * time.Hour

	_, err := lockengine.Acquire(ctx, client, "sess_f", "host|1", cfg, fakeProber{alive: true}, nil)
	require.Error(t, err)
}
