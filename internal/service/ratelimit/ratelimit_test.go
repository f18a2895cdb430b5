package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spadoc/pkg/logger"
	"spadoc/pkg/redis"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryWindow_FourthAttemptRejected(t *testing.T) {
	clock := newFakeClock()
	w := NewMemoryWindow(3, 15*time.Minute, clock.Now)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		info, err := w.Hit(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, info.IsAllowed, "attempt %d", i)
		assert.Equal(t, int64(i), info.RequestCount)
		clock.Advance(time.Minute)
	}

	info, err := w.Hit(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, info.IsAllowed)
	assert.Equal(t, int64(0), info.Remaining())
	assert.Equal(t, 12*time.Minute, info.TTL)

	// other clients are unaffected
	info, _ = w.Hit(ctx, "198.51.100.1")
	assert.True(t, info.IsAllowed)
}

func TestMemoryWindow_ResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	w := NewMemoryWindow(3, 15*time.Minute, clock.Now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = w.Hit(ctx, "203.0.113.7")
	}

	// later attempts do not extend the window
	clock.Advance(15 * time.Minute)
	info, err := w.Hit(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, info.IsAllowed)
	assert.Equal(t, int64(1), info.RequestCount)
}

func TestMemoryWindow_UnknownIdentitySharesBucket(t *testing.T) {
	w := NewMemoryWindow(3, 15*time.Minute, newFakeClock().Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = w.Hit(ctx, "")
	}
	info, _ := w.Hit(ctx, UnknownIdentity)
	assert.False(t, info.IsAllowed)
	assert.Equal(t, UnknownIdentity, info.Identity)
}

func TestMemoryWindow_Sweep(t *testing.T) {
	clock := newFakeClock()
	w := NewMemoryWindow(3, 15*time.Minute, clock.Now)
	ctx := context.Background()

	_, _ = w.Hit(ctx, "a")
	clock.Advance(10 * time.Minute)
	_, _ = w.Hit(ctx, "b")

	assert.Equal(t, 0, w.Sweep(clock.Now()))
	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, w.Sweep(clock.Now()))
	assert.Equal(t, 1, w.Len())
}

func setupRedisWindow(t *testing.T) (*miniredis.Miniredis, *RedisWindow, *MemoryWindow) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	fallback := NewMemoryWindow(3, 15*time.Minute, nil)
	return mr, NewRedisWindow(client, 3, 15*time.Minute, fallback, logger.NewNop()), fallback
}

func TestRedisWindow_LimitAndExpiry(t *testing.T) {
	mr, w, _ := setupRedisWindow(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		info, err := w.Hit(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, info.IsAllowed, "attempt %d", i)
	}
	info, err := w.Hit(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, info.IsAllowed)
	assert.Equal(t, int64(4), info.RequestCount)
	assert.LessOrEqual(t, info.TTL, 15*time.Minute)

	mr.FastForward(15 * time.Minute)

	info, err = w.Hit(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, info.IsAllowed)
	assert.Equal(t, int64(1), info.RequestCount)
}

func TestRedisWindow_KeysDoNotContainAddress(t *testing.T) {
	mr, w, _ := setupRedisWindow(t)

	_, err := w.Hit(context.Background(), "203.0.113.7")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "203.0.113.7")
	assert.Contains(t, keys[0], "spadoc:dev:ratelimit:login:")
}

func TestRedisWindow_FallsBackToMemory(t *testing.T) {
	mr, w, fallback := setupRedisWindow(t)
	mr.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		info, err := w.Hit(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, info.IsAllowed)
	}
	info, err := w.Hit(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, info.IsAllowed)
	assert.Equal(t, 1, fallback.Len())
}

func TestDebouncer_SendSuppressSend(t *testing.T) {
	clock := newFakeClock()
	d := NewDebouncer(60*time.Minute, clock.Now)

	first := d.Allow("203.0.113.7")
	assert.True(t, first.Allowed)
	assert.True(t, first.IsNew)

	clock.Advance(59 * time.Minute)
	assert.False(t, d.Allow("203.0.113.7").Allowed)

	clock.Advance(time.Minute)
	again := d.Allow("203.0.113.7")
	assert.True(t, again.Allowed)
	assert.False(t, again.IsNew)

	clock.Advance(25 * time.Hour)
	assert.True(t, d.Allow("203.0.113.7").IsNew)
}

func TestDebouncer_UnknownIdentityNeverAllowed(t *testing.T) {
	d := NewDebouncer(time.Minute, newFakeClock().Now)
	assert.False(t, d.Allow("").Allowed)
	assert.Equal(t, 0, d.Len())
}

func TestDebouncer_SetWindowAppliesToNextDecision(t *testing.T) {
	clock := newFakeClock()
	d := NewDebouncer(60*time.Minute, clock.Now)

	d.Allow("a")
	clock.Advance(10 * time.Minute)
	assert.False(t, d.Allow("a").Allowed)

	d.SetWindow(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, d.Window())
	assert.True(t, d.Allow("a").Allowed)
}

func TestDebouncer_ConcurrentCallersOnlyOneWins(t *testing.T) {
	d := NewDebouncer(time.Hour, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Allow("203.0.113.7").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, allowed)
}

func TestSweeper_SweepNow(t *testing.T) {
	clock := newFakeClock()
	window := NewMemoryWindow(3, 15*time.Minute, clock.Now)
	debounce := NewDebouncer(time.Hour, clock.Now)

	_, _ = window.Hit(context.Background(), "a")
	debounce.Allow("a")

	s := NewSweeper(map[string]Sweepable{"login": window, "visits": debounce}, time.Hour, logger.NewNop())
	s.now = func() time.Time { return clock.Now().Add(25 * time.Hour) }

	assert.Equal(t, 2, s.SweepNow())
	assert.Equal(t, 0, window.Len())
	assert.Equal(t, 0, debounce.Len())
}

func TestSweeper_StartStop(t *testing.T) {
	s := NewSweeper(map[string]Sweepable{}, time.Millisecond, logger.NewNop())
	s.Start(context.Background())
	s.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	s.Stop()
}
