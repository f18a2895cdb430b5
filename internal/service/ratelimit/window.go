// Package ratelimit implements the two limiters guarding the admin login and
// the visit notification email.
//
// The login limiter is a fixed window: the first attempt opens a window of a
// fixed length, every attempt inside it counts, and when the window ends the
// count drops straight back to zero. The visit limiter is a debounce: it
// remembers when it last let an identity through and suppresses anything
// closer than the configured spacing.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"spadoc/internal/domain"
	"spadoc/pkg/logger"
	"spadoc/pkg/redis"
)

// UnknownIdentity is the shared bucket for clients whose address could not
// be determined. They are limited together rather than let through.
const UnknownIdentity = "unknown"

// WindowLimiter counts attempts per identity in fixed windows
type WindowLimiter interface {
	// Hit records one attempt and reports whether it is within the limit
	Hit(ctx context.Context, identity string) (domain.RateLimitInfo, error)
}

func normalizeIdentity(identity string) string {
	if identity == "" {
		return UnknownIdentity
	}
	return identity
}

type windowEntry struct {
	count int64
	start time.Time
}

// MemoryWindow is an in-process fixed-window limiter
type MemoryWindow struct {
	limit  int64
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewMemoryWindow allows limit attempts per identity per window
func NewMemoryWindow(limit int, window time.Duration, now func() time.Time) *MemoryWindow {
	if now == nil {
		now = time.Now
	}
	return &MemoryWindow{
		limit:   int64(limit),
		window:  window,
		now:     now,
		entries: make(map[string]*windowEntry),
	}
}

// Hit records an attempt. It never fails.
func (m *MemoryWindow) Hit(_ context.Context, identity string) (domain.RateLimitInfo, error) {
	identity = normalizeIdentity(identity)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[identity]
	if !ok || !now.Before(e.start.Add(m.window)) {
		e = &windowEntry{start: now}
		m.entries[identity] = e
	}
	e.count++

	return domain.RateLimitInfo{
		Identity:     identity,
		RequestCount: e.count,
		Limit:        m.limit,
		WindowStart:  e.start,
		TTL:          e.start.Add(m.window).Sub(now),
		IsAllowed:    e.count <= m.limit,
	}, nil
}

// Sweep drops identities whose window has ended; they would reset on their
// next hit anyway. Returns the number removed.
func (m *MemoryWindow) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if !now.Before(e.start.Add(m.window)) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities
func (m *MemoryWindow) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisWindow keeps the window counters in Redis so they survive restarts.
// When Redis fails it degrades to an in-memory window instead of letting
// the attempt through unchecked.
type RedisWindow struct {
	client   *redis.Client
	limit    int64
	window   time.Duration
	fallback *MemoryWindow
	log      *logger.Logger
}

// NewRedisWindow creates a Redis backed limiter
func NewRedisWindow(client *redis.Client, limit int, window time.Duration, fallback *MemoryWindow, log *logger.Logger) *RedisWindow {
	return &RedisWindow{
		client:   client,
		limit:    int64(limit),
		window:   window,
		fallback: fallback,
		log:      log.Component("ratelimit"),
	}
}

// Hit records an attempt in Redis
func (r *RedisWindow) Hit(ctx context.Context, identity string) (domain.RateLimitInfo, error) {
	identity = normalizeIdentity(identity)
	key := r.client.KeyBuilder.KeyLoginAttempts(hashIdentity(identity))

	count, ttl, err := r.client.IncrWindow(ctx, key, r.window)
	if err != nil {
		r.log.WithError(err).Warn("Redis rate limit unavailable, using in-memory window")
		return r.fallback.Hit(ctx, identity)
	}

	now := time.Now()
	return domain.RateLimitInfo{
		Identity:     identity,
		RequestCount: count,
		Limit:        r.limit,
		WindowStart:  now.Add(ttl - r.window),
		TTL:          ttl,
		IsAllowed:    count <= r.limit,
	}, nil
}

// hashIdentity keeps raw client addresses out of Redis keys
func hashIdentity(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:8])
}
