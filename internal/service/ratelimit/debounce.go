package ratelimit

import (
	"sync"
	"time"
)

// NewVisitorAfter is how long an identity must be quiet before its next
// visit counts as a new visitor
const NewVisitorAfter = 24 * time.Hour

// DebounceResult describes one debounce decision
type DebounceResult struct {
	Allowed bool
	// IsNew is true when the identity was last let through more than
	// NewVisitorAfter ago, or never
	IsNew bool
}

// Debouncer lets at most one event per identity through per window
type Debouncer struct {
	now func() time.Time

	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewDebouncer creates a debouncer with the given minimum spacing
func NewDebouncer(window time.Duration, now func() time.Time) *Debouncer {
	if now == nil {
		now = time.Now
	}
	return &Debouncer{
		now:    now,
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow decides and records in one step, so two concurrent callers for the
// same identity cannot both be let through. An empty identity is never
// allowed.
func (d *Debouncer) Allow(identity string) DebounceResult {
	if identity == "" {
		return DebounceResult{}
	}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	last, seen := d.last[identity]
	if seen && now.Sub(last) < d.window {
		return DebounceResult{}
	}
	d.last[identity] = now
	return DebounceResult{
		Allowed: true,
		IsNew:   !seen || now.Sub(last) > NewVisitorAfter,
	}
}

// Window returns the current spacing
func (d *Debouncer) Window() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}

// SetWindow changes the spacing; it applies to the next decision
func (d *Debouncer) SetWindow(window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.window = window
}

// Sweep forgets identities that can no longer affect a decision: older than
// both the window and the new-visitor horizon. Returns the number removed.
func (d *Debouncer) Sweep(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	horizon := d.window
	if NewVisitorAfter > horizon {
		horizon = NewVisitorAfter
	}

	removed := 0
	for id, last := range d.last {
		if now.Sub(last) > horizon {
			delete(d.last, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.last)
}
