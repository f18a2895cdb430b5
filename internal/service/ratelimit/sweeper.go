package ratelimit

import (
	"context"
	"sync"
	"time"

	"spadoc/pkg/logger"
)

// SweepInterval is how often stale limiter entries are removed
const SweepInterval = 10 * time.Minute

// Sweepable is anything holding per-identity state that goes stale
type Sweepable interface {
	Sweep(now time.Time) int
}

// Sweeper periodically clears stale entries so limiter memory stays bounded
// by recent traffic
type Sweeper struct {
	targets  map[string]Sweepable
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger

	mu        sync.Mutex
	ticker    *time.Ticker
	stop      chan struct{}
	done      chan struct{}
	isRunning bool
}

// NewSweeper creates a sweeper over the named targets
func NewSweeper(targets map[string]Sweepable, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = SweepInterval
	}
	return &Sweeper{
		targets:  targets,
		interval: interval,
		now:      time.Now,
		log:      log.Component("sweeper"),
	}
}

// Start begins the periodic sweep
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}

	s.ticker = time.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, s.ticker, s.stop, s.done)

	s.isRunning = true
	s.log.WithField("interval", s.interval.String()).Debug("Limiter sweeper started")
}

// Stop halts the sweep and waits for the loop to exit
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	close(s.stop)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()

	<-done
}

// SweepNow runs one pass over every target
func (s *Sweeper) SweepNow() int {
	now := s.now()
	total := 0
	for name, target := range s.targets {
		n := target.Sweep(now)
		if n > 0 {
			s.log.WithFields(map[string]interface{}{
				"target":  name,
				"removed": n,
			}).Debug("Swept stale limiter entries")
		}
		total += n
	}
	return total
}

func (s *Sweeper) loop(ctx context.Context, ticker *time.Ticker, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ticker.C:
			s.SweepNow()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
