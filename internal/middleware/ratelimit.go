package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"spadoc/internal/domain"
	"spadoc/internal/metrics"
	"spadoc/internal/service/ratelimit"
	"spadoc/pkg/errors"
	"spadoc/pkg/logger"
)

// LoginLimitMessage is returned once the login window is exhausted
const LoginLimitMessage = "Too many login attempts. Please try again in 15 minutes."

// LoginRateLimit counts every login attempt per client IP. Once the window
// is exhausted the request is rejected before the passcode is looked at.
func LoginRateLimit(limiter ratelimit.WindowLimiter, rec metrics.Recorder, log *logger.Logger) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := limiter.Hit(r.Context(), ClientIP(r))
			if err != nil {
				log.WithError(err).Error("Login rate limiter failed")
			}
			setRateLimitHeaders(w, info)

			if !info.IsAllowed {
				rec.RecordLogin(metrics.LoginRateLimited)
				log.WithFields(map[string]interface{}{
					"identity": info.Identity,
					"attempts": info.RequestCount,
				}).Warn("Login rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(info.TTL)))
				writeErrorResponse(w, errors.NewRateLimitError(LoginLimitMessage), log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, info domain.RateLimitInfo) {
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
	h.Set("RateLimit-Remaining", strconv.FormatInt(info.Remaining(), 10))
	h.Set("RateLimit-Reset", strconv.Itoa(retryAfterSeconds(info.TTL)))
}

// ThrottleConfig configures the public write throttle
type ThrottleConfig struct {
	Rate            rate.Limit
	Burst           int
	CleanupInterval time.Duration
}

// DefaultThrottleConfig allows 30 requests per minute per IP with a burst of 10
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Rate:            rate.Limit(30.0 / 60.0),
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
	}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle is a per-IP token bucket for public write endpoints
type Throttle struct {
	config ThrottleConfig
	log    *logger.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewThrottle starts a throttle and its cleanup goroutine
func NewThrottle(config ThrottleConfig, log *logger.Logger) *Throttle {
	t := &Throttle{
		config:   config,
		log:      log,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Stop ends the cleanup goroutine
func (t *Throttle) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// Middleware rejects requests over the client's rate with 429
func (t *Throttle) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if ip == "" {
				ip = ratelimit.UnknownIdentity
			}

			if !t.limiter(ip).Allow() {
				t.log.WithFields(map[string]interface{}{
					"ip":   ip,
					"path": r.URL.Path,
				}).Warn("Public throttle exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(time.Duration(float64(time.Second)/float64(t.config.Rate)))))
				writeErrorResponse(w, errors.NewRateLimitError("Too many requests. Please slow down."), t.log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Len returns the number of tracked clients
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

func (t *Throttle) limiter(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	cl, ok := t.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(t.config.Rate, t.config.Burst)}
		t.limiters[ip] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter
}

func (t *Throttle) cleanupLoop() {
	ticker := time.NewTicker(t.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup(time.Now())
		case <-t.stopCh:
			return
		}
	}
}

// cleanup drops clients idle for more than two cleanup intervals
func (t *Throttle) cleanup(now time.Time) {
	ttl := t.config.CleanupInterval * 2

	t.mu.Lock()
	defer t.mu.Unlock()
	for ip, cl := range t.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(t.limiters, ip)
		}
	}
}
