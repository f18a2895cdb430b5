// Package metrics exposes Prometheus counters for the site backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Delivery outcomes for email and SMS
const (
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
	OutcomeSkipped    = "skipped"
)

// Recorder is what services and middleware report to
type Recorder interface {
	RecordLogin(outcome string)
	RecordNotification(kind, outcome string)
	RecordSMS(kind, outcome string)
	RecordBreakerState(name string, state int)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector records metrics into a Prometheus registry
type Collector struct {
	logins        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sms           *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spadoc_admin_login_total",
			Help: "Admin login attempts by outcome",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spadoc_email_notifications_total",
			Help: "Email notifications by kind and outcome",
		}, []string{"kind", "outcome"}),
		sms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spadoc_sms_total",
			Help: "SMS messages by kind and outcome",
		}, []string{"kind", "outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spadoc_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spadoc_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spadoc_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.logins,
		c.notifications,
		c.sms,
		c.breakerState,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordNotification(kind, outcome string) {
	c.notifications.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordSMS(kind, outcome string) {
	c.sms.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) RecordBreakerState(name string, state int) {
	c.breakerState.WithLabelValues(name).Set(float64(state))
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordLogin(string) {}

func (Nop) RecordNotification(string, string) {}

func (Nop) RecordSMS(string, string) {}

func (Nop) RecordBreakerState(string, int) {}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
