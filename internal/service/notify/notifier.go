// Package notify emails the business owner about site activity: contact
// form submissions and, optionally, individual page visits.
//
// Sending never blocks a request. Each email is rendered and delivered on
// its own goroutine with its own timeout, and Stop waits for those
// goroutines during shutdown.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"spadoc/internal/domain"
	"spadoc/internal/metrics"
	"spadoc/internal/service/ratelimit"
	"spadoc/pkg/geo"
	"spadoc/pkg/logger"
	"spadoc/pkg/mailer"
)

// Notification kinds, used in logs and metrics
const (
	KindVisit   = "visit"
	KindContact = "contact"
)

const (
	defaultSendTimeout = 30 * time.Second
	timeLayout         = "Jan 2, 2006 3:04:05 PM MST"
)

// Test visit values used by the admin "send test" button
const (
	TestVisitIP   = "192.168.1.100"
	TestVisitPage = "/test-notification"
)

// Locator resolves an IP address to a location
type Locator interface {
	Resolve(ctx context.Context, ip string) geo.Location
}

// Config holds the addresses and limits the notifier starts with
type Config struct {
	From          string
	BusinessEmail string
	SiteURL       string
	Enabled       bool
	WindowMinutes int
	SendTimeout   time.Duration
}

// VisitRequest is what the middleware knows about an incoming request
type VisitRequest struct {
	Method    string
	Path      string
	IP        string
	UserAgent string
	Referrer  string
	FullURL   string
	IsAdmin   bool
}

// Notifier decides which events deserve an email and sends them
type Notifier struct {
	sender   mailer.Sender
	locator  Locator
	debounce *ratelimit.Debouncer
	metrics  metrics.Recorder
	log      *logger.Logger
	now      func() time.Time

	from          string
	businessEmail string
	adminURL      string
	sendTimeout   time.Duration

	mu       sync.RWMutex
	settings domain.VisitNotificationSettings

	// dispatchMu guards stopped and wg.Add so no dispatch starts after Stop
	dispatchMu sync.Mutex
	stopped    bool
	wg         sync.WaitGroup
}

// New creates a notifier
func New(cfg Config, sender mailer.Sender, locator Locator, debounce *ratelimit.Debouncer, rec metrics.Recorder, log *logger.Logger) *Notifier {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if cfg.WindowMinutes > 0 {
		debounce.SetWindow(time.Duration(cfg.WindowMinutes) * time.Minute)
	}

	return &Notifier{
		sender:        sender,
		locator:       locator,
		debounce:      debounce,
		metrics:       rec,
		log:           log.Component("notify"),
		now:           time.Now,
		from:          cfg.From,
		businessEmail: cfg.BusinessEmail,
		adminURL:      strings.TrimRight(cfg.SiteURL, "/") + "/admin/login",
		sendTimeout:   cfg.SendTimeout,
		settings:      domain.DefaultVisitNotificationSettings(cfg.BusinessEmail, cfg.Enabled, cfg.WindowMinutes),
	}
}

// Settings returns a copy of the current visit notification settings
func (n *Notifier) Settings() domain.VisitNotificationSettings {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return copySettings(n.settings)
}

// UpdateSettings applies the non-nil fields of u. Excluded IPs replace the
// admin-supplied list; loopback addresses always stay excluded. A new
// window applies to the next decision.
func (n *Notifier) UpdateSettings(u domain.VisitNotificationUpdate) (domain.VisitNotificationSettings, error) {
	if u.RateLimitMinutes != nil && *u.RateLimitMinutes < 1 {
		return n.Settings(), fmt.Errorf("rateLimitMinutes must be positive, got %d", *u.RateLimitMinutes)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if u.Enabled != nil {
		n.settings.Enabled = *u.Enabled
	}
	if u.NotifyEmail != nil && strings.TrimSpace(*u.NotifyEmail) != "" {
		n.settings.NotifyEmail = strings.TrimSpace(*u.NotifyEmail)
	}
	if u.ExcludeIPs != nil {
		ips := append([]string(nil), domain.DefaultExcludedIPs...)
		for _, ip := range u.ExcludeIPs {
			if ip = strings.TrimSpace(ip); ip != "" {
				ips = append(ips, ip)
			}
		}
		n.settings.ExcludeIPs = ips
	}
	if u.RateLimitMinutes != nil {
		n.settings.RateLimitMinutes = *u.RateLimitMinutes
		n.debounce.SetWindow(time.Duration(*u.RateLimitMinutes) * time.Minute)
	}
	return copySettings(n.settings), nil
}

// SetEnabled switches visit notifications on or off
func (n *Notifier) SetEnabled(enabled bool) domain.VisitNotificationSettings {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.settings.Enabled = enabled
	return copySettings(n.settings)
}

func copySettings(s domain.VisitNotificationSettings) domain.VisitNotificationSettings {
	s.ExcludeIPs = append([]string(nil), s.ExcludeIPs...)
	s.ExcludePaths = append([]string(nil), s.ExcludePaths...)
	s.BotUserAgents = append([]string(nil), s.BotUserAgents...)
	return s
}

// skipReason returns why a visit is not worth an email, or "" when it is
func (n *Notifier) skipReason(v VisitRequest) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s := n.settings

	if !s.Enabled {
		return "disabled"
	}
	for _, p := range s.ExcludePaths {
		if strings.Contains(v.Path, p) {
			return "excluded_path"
		}
	}
	for _, ip := range s.ExcludeIPs {
		if v.IP == ip {
			return "excluded_ip"
		}
	}
	if v.IsAdmin {
		return "admin"
	}
	if isBot(v.UserAgent, s.BotUserAgents) {
		return "bot"
	}
	if v.Method != "GET" {
		return "method"
	}
	if v.IP == "" {
		return "unknown_ip"
	}
	return ""
}

func isBot(userAgent string, markers []string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, m := range markers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// ObserveVisit runs the filters and the per-IP debounce, then sends the
// notification in the background. Reports whether a send was started.
func (n *Notifier) ObserveVisit(v VisitRequest) bool {
	if reason := n.skipReason(v); reason != "" {
		return false
	}

	decision := n.debounce.Allow(v.IP)
	if !decision.Allowed {
		n.metrics.RecordNotification(KindVisit, metrics.OutcomeSuppressed)
		return false
	}

	visit := domain.Visit{
		Page:         v.Path,
		IP:           v.IP,
		UserAgent:    v.UserAgent,
		Referrer:     v.Referrer,
		FullURL:      v.FullURL,
		Timestamp:    n.now(),
		IsNewVisitor: decision.IsNew,
	}
	return n.dispatch(KindVisit, func(ctx context.Context) error {
		return n.sendVisit(ctx, visit)
	})
}

// SendTestVisit sends a sample visit notification, bypassing filters and
// debounce. Returns the address it was sent to.
func (n *Notifier) SendTestVisit() string {
	visit := domain.Visit{
		Page:      TestVisitPage,
		IP:        TestVisitIP,
		UserAgent: "Mozilla/5.0 (Test Browser)",
		Referrer:  "Admin Test",
		FullURL:   strings.TrimSuffix(n.adminURL, "/admin/login") + TestVisitPage,
		Timestamp: n.now(),
	}
	n.dispatch(KindVisit, func(ctx context.Context) error {
		return n.sendVisit(ctx, visit)
	})
	return n.Settings().NotifyEmail
}

func (n *Notifier) sendVisit(ctx context.Context, visit domain.Visit) error {
	loc := n.locator.Resolve(ctx, visit.IP)

	body, err := render(visitTemplate, map[string]interface{}{
		"Visit":    visit,
		"Location": loc,
		"Time":     visit.Timestamp.Format(timeLayout),
		"AdminURL": n.adminURL,
	})
	if err != nil {
		return fmt.Errorf("render visit email: %w", err)
	}

	return n.sender.Send(ctx, mailer.Message{
		From:    n.from,
		To:      n.Settings().NotifyEmail,
		Subject: fmt.Sprintf("Visitor from %s, %s - %s", loc.City, loc.Country, visit.Page),
		HTML:    body,
	})
}

// NotifyContact emails a contact form submission to the business
func (n *Notifier) NotifyContact(req domain.ContactRequest) bool {
	submitted := n.now()
	return n.dispatch(KindContact, func(ctx context.Context) error {
		source := req.Source
		if source == "" {
			source = domain.DefaultSource
		}
		body, err := render(contactTemplate, map[string]interface{}{
			"Request": req,
			"Service": req.ServiceOrDefault(),
			"Source":  source,
			"Time":    submitted.Format(timeLayout),
		})
		if err != nil {
			return fmt.Errorf("render contact email: %w", err)
		}
		return n.sender.Send(ctx, mailer.Message{
			From:    n.from,
			To:      n.businessEmail,
			ReplyTo: strings.TrimSpace(req.Email),
			Subject: "New Service Request - " + req.ServiceOrDefault(),
			HTML:    body,
		})
	})
}

// dispatch runs send on its own goroutine with a fresh timeout. Errors are
// logged and counted; callers never see them.
func (n *Notifier) dispatch(kind string, send func(ctx context.Context) error) bool {
	n.dispatchMu.Lock()
	if n.stopped {
		n.dispatchMu.Unlock()
		n.metrics.RecordNotification(kind, metrics.OutcomeSkipped)
		return false
	}
	n.wg.Add(1)
	n.dispatchMu.Unlock()

	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			n.metrics.RecordNotification(kind, metrics.OutcomeFailed)
			n.log.WithError(err).WithField("kind", kind).Error("Failed to send notification")
			return
		}
		n.metrics.RecordNotification(kind, metrics.OutcomeSent)
		n.log.WithField("kind", kind).Info("Notification sent")
	}()
	return true
}

// Stop refuses new sends and waits for in-flight ones until ctx is done
func (n *Notifier) Stop(ctx context.Context) error {
	n.dispatchMu.Lock()
	n.stopped = true
	n.dispatchMu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for notifications: %w", ctx.Err())
	}
}
