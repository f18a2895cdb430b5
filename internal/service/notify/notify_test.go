package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spadoc/internal/domain"
	"spadoc/internal/service/ratelimit"
	"spadoc/pkg/geo"
	"spadoc/pkg/logger"
	"spadoc/pkg/mailer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.sent...)
}

type staticLocator struct{}

func (staticLocator) Resolve(_ context.Context, ip string) geo.Location {
	return geo.Location{Label: "Denver, Colorado, United States", City: "Denver", Country: "United States", ISP: "Comcast"}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newNotifier(t *testing.T, sender mailer.Sender) (*Notifier, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)}
	n := New(Config{
		From:          "site@example.com",
		BusinessEmail: "owner@example.com",
		SiteURL:       "https://www.spadoc.tech/",
		Enabled:       true,
		WindowMinutes: 60,
	}, sender, staticLocator{}, ratelimit.NewDebouncer(time.Hour, clock.Now), nil, logger.NewNop())
	n.now = clock.Now
	return n, clock
}

func drain(t *testing.T, n *Notifier) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.Stop(ctx))
}

func browserVisit(ip, path string) VisitRequest {
	return VisitRequest{
		Method:    "GET",
		Path:      path,
		IP:        ip,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) Safari/605.1.15",
	}
}

func TestObserveVisit_SendSuppressSend(t *testing.T) {
	sender := &recordingSender{}
	n, clock := newNotifier(t, sender)

	assert.True(t, n.ObserveVisit(browserVisit("203.0.113.7", "/services")))
	clock.Advance(30 * time.Minute)
	assert.False(t, n.ObserveVisit(browserVisit("203.0.113.7", "/gallery")))
	clock.Advance(31 * time.Minute)
	assert.True(t, n.ObserveVisit(browserVisit("203.0.113.7", "/blog")))

	drain(t, n)
	msgs := sender.messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, "owner@example.com", m.To)
		assert.Contains(t, m.Subject, "Visitor from Denver, United States - ")
		assert.Contains(t, m.HTML, "https://www.spadoc.tech/admin/login")
	}
}

func TestObserveVisit_Filters(t *testing.T) {
	tests := []struct {
		name  string
		visit VisitRequest
	}{
		{"excluded path", browserVisit("203.0.113.1", "/track-page-view")},
		{"loopback", browserVisit("127.0.0.1", "/")},
		{"bot", VisitRequest{Method: "GET", Path: "/", IP: "203.0.113.2", UserAgent: "Googlebot/2.1"}},
		{"empty user agent", VisitRequest{Method: "GET", Path: "/", IP: "203.0.113.3"}},
		{"post", VisitRequest{Method: "POST", Path: "/", IP: "203.0.113.4", UserAgent: "Mozilla/5.0"}},
		{"admin", VisitRequest{Method: "GET", Path: "/", IP: "203.0.113.5", UserAgent: "Mozilla/5.0", IsAdmin: true}},
		{"unknown ip", browserVisit("", "/")},
		{"metrics scrape", VisitRequest{Method: "GET", Path: "/metrics", IP: "203.0.113.6", UserAgent: "Prometheus/2.51.0"}},
		{"uptime check", VisitRequest{Method: "GET", Path: "/health", IP: "203.0.113.8", UserAgent: "Go-http-client/1.1"}},
		{"uploaded image", browserVisit("203.0.113.9", "/uploads/gallery/tub.jpg")},
	}

	sender := &recordingSender{}
	n, _ := newNotifier(t, sender)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, n.ObserveVisit(tt.visit))
		})
	}
	drain(t, n)
	assert.Empty(t, sender.messages())
}

func TestObserveVisit_Disabled(t *testing.T) {
	n, _ := newNotifier(t, &recordingSender{})
	settings := n.SetEnabled(false)
	assert.False(t, settings.Enabled)
	assert.False(t, n.ObserveVisit(browserVisit("203.0.113.7", "/")))

	n.SetEnabled(true)
	assert.True(t, n.ObserveVisit(browserVisit("203.0.113.7", "/")))
	drain(t, n)
}

func TestUpdateSettings(t *testing.T) {
	n, clock := newNotifier(t, &recordingSender{})

	minutes := 5
	email := "alerts@example.com"
	settings, err := n.UpdateSettings(domain.VisitNotificationUpdate{
		NotifyEmail:      &email,
		ExcludeIPs:       []string{"198.51.100.9", " "},
		RateLimitMinutes: &minutes,
	})
	require.NoError(t, err)
	assert.Equal(t, "alerts@example.com", settings.NotifyEmail)
	assert.Equal(t, []string{"127.0.0.1", "::1", "198.51.100.9"}, settings.ExcludeIPs)
	assert.Equal(t, 5, settings.RateLimitMinutes)

	assert.False(t, n.ObserveVisit(browserVisit("198.51.100.9", "/")))

	// the new window takes effect for the next decision
	assert.True(t, n.ObserveVisit(browserVisit("203.0.113.7", "/")))
	clock.Advance(5 * time.Minute)
	assert.True(t, n.ObserveVisit(browserVisit("203.0.113.7", "/")))

	zero := 0
	_, err = n.UpdateSettings(domain.VisitNotificationUpdate{RateLimitMinutes: &zero})
	assert.Error(t, err)
	assert.Equal(t, 5, n.Settings().RateLimitMinutes)
	drain(t, n)
}

func TestSettingsReturnsCopy(t *testing.T) {
	n, _ := newNotifier(t, &recordingSender{})
	s := n.Settings()
	s.ExcludeIPs[0] = "changed"
	assert.Equal(t, "127.0.0.1", n.Settings().ExcludeIPs[0])
}

func TestSendTestVisit(t *testing.T) {
	sender := &recordingSender{}
	n, _ := newNotifier(t, sender)

	assert.Equal(t, "owner@example.com", n.SendTestVisit())
	drain(t, n)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, TestVisitPage)
	assert.Contains(t, msgs[0].HTML, TestVisitIP)
}

func TestNotifyContactEscapesInput(t *testing.T) {
	sender := &recordingSender{}
	n, _ := newNotifier(t, sender)

	assert.True(t, n.NotifyContact(domain.ContactRequest{
		Name:    "<b>Eve</b>",
		Phone:   "555-1234",
		Email:   "eve@example.com",
		Message: "<script>alert(1)</script>",
	}))
	drain(t, n)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "New Service Request - General Contact", msgs[0].Subject)
	assert.Equal(t, "owner@example.com", msgs[0].To)
	assert.Equal(t, "eve@example.com", msgs[0].ReplyTo)
	assert.NotContains(t, msgs[0].HTML, "<script>")
	assert.Contains(t, msgs[0].HTML, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, msgs[0].HTML, "555-1234")
}

func TestNotifyContactFormatsPhone(t *testing.T) {
	sender := &recordingSender{}
	n, _ := newNotifier(t, sender)

	assert.True(t, n.NotifyContact(domain.ContactRequest{Name: "Jane", Phone: "303.555.1212", Message: "leak"}))
	drain(t, n)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].HTML, "(303) 555-1212")
}

func TestSendFailureIsNotReturned(t *testing.T) {
	n, _ := newNotifier(t, &recordingSender{err: errors.New("smtp down")})
	assert.True(t, n.NotifyContact(domain.ContactRequest{Message: "hi"}))
	drain(t, n)
}

func TestStopRefusesNewSends(t *testing.T) {
	sender := &recordingSender{}
	n, _ := newNotifier(t, sender)
	drain(t, n)

	assert.False(t, n.NotifyContact(domain.ContactRequest{Message: "late"}))
	assert.False(t, n.ObserveVisit(browserVisit("203.0.113.7", "/")))
	assert.Empty(t, sender.messages())
}
