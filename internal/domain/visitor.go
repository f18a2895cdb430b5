package domain

import (
	"time"
)

// RateLimitInfo describes one identity's position in a fixed rate-limit window
type RateLimitInfo struct {
	Identity     string        `json:"identity"`
	RequestCount int64         `json:"request_count"`
	Limit        int64         `json:"limit"`
	WindowStart  time.Time     `json:"window_start"`
	TTL          time.Duration `json:"ttl"` // time until the window resets
	IsAllowed    bool          `json:"is_allowed"`
}

// Remaining returns how many more requests the window accepts
func (r RateLimitInfo) Remaining() int64 {
	if r.RequestCount >= r.Limit {
		return 0
	}
	return r.Limit - r.RequestCount
}

// VisitNotificationSettings controls which page visits trigger an email to the business
type VisitNotificationSettings struct {
	Enabled          bool     `json:"enabled"`
	NotifyEmail      string   `json:"notifyEmail"`
	ExcludeIPs       []string `json:"excludeIPs"`
	ExcludePaths     []string `json:"excludePaths"`
	BotUserAgents    []string `json:"botUserAgents"`
	RateLimitMinutes int      `json:"rateLimitMinutes"`
}

// Always-excluded loopback addresses; admin updates to ExcludeIPs are appended to these.
var DefaultExcludedIPs = []string{"127.0.0.1", "::1"}

// DefaultVisitNotificationSettings returns the settings the server starts with
func DefaultVisitNotificationSettings(notifyEmail string, enabled bool, minutes int) VisitNotificationSettings {
	return VisitNotificationSettings{
		Enabled:          enabled,
		NotifyEmail:      notifyEmail,
		ExcludeIPs:       append([]string(nil), DefaultExcludedIPs...),
		ExcludePaths:     []string{"/track-page-view", "/analytics-data", "/favicon.ico", "/robots.txt", "/sitemap.xml", "/health", "/metrics", "/uploads/"},
		BotUserAgents:    []string{"bot", "crawler", "spider", "scraper", "facebook", "twitter", "google", "bing", "yahoo"},
		RateLimitMinutes: minutes,
	}
}

// VisitNotificationUpdate is the admin request body; nil fields are left unchanged
type VisitNotificationUpdate struct {
	Enabled          *bool    `json:"enabled"`
	NotifyEmail      *string  `json:"notifyEmail"`
	ExcludeIPs       []string `json:"excludeIPs"`
	RateLimitMinutes *int     `json:"rateLimitMinutes"`
}

// Visit is one page view that passed the notification filters
type Visit struct {
	Page         string    `json:"page"`
	IP           string    `json:"ip"`
	UserAgent    string    `json:"userAgent"`
	Referrer     string    `json:"referrer"`
	FullURL      string    `json:"fullUrl"`
	Timestamp    time.Time `json:"timestamp"`
	IsNewVisitor bool      `json:"isNewVisitor"`
}
