package domain

import (
	"math"
	"strings"
	"time"
)

// Analytics is the site's counters document. Keys are created lazily on
// first write and nothing is ever evicted.
type Analytics struct {
	// date -> views
	BlogPageViews      map[string]int              `json:"blogPageViews"`
	// title -> date -> count
	ArticleExpansions  map[string]map[string]int   `json:"articleExpansions"`
	ContactSubmissions []ContactSubmission         `json:"contactSubmissions"`
	// page -> date -> count
	PageViews          map[string]map[string]int   `json:"pageViews"`
	CustomerJourneys   map[string]*CustomerJourney `json:"customerJourneys"`
}

// NewAnalytics returns an empty analytics document
func NewAnalytics() *Analytics {
	a := &Analytics{}
	a.Normalize()
	return a
}

// Normalize replaces nil containers so callers can write without checks.
// Documents loaded from older files may lack some keys.
func (a *Analytics) Normalize() {
	if a.BlogPageViews == nil {
		a.BlogPageViews = map[string]int{}
	}
	if a.ArticleExpansions == nil {
		a.ArticleExpansions = map[string]map[string]int{}
	}
	if a.ContactSubmissions == nil {
		a.ContactSubmissions = []ContactSubmission{}
	}
	if a.PageViews == nil {
		a.PageViews = map[string]map[string]int{}
	}
	if a.CustomerJourneys == nil {
		a.CustomerJourneys = map[string]*CustomerJourney{}
	}
}

// DayKey formats t as the YYYY-MM-DD key used by the daily counters
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CustomerJourney is the ordered list of pages one browser session viewed
type CustomerJourney struct {
	Pages        []JourneyStep `json:"pages"`
	StartTime    string        `json:"startTime"`
	LastActivity string        `json:"lastActivity"`
}

// JourneyStep is one page view inside a journey. Timestamps come from the
// browser and are stored verbatim.
type JourneyStep struct {
	Page      string `json:"page"`
	Timestamp string `json:"timestamp"`
}

// ContactSubmission is the analytics record kept for every contact form post
type ContactSubmission struct {
	Timestamp       time.Time        `json:"timestamp"`
	Service         string           `json:"service"`
	HasPhone        bool             `json:"hasPhone"`
	HasEmail        bool             `json:"hasEmail"`
	MessageLength   int              `json:"messageLength"`
	ReferrerPage    string           `json:"referrerPage"`
	SessionID       string           `json:"sessionId,omitempty"`
	CustomerJourney *CustomerJourney `json:"customerJourney"`
	DayOfWeek       int              `json:"dayOfWeek"`
	HourOfDay       int              `json:"hourOfDay"`
}

// Defaults for contact submissions with missing fields
const (
	DefaultService      = "General Contact"
	DefaultReferrerPage = "unknown"
	DefaultSource       = "unknown"
)

// ContactRequest is the public contact form
type ContactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Zipcode      string `json:"zipcode"`
	Message      string `json:"message"`
	Service      string `json:"service"`
	Source       string `json:"source"`
	SessionID    string `json:"sessionId"`
	ReferrerPage string `json:"referrerPage"`
}

// ServiceOrDefault returns the requested service or DefaultService
func (c ContactRequest) ServiceOrDefault() string {
	if strings.TrimSpace(c.Service) == "" {
		return DefaultService
	}
	return c.Service
}

// MessageLength counts characters, not bytes
func (c ContactRequest) MessageLength() int {
	return len([]rune(c.Message))
}

// TrackPageViewRequest is sent by the browser on each page load
type TrackPageViewRequest struct {
	Page      string `json:"page"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

// TrackArticleRequest is sent when a reader expands an article preview
type TrackArticleRequest struct {
	ArticleTitle string `json:"articleTitle"`
}

// AnalyticsSummary is the aggregated view served to the dashboard
type AnalyticsSummary struct {
	TotalBlogViews       int                             `json:"totalBlogViews"`
	ArticleStats         map[string]ArticleStat          `json:"articleStats"`
	TotalContacts        int                             `json:"totalContacts"`
	ServiceRequests      map[string]*ServiceRequestStats `json:"serviceRequests"`
	ContactTrends        map[string]int                  `json:"contactTrends"`
	CustomerJourneyStats map[string]int                  `json:"customerJourneyStats"`
	PagePerformance      map[string]int                  `json:"pagePerformance"`
}

// ArticleStat summarizes expansions of one article. LastExpanded is the most
// recent day with an expansion, as unix milliseconds.
type ArticleStat struct {
	TotalExpansions int    `json:"totalExpansions"`
	LastExpanded    *int64 `json:"lastExpanded"`
}

// ServiceRequestStats summarizes contact submissions for one service
type ServiceRequestStats struct {
	Count            int            `json:"count"`
	AvgMessageLength int            `json:"avgMessageLength"`
	HasEmailCount    int            `json:"hasEmailCount"`
	HasPhoneCount    int            `json:"hasPhoneCount"`
	ReferrerPages    map[string]int `json:"referrerPages"`
}

var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Summarize aggregates the raw counters for the dashboard
func (a *Analytics) Summarize() AnalyticsSummary {
	s := AnalyticsSummary{
		TotalContacts:        len(a.ContactSubmissions),
		ArticleStats:         make(map[string]ArticleStat, len(a.ArticleExpansions)),
		ServiceRequests:      map[string]*ServiceRequestStats{},
		ContactTrends:        map[string]int{},
		CustomerJourneyStats: map[string]int{},
		PagePerformance:      make(map[string]int, len(a.PageViews)),
	}

	for _, views := range a.BlogPageViews {
		s.TotalBlogViews += views
	}

	for title, days := range a.ArticleExpansions {
		stat := ArticleStat{}
		for day, n := range days {
			stat.TotalExpansions += n
			t, err := time.Parse("2006-01-02", day)
			if err != nil {
				continue
			}
			ms := t.UnixMilli()
			if stat.LastExpanded == nil || ms > *stat.LastExpanded {
				stat.LastExpanded = &ms
			}
		}
		s.ArticleStats[title] = stat
	}

	totalLength := map[string]int{}
	for _, sub := range a.ContactSubmissions {
		stats, ok := s.ServiceRequests[sub.Service]
		if !ok {
			stats = &ServiceRequestStats{ReferrerPages: map[string]int{}}
			s.ServiceRequests[sub.Service] = stats
		}
		stats.Count++
		totalLength[sub.Service] += sub.MessageLength
		if sub.HasEmail {
			stats.HasEmailCount++
		}
		if sub.HasPhone {
			stats.HasPhoneCount++
		}
		stats.ReferrerPages[sub.ReferrerPage]++

		if sub.DayOfWeek >= 0 && sub.DayOfWeek < len(dayNames) {
			s.ContactTrends[dayNames[sub.DayOfWeek]]++
		}
	}
	for service, stats := range s.ServiceRequests {
		stats.AvgMessageLength = int(math.Round(float64(totalLength[service]) / float64(stats.Count)))
	}

	for page, days := range a.PageViews {
		total := 0
		for _, n := range days {
			total += n
		}
		s.PagePerformance[page] = total
	}
	return s
}

// Clone returns a deep copy so callers can read without holding a lock
func (a *Analytics) Clone() *Analytics {
	out := &Analytics{
		BlogPageViews:      make(map[string]int, len(a.BlogPageViews)),
		ArticleExpansions:  make(map[string]map[string]int, len(a.ArticleExpansions)),
		ContactSubmissions: make([]ContactSubmission, len(a.ContactSubmissions)),
		PageViews:          make(map[string]map[string]int, len(a.PageViews)),
		CustomerJourneys:   make(map[string]*CustomerJourney, len(a.CustomerJourneys)),
	}
	for k, v := range a.BlogPageViews {
		out.BlogPageViews[k] = v
	}
	for k, v := range a.ArticleExpansions {
		out.ArticleExpansions[k] = cloneCounts(v)
	}
	copy(out.ContactSubmissions, a.ContactSubmissions)
	for k, v := range a.PageViews {
		out.PageViews[k] = cloneCounts(v)
	}
	for k, v := range a.CustomerJourneys {
		out.CustomerJourneys[k] = v.Clone()
	}
	return out
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Clone copies the journey and its steps
func (j *CustomerJourney) Clone() *CustomerJourney {
	if j == nil {
		return nil
	}
	c := *j
	c.Pages = append([]JourneyStep(nil), j.Pages...)
	return &c
}
