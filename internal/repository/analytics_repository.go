package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"spadoc/internal/domain"
	"spadoc/pkg/jsonstore"
)

// unknownPage keys page views sent without a page
const unknownPage = "unknown"

type analyticsRepository struct {
	store *jsonstore.Store

	mu   sync.RWMutex
	data *domain.Analytics
}

// NewAnalyticsRepository loads analytics.json
func NewAnalyticsRepository(store *jsonstore.Store) AnalyticsRepository {
	data := jsonstore.Load(store, FileAnalytics, domain.NewAnalytics())
	if data == nil {
		data = domain.NewAnalytics()
	}
	data.Normalize()
	return &analyticsRepository{store: store, data: data}
}

// apply runs fn under the write lock and saves. fn returns a function that
// reverses its change, used when the save fails. Counters only grow, so
// undoing is cheaper than copying the whole document first.
func (r *analyticsRepository) apply(fn func(a *domain.Analytics) (undo func())) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	undo := fn(r.data)
	if err := jsonstore.Save(r.store, FileAnalytics, r.data); err != nil {
		undo()
		return err
	}
	return nil
}

func bump(counts map[string]int, key string) func() {
	counts[key]++
	return func() {
		counts[key]--
		if counts[key] <= 0 {
			delete(counts, key)
		}
	}
}

func nested(outer map[string]map[string]int, key string) (map[string]int, func()) {
	inner, ok := outer[key]
	if ok {
		return inner, func() {}
	}
	inner = map[string]int{}
	outer[key] = inner
	return inner, func() {
		if len(inner) == 0 {
			delete(outer, key)
		}
	}
}

func (r *analyticsRepository) RecordBlogView(_ context.Context, now time.Time) error {
	return r.apply(func(a *domain.Analytics) func() {
		return bump(a.BlogPageViews, domain.DayKey(now))
	})
}

func (r *analyticsRepository) RecordArticleExpansion(_ context.Context, title string, now time.Time) error {
	return r.apply(func(a *domain.Analytics) func() {
		days, cleanup := nested(a.ArticleExpansions, title)
		undo := bump(days, domain.DayKey(now))
		return func() {
			undo()
			cleanup()
		}
	})
}

func (r *analyticsRepository) RecordPageView(_ context.Context, req domain.TrackPageViewRequest, now time.Time) error {
	page := strings.TrimSpace(req.Page)
	if page == "" {
		page = unknownPage
	}
	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = now.UTC().Format(time.RFC3339Nano)
	}

	return r.apply(func(a *domain.Analytics) func() {
		days, cleanup := nested(a.PageViews, page)
		undoView := bump(days, domain.DayKey(now))
		undo := func() {
			undoView()
			cleanup()
		}
		if req.SessionID == "" {
			return undo
		}

		journey, existed := a.CustomerJourneys[req.SessionID]
		if !existed {
			journey = &domain.CustomerJourney{Pages: []domain.JourneyStep{}, StartTime: timestamp}
			a.CustomerJourneys[req.SessionID] = journey
		}
		prevLast, prevLen := journey.LastActivity, len(journey.Pages)
		journey.Pages = append(journey.Pages, domain.JourneyStep{Page: page, Timestamp: timestamp})
		journey.LastActivity = timestamp

		return func() {
			undo()
			if !existed {
				delete(a.CustomerJourneys, req.SessionID)
				return
			}
			journey.Pages = journey.Pages[:prevLen]
			journey.LastActivity = prevLast
		}
	})
}

func (r *analyticsRepository) RecordContact(_ context.Context, req domain.ContactRequest, now time.Time) (domain.ContactSubmission, error) {
	referrer := req.ReferrerPage
	if referrer == "" {
		referrer = domain.DefaultReferrerPage
	}
	sub := domain.ContactSubmission{
		Timestamp:     now.UTC(),
		Service:       req.ServiceOrDefault(),
		HasPhone:      strings.TrimSpace(req.Phone) != "",
		HasEmail:      strings.TrimSpace(req.Email) != "",
		MessageLength: req.MessageLength(),
		ReferrerPage:  referrer,
		SessionID:     req.SessionID,
		DayOfWeek:     int(now.Weekday()),
		HourOfDay:     now.Hour(),
	}

	err := r.apply(func(a *domain.Analytics) func() {
		if req.SessionID != "" {
			sub.CustomerJourney = a.CustomerJourneys[req.SessionID].Clone()
		}
		a.ContactSubmissions = append(a.ContactSubmissions, sub)
		n := len(a.ContactSubmissions)
		return func() { a.ContactSubmissions = a.ContactSubmissions[:n-1] }
	})
	return sub, err
}

func (r *analyticsRepository) Snapshot(_ context.Context) *domain.Analytics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data.Clone()
}
