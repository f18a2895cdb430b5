package handler

import (
	"net/http"
	"strings"
	"time"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/internal/middleware"
)

// ContactThanksMessage is the reply to every contact form post
const ContactThanksMessage = "Thank you for your message! We will contact you soon."

// AnalyticsHandler records visitor analytics and contact leads and serves
// the dashboard data
type AnalyticsHandler struct {
	container *container.Container
	now       func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(container *container.Container) *AnalyticsHandler {
	return &AnalyticsHandler{
		container: container,
		now:       time.Now,
	}
}

// AnalyticsDataResponse is the summary plus the raw counters
type AnalyticsDataResponse struct {
	Summary domain.AnalyticsSummary `json:"summary"`
	RawData *domain.Analytics       `json:"rawData"`
}

// DashboardResponse is what the admin dashboard loads on open
type DashboardResponse struct {
	Success            bool                             `json:"success"`
	Summary            domain.AnalyticsSummary          `json:"summary"`
	TodaysCode         string                           `json:"todaysCode"`
	VisitNotifications domain.VisitNotificationSettings `json:"visitNotifications"`
}

type trackedResponse struct {
	Success bool `json:"success"`
}

// TrackArticle handles POST /track-article-expansion. Tracking is best
// effort: failures are logged and the browser still gets success.
func (h *AnalyticsHandler) TrackArticle(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req domain.TrackArticleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}
	if title := strings.TrimSpace(req.ArticleTitle); title != "" {
		if err := h.container.Repositories.Analytics.RecordArticleExpansion(r.Context(), title, h.now()); err != nil {
			logger.WithError(err).Warn("Failed to record article expansion")
		}
	}
	writeJSON(w, http.StatusOK, trackedResponse{Success: true}, logger)
}

// TrackPageView handles POST /track-page-view
func (h *AnalyticsHandler) TrackPageView(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req domain.TrackPageViewRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}
	if err := h.container.Repositories.Analytics.RecordPageView(r.Context(), req, h.now()); err != nil {
		logger.WithError(err).Warn("Failed to record page view")
	}
	writeJSON(w, http.StatusOK, trackedResponse{Success: true}, logger)
}

// Contact handles POST /contact. The lead is recorded and emailed in the
// background; the visitor is always thanked, whatever happens to either.
func (h *AnalyticsHandler) Contact(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req domain.ContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		logger.WithError(err).Warn("Unreadable contact form")
		writeJSON(w, http.StatusOK, success(ContactThanksMessage), logger)
		return
	}

	sub, err := h.container.Repositories.Analytics.RecordContact(r.Context(), req, h.now())
	if err != nil {
		logger.WithError(err).Error("Failed to record contact submission")
	}
	h.container.Services.Notifier.NotifyContact(req)

	logger.WithFields(map[string]interface{}{
		"service":        sub.Service,
		"has_phone":      sub.HasPhone,
		"has_email":      sub.HasEmail,
		"message_length": sub.MessageLength,
		"ip":             middleware.ClientIP(r),
	}).Info("Contact form submitted")

	writeJSON(w, http.StatusOK, success(ContactThanksMessage), logger)
}

// Data handles GET /analytics-data
func (h *AnalyticsHandler) Data(w http.ResponseWriter, r *http.Request) {
	snapshot := h.container.Repositories.Analytics.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, AnalyticsDataResponse{
		Summary: snapshot.Summarize(),
		RawData: snapshot,
	}, h.container.GetLogger())
}

// Dashboard handles GET /dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snapshot := h.container.Repositories.Analytics.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, DashboardResponse{
		Success:            true,
		Summary:            snapshot.Summarize(),
		TodaysCode:         h.container.Services.Passcodes.Today(),
		VisitNotifications: h.container.Services.Notifier.Settings(),
	}, h.container.GetLogger())
}

// Reviews handles GET /api/reviews. No review source is connected.
func (h *AnalyticsHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Reviews not available"}, h.container.GetLogger())
}
