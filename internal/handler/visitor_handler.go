package handler

import (
	"net/http"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/pkg/errors"
)

// VisitorHandler lets the admin manage visit notification emails
type VisitorHandler struct {
	container *container.Container
}

// NewVisitorHandler creates a new visitor handler
func NewVisitorHandler(container *container.Container) *VisitorHandler {
	return &VisitorHandler{
		container: container,
	}
}

// VisitSettingsResponse carries the current visit notification settings
type VisitSettingsResponse struct {
	Success  bool                             `json:"success"`
	Message  string                           `json:"message,omitempty"`
	Settings domain.VisitNotificationSettings `json:"settings"`
}

// GetSettings handles GET /admin/visit-notifications
func (h *VisitorHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VisitSettingsResponse{
		Success:  true,
		Settings: h.container.Services.Notifier.Settings(),
	}, h.container.GetLogger())
}

// UpdateSettings handles POST /admin/visit-notifications
func (h *VisitorHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var update domain.VisitNotificationUpdate
	if err := decodeBody(w, r, &update); err != nil {
		writeError(w, err, logger)
		return
	}

	settings, err := h.container.Services.Notifier.UpdateSettings(update)
	if err != nil {
		writeError(w, errors.NewValidationError(err.Error(), nil), logger)
		return
	}
	logger.WithFields(map[string]interface{}{
		"enabled":            settings.Enabled,
		"rate_limit_minutes": settings.RateLimitMinutes,
	}).Info("Visit notification settings updated")

	writeJSON(w, http.StatusOK, VisitSettingsResponse{
		Success:  true,
		Message:  "Visit notification settings updated",
		Settings: settings,
	}, logger)
}

// Enable handles POST /admin/visit-notifications/enable
func (h *VisitorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VisitSettingsResponse{
		Success:  true,
		Message:  "Visit notifications enabled with smart filtering",
		Settings: h.container.Services.Notifier.SetEnabled(true),
	}, h.container.GetLogger())
}

// Disable handles POST /admin/visit-notifications/disable
func (h *VisitorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VisitSettingsResponse{
		Success:  true,
		Message:  "Visit notifications disabled",
		Settings: h.container.Services.Notifier.SetEnabled(false),
	}, h.container.GetLogger())
}

// SendTest handles POST /admin/test-visit-notification
func (h *VisitorHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	to := h.container.Services.Notifier.SendTestVisit()
	writeJSON(w, http.StatusOK, success("Test notification sent to "+to), h.container.GetLogger())
}
