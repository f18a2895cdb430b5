package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"spadoc/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health. The data directory must be reachable; Redis,
// the calendar and SMS are optional and only reported.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "spadoc",
		Checks:    map[string]string{"store": "ok"},
	}
	status := http.StatusOK

	if _, err := os.Stat(h.container.Store.Dir()); err != nil {
		logger.WithError(err).Error("Data directory unavailable")
		response.Status = "unhealthy"
		response.Checks["store"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.container.HasRedis() {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.container.RedisClient.Health(ctx); err != nil {
			logger.WithError(err).Warn("Redis health check failed")
			response.Checks["redis"] = "degraded"
		} else {
			response.Checks["redis"] = "ok"
		}
	} else {
		response.Checks["redis"] = "disabled"
	}

	response.Checks["calendar"] = "google"
	if h.container.Services.Calendar.Fallback() {
		response.Checks["calendar"] = "fallback"
	}
	response.Checks["sms"] = "twilio"
	if !h.container.Services.SMS.Enabled() {
		response.Checks["sms"] = "disabled"
	}

	writeJSON(w, status, response, logger)
}
