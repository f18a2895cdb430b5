package handler

import (
	"net/http"
	"time"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/internal/metrics"
	"spadoc/internal/middleware"
	"spadoc/pkg/errors"
)

// InvalidPasscodeMessage is returned for every failed login
const InvalidPasscodeMessage = "Invalid passcode. Please check today's code and try again."

// AuthHandler handles the admin session: login, logout and refresh
type AuthHandler struct {
	container *container.Container
	rec       metrics.Recorder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	var rec metrics.Recorder = metrics.Nop{}
	if container.Metrics != nil {
		rec = container.Metrics
	}
	return &AuthHandler{
		container: container,
		rec:       rec,
	}
}

// LoginStatusResponse tells the login page whether a session is active
type LoginStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// RefreshResponse is returned after a session is extended
type RefreshResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Status handles GET /admin/login
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	_, authenticated := h.container.Services.Sessions.Verify(middleware.SessionToken(r))
	writeJSON(w, http.StatusOK, LoginStatusResponse{Authenticated: authenticated}, h.container.GetLogger())
}

// Login handles POST /admin/login. The login rate limiter has already
// counted this attempt.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req domain.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}

	if !h.container.Services.Passcodes.Check(req.Passcode) {
		h.rec.RecordLogin(metrics.LoginFailure)
		logger.WithField("ip", middleware.ClientIP(r)).Warn("Admin login failed")
		writeError(w, errors.NewAuthenticationError(InvalidPasscodeMessage), logger)
		return
	}

	if !h.issueSession(w) {
		return
	}
	h.rec.RecordLogin(metrics.LoginSuccess)
	logger.WithField("ip", middleware.ClientIP(r)).Info("Admin logged in")
	writeJSON(w, http.StatusOK, success("Login successful"), logger)
}

// Logout handles GET /admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/blog", http.StatusFound)
}

// Refresh handles POST /admin/refresh-token. The gate has already verified
// the current session; a fresh 30 minute token replaces it.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.issueSession(w) {
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		Success:   true,
		Message:   "Token refreshed successfully",
		ExpiresIn: h.container.Services.Sessions.TTL().Milliseconds(),
	}, h.container.GetLogger())
}

func (h *AuthHandler) issueSession(w http.ResponseWriter) bool {
	token, _, err := h.container.Services.Sessions.Issue()
	if err != nil {
		writeError(w, errors.NewInternalError("Failed to create session", err), h.container.GetLogger())
		return false
	}
	maxAge := int(h.container.Services.Sessions.TTL() / time.Second)
	http.SetCookie(w, h.sessionCookie(token, maxAge))
	return true
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     domain.AdminSessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.container.GetConfig().IsProduction(),
		SameSite: http.SameSiteStrictMode,
	}
}
