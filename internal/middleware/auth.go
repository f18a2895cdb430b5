package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"spadoc/internal/domain"
	"spadoc/pkg/errors"
	"spadoc/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// SessionContextKey holds the verified *domain.AdminSession
	SessionContextKey ContextKey = "admin_session"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// SessionVerifier checks an admin session token
type SessionVerifier interface {
	Verify(token string) (*domain.AdminSession, bool)
}

// SessionToken returns the admin token from the session cookie, or from a
// Bearer Authorization header for API clients
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(domain.AdminSessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// SessionFromContext returns the admin session stored by AdminGate or
// OptionalAdmin
func SessionFromContext(ctx context.Context) (*domain.AdminSession, bool) {
	s, ok := ctx.Value(SessionContextKey).(*domain.AdminSession)
	return s, ok && s != nil
}

// AdminGate lets a request through only with a valid admin session.
// Missing, malformed and expired tokens all get the same answer.
func AdminGate(sessions SessionVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessions.Verify(SessionToken(r))
			if !ok {
				log.WithField("path", r.URL.Path).Debug("Admin authentication required")
				writeErrorResponse(w, errors.NewAuthenticationError("Admin authentication required"), log)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAdmin stores the session in context when the request carries a
// valid token and otherwise continues without one
func OptionalAdmin(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := SessionToken(r); token != "" {
				if session, ok := sessions.Verify(token); ok {
					r = r.WithContext(context.WithValue(r.Context(), SessionContextKey, session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, log *logger.Logger) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("Request error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if err := json.NewEncoder(w).Encode(appErr.Response()); err != nil {
		log.WithError(err).Error("Failed to encode error response")
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
