package middleware

import (
	"net/http"

	"spadoc/internal/service/notify"
)

// VisitObserver is told about every incoming request
type VisitObserver interface {
	ObserveVisit(v notify.VisitRequest) bool
}

// VisitNotifications reports each request to the visit notifier before
// handling it. The notifier decides on its own whether to email and never
// blocks the request. Place it after OptionalAdmin so admin traffic is
// recognised.
func VisitNotifications(observer VisitObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, isAdmin := SessionFromContext(r.Context())

			scheme := "http"
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				scheme = "https"
			}

			observer.ObserveVisit(notify.VisitRequest{
				Method:    r.Method,
				Path:      r.URL.Path,
				IP:        ClientIP(r),
				UserAgent: r.UserAgent(),
				Referrer:  r.Referer(),
				FullURL:   scheme + "://" + r.Host + r.URL.RequestURI(),
				IsAdmin:   isAdmin,
			})

			next.ServeHTTP(w, r)
		})
	}
}
