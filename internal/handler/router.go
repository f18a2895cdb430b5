package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"spadoc/internal/container"
	"spadoc/internal/metrics"
	"spadoc/internal/middleware"
	"spadoc/pkg/errors"
)

// NewRouter configures every route of the site backend
func NewRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	sessions := c.Services.Sessions

	var rec metrics.Recorder = metrics.Nop{}
	if c.Metrics != nil {
		rec = c.Metrics
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		log.WithError(err).Warn("Ignoring invalid trusted proxies, clients are identified by socket address")
		trustedProxies = nil
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP(trustedProxies))
	r.Use(middleware.RequestLogger(log.Component("http"), rec))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.OptionalAdmin(sessions))
	r.Use(middleware.VisitNotifications(c.Services.Notifier))

	healthHandler := NewHealthHandler(c)
	authHandler := NewAuthHandler(c)
	blogHandler := NewBlogHandler(c)
	visitorHandler := NewVisitorHandler(c)
	analyticsHandler := NewAnalyticsHandler(c)
	mediaHandler := NewMediaHandler(c)
	socialHandler := NewSocialHandler(c)
	appointmentHandler := NewAppointmentHandler(c)
	adminHandler := NewAdminHandler(c)

	throttle := c.Throttle.Middleware()
	adminGate := middleware.AdminGate(sessions, log)

	// Public routes
	r.Get("/health", healthHandler.Check)
	r.Handle("/metrics", metrics.Handler(c.Gatherer))
	r.Get("/media-library", mediaHandler.Library)
	r.Get("/social-posts", socialHandler.List)
	r.Get("/analytics", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/reviews", analyticsHandler.Reviews)
		r.Get("/gallery", mediaHandler.Gallery)

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", blogHandler.List)
			r.Get("/categories", blogHandler.Categories)
			r.Get("/category/{category}", blogHandler.Category)
			r.Get("/{id}", blogHandler.Get)
		})

		r.Get("/appointments/slots", appointmentHandler.Slots)
		r.With(throttle).Post("/appointments", appointmentHandler.Book)
	})

	// Public writes are throttled per IP
	r.Group(func(r chi.Router) {
		r.Use(throttle)
		r.Post("/contact", analyticsHandler.Contact)
		r.Post("/track-article-expansion", analyticsHandler.TrackArticle)
		r.Post("/track-page-view", analyticsHandler.TrackPageView)
	})

	// Admin session
	r.Get("/admin/login", authHandler.Status)
	r.With(middleware.LoginRateLimit(c.Services.LoginLimiter, rec, log)).Post("/admin/login", authHandler.Login)
	r.Get("/admin/logout", authHandler.Logout)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(adminGate)

		r.Post("/admin/refresh-token", authHandler.Refresh)

		r.Get("/admin/blog", blogHandler.AdminList)
		r.Post("/admin/add-post", blogHandler.Add)
		r.Post("/admin/edit-post", blogHandler.Edit)
		r.Post("/admin/delete-post", blogHandler.Delete)
		r.Post("/admin/bulk-import", blogHandler.BulkImport)
		r.Post("/admin/import-sample-posts", blogHandler.ImportSamples)

		r.Get("/admin/visit-notifications", visitorHandler.GetSettings)
		r.Post("/admin/visit-notifications", visitorHandler.UpdateSettings)
		r.Post("/admin/visit-notifications/enable", visitorHandler.Enable)
		r.Post("/admin/visit-notifications/disable", visitorHandler.Disable)
		r.Post("/admin/test-visit-notification", visitorHandler.SendTest)

		r.Post("/upload-image", mediaHandler.UploadImage)
		r.Post("/admin/upload-gallery-images", mediaHandler.UploadGallery)
		r.Get("/admin/gallery-images", mediaHandler.Gallery)
		r.Post("/admin/delete-gallery-image", mediaHandler.DeleteGalleryImage)
		r.Post("/upload-media", mediaHandler.UploadMedia)
		r.Delete("/media/{id}", mediaHandler.DeleteMedia)

		r.Post("/create-social-post", socialHandler.Create)
		r.Get("/social-settings", socialHandler.GetSettings)
		r.Post("/social-settings", socialHandler.UpdateSettings)

		r.Get("/analytics-data", analyticsHandler.Data)
		r.Get("/dashboard", analyticsHandler.Dashboard)

		r.Get("/admin/appointments", appointmentHandler.Upcoming)
		r.Post("/admin/appointments/reminder", appointmentHandler.Remind)
		r.Post("/admin/appointments/{eventId}/cancel", appointmentHandler.Cancel)
		r.Post("/admin/appointments/{eventId}/reschedule", appointmentHandler.Reschedule)

		r.Post("/admin/backup", adminHandler.Backup)
	})

	// Uploaded files, without directory listings
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(cfg.UploadDir)))))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.NewNotFoundError("Endpoint not found"), log)
	})

	log.Info("Router configured successfully")
	return r
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
