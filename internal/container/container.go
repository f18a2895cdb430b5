package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"spadoc/internal/config"
	"spadoc/internal/metrics"
	"spadoc/internal/middleware"
	"spadoc/internal/repository"
	"spadoc/internal/service/appointment"
	"spadoc/internal/service/auth"
	"spadoc/internal/service/calendar"
	"spadoc/internal/service/content"
	"spadoc/internal/service/media"
	"spadoc/internal/service/notify"
	"spadoc/internal/service/ratelimit"
	"spadoc/internal/service/sms"
	"spadoc/internal/service/social"
	"spadoc/pkg/geo"
	"spadoc/pkg/jsonstore"
	"spadoc/pkg/logger"
	"spadoc/pkg/mailer"
	"spadoc/pkg/redis"
)

// Services groups the domain services handlers call
type Services struct {
	Passcodes    *auth.PasscodeGenerator
	Sessions     *auth.SessionManager
	LoginLimiter ratelimit.WindowLimiter
	Sanitizer    content.Sanitizer
	Notifier     *notify.Notifier
	Media        *media.Library
	Social       *social.Service
	Appointments *appointment.Service
	Calendar     *calendar.Service
	SMS          *sms.Service
}

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	RedisClient  *redis.Client
	Store        *jsonstore.Store
	Repositories *repository.Repositories
	Services     *Services
	Metrics      *metrics.Collector
	Gatherer     prometheus.Gatherer
	Throttle     *middleware.Throttle
	Sweeper      *ratelimit.Sweeper
}

// New creates a new dependency injection container. reg receives the
// Prometheus metrics; a fresh registry is used when it is nil.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, reg *prometheus.Registry) (*Container, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	collector := metrics.NewCollector(reg)

	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, login limiter stays in memory")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, login limiter stays in memory")
	}

	store, err := jsonstore.New(cfg.DataDir, log, jsonstore.WithRetention(cfg.BackupRetain))
	if err != nil {
		return nil, fmt.Errorf("open data directory: %w", err)
	}
	store.Register(repository.CollectionFiles...)

	repos, err := newRepositories(store)
	if err != nil {
		return nil, err
	}

	svcs, sweeper, err := newServices(ctx, cfg, log, repos, redisClient, collector)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		RedisClient:  redisClient,
		Store:        store,
		Repositories: repos,
		Services:     svcs,
		Metrics:      collector,
		Gatherer:     reg,
		Throttle:     middleware.NewThrottle(middleware.DefaultThrottleConfig(), log.Component("throttle")),
		Sweeper:      sweeper,
	}, nil
}

func newRepositories(store *jsonstore.Store) (*repository.Repositories, error) {
	blog, err := repository.NewBlogRepository(store)
	if err != nil {
		return nil, fmt.Errorf("load blog posts: %w", err)
	}
	return &repository.Repositories{
		Blog:           blog,
		Gallery:        repository.NewGalleryRepository(store),
		Media:          repository.NewMediaRepository(store),
		SocialPosts:    repository.NewSocialPostRepository(store),
		SocialSettings: repository.NewSocialSettingsRepository(store),
		Analytics:      repository.NewAnalyticsRepository(store),
	}, nil
}

func newServices(ctx context.Context, cfg *config.Config, log *logger.Logger, repos *repository.Repositories, redisClient *redis.Client, rec metrics.Recorder) (*Services, *ratelimit.Sweeper, error) {
	if cfg.UsesFallbackSecrets() {
		log.Warn("Using built-in fallback secrets; set ADMIN_SECRET and JWT_SECRET")
	}

	memoryWindow := ratelimit.NewMemoryWindow(cfg.LoginMaxAttempts, cfg.LoginWindow, time.Now)
	var loginLimiter ratelimit.WindowLimiter = memoryWindow
	if redisClient != nil {
		loginLimiter = ratelimit.NewRedisWindow(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow, memoryWindow, log)
	}

	debouncer := ratelimit.NewDebouncer(time.Duration(cfg.VisitNotifyMinutes)*time.Minute, time.Now)
	sweeper := ratelimit.NewSweeper(map[string]ratelimit.Sweepable{
		"login": memoryWindow,
		"visit": debouncer,
	}, ratelimit.SweepInterval, log)

	sender := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
	}, log)

	resolver := geo.NewResolver(cfg.GeoPrimaryURL, cfg.GeoFallbackURL, log,
		geo.WithStateHook(func(name string, to gobreaker.State) {
			rec.RecordBreakerState(name, int(to))
		}),
	)

	notifier := notify.New(notify.Config{
		From:          cfg.EmailUser,
		BusinessEmail: cfg.BusinessEmail,
		SiteURL:       cfg.SiteURL,
		Enabled:       cfg.VisitNotifyEnabled,
		WindowMinutes: cfg.VisitNotifyMinutes,
	}, sender, resolver, debouncer, rec, log)

	library, err := media.NewLibrary(cfg.UploadDir, repos.Gallery, repos.Media, log)
	if err != nil {
		return nil, nil, err
	}

	cal, err := calendar.New(ctx, calendar.Config{
		ClientEmail:  cfg.GoogleClientEmail,
		PrivateKey:   cfg.GooglePrivateKey,
		PrivateKeyID: cfg.GooglePrivateKeyID,
		CalendarID:   cfg.GoogleCalendarID,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	texter := sms.New(sms.Config{
		AccountSID:  cfg.TwilioAccountSID,
		AuthToken:   cfg.TwilioAuthToken,
		PhoneNumber: cfg.TwilioPhoneNumber,
	}, cal.Location(), rec, log)

	return &Services{
		Passcodes:    auth.NewPasscodeGenerator(cfg.AdminSecret),
		Sessions:     auth.NewSessionManager(cfg.JWTSecret),
		LoginLimiter: loginLimiter,
		Sanitizer:    content.NewSanitizer(),
		Notifier:     notifier,
		Media:        library,
		Social:       social.NewService(repos.SocialPosts, log),
		Appointments: appointment.NewService(cal, texter, log),
		Calendar:     cal,
		SMS:          texter,
	}, sweeper, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Cleanup stops background work and releases connections. Pending
// notification emails get until ctx is done to finish.
func (c *Container) Cleanup(ctx context.Context) error {
	var errs []error

	c.Sweeper.Stop()
	c.Throttle.Stop()

	if err := c.Services.Notifier.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
