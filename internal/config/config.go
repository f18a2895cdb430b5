package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Secrets used when the operator has not configured any. They keep local
// development working; Validate refuses them in production.
const (
	FallbackAdminSecret = "fallback-secret"
	FallbackJWTSecret   = "fallback-jwt-secret"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string
	SiteURL        string

	// TrustedProxies lists the peers (addresses or CIDRs) whose forwarding
	// headers are believed. Empty means clients are identified by the socket.
	TrustedProxies []string

	AdminSecret string
	JWTSecret   string

	DataDir      string
	UploadDir    string
	BackupRetain int

	RedisURL string

	LoginWindow      time.Duration
	LoginMaxAttempts int

	SMTPHost      string
	SMTPPort      int
	EmailUser     string
	EmailPass     string
	BusinessEmail string

	VisitNotifyEnabled bool
	VisitNotifyMinutes int
	GeoPrimaryURL      string
	GeoFallbackURL     string

	GoogleClientEmail  string
	GooglePrivateKey   string
	GooglePrivateKeyID string
	GoogleCalendarID   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		SiteURL:        getEnv("SITE_URL", "http://localhost:3000"),
		TrustedProxies: parseOrigins(getEnv("TRUSTED_PROXIES", "")),

		AdminSecret: getEnv("ADMIN_SECRET", FallbackAdminSecret),
		JWTSecret:   getEnv("JWT_SECRET", FallbackJWTSecret),

		DataDir:      getEnv("DATA_DIR", "data"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		BackupRetain: getIntEnv("BACKUP_RETAIN", 0),

		RedisURL: getEnv("REDIS_URL", ""),

		LoginWindow:      getDurationEnv("LOGIN_WINDOW", 15*time.Minute),
		LoginMaxAttempts: getIntEnv("LOGIN_MAX_ATTEMPTS", 3),

		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getIntEnv("SMTP_PORT", 587),
		EmailUser:     getEnv("EMAIL_USER", ""),
		EmailPass:     getEnv("EMAIL_PASS", ""),
		BusinessEmail: getEnv("BUSINESS_EMAIL", getEnv("EMAIL_USER", "")),

		VisitNotifyEnabled: getBoolEnv("VISIT_NOTIFY_ENABLED", true),
		VisitNotifyMinutes: getIntEnv("VISIT_NOTIFY_MINUTES", 60),
		GeoPrimaryURL:      getEnv("GEO_PRIMARY_URL", "https://get.geojs.io/v1/ip/geo/%s.json"),
		GeoFallbackURL:     getEnv("GEO_FALLBACK_URL", "http://ip-api.com/json/%s?fields=status,city,regionName,country,isp,lat,lon"),

		GoogleClientEmail:  getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:   strings.ReplaceAll(getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
		GooglePrivateKeyID: getEnv("GOOGLE_PRIVATE_KEY_ID", ""),
		GoogleCalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the service unsafe or unusable
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AdminSecret == FallbackAdminSecret {
			return fmt.Errorf("ADMIN_SECRET must be set in production")
		}
		if c.JWTSecret == FallbackJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}
	if c.LoginMaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive, got %d", c.LoginMaxAttempts)
	}
	if c.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive, got %s", c.LoginWindow)
	}
	if c.VisitNotifyMinutes < 1 {
		return fmt.Errorf("VISIT_NOTIFY_MINUTES must be positive, got %d", c.VisitNotifyMinutes)
	}
	if c.BackupRetain < 0 {
		return fmt.Errorf("BACKUP_RETAIN cannot be negative")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated
// as a single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesFallbackSecrets reports whether either signing secret is the built-in default
func (c *Config) UsesFallbackSecrets() bool {
	return c.AdminSecret == FallbackAdminSecret || c.JWTSecret == FallbackJWTSecret
}

// MailConfigured reports whether SMTP credentials are present
func (c *Config) MailConfigured() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
