package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spadoc/internal/domain"
)

// Claims is the payload of an admin session token
type Claims struct {
	IsAdmin   bool   `json:"isAdmin"`
	LoginTime string `json:"loginTime"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 admin session tokens
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithSessionClock overrides the clock used for issue and verification
func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

// NewSessionManager creates a manager signing with secret
func NewSessionManager(secret string, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		secret: []byte(secret),
		ttl:    domain.SessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the session lifetime
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new admin session valid for TTL from now. Refreshing a
// session is just another Issue.
func (m *SessionManager) Issue() (string, *domain.AdminSession, error) {
	// NumericDate has second precision; truncate so the returned session
	// matches what Verify will later decode
	now := m.now().Truncate(time.Second)
	exp := now.Add(m.ttl)

	claims := Claims{
		IsAdmin:   true,
		LoginTime: now.UTC().Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return signed, &domain.AdminSession{IsAdmin: true, IssuedAt: now, ExpiresAt: exp}, nil
}

// Verify returns the session carried by token. It reports false for a
// missing, malformed, tampered, expired or non-admin token and never says
// which.
func (m *SessionManager) Verify(token string) (*domain.AdminSession, bool) {
	if token == "" {
		return nil, false
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	session := &domain.AdminSession{
		IsAdmin:   claims.IsAdmin,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	} else {
		session.IssuedAt = session.ExpiresAt.Add(-m.ttl)
	}
	if !session.ValidAt(m.now()) {
		return nil, false
	}
	return session, true
}
