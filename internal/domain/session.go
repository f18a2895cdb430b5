package domain

import "time"

// SessionTTL is how long an admin session stays valid after issue or refresh
const SessionTTL = 30 * time.Minute

// AdminSessionCookie is the cookie carrying the signed session token
const AdminSessionCookie = "adminToken"

// AdminSession is the verified content of an admin session token.
// It is never persisted.
type AdminSession struct {
	IsAdmin   bool      `json:"isAdmin"`
	IssuedAt  time.Time `json:"loginTime"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidAt reports whether the session is usable at t. The interval is
// half-open: valid from IssuedAt up to but not including ExpiresAt.
func (s AdminSession) ValidAt(t time.Time) bool {
	return s.IsAdmin && !t.Before(s.IssuedAt) && t.Before(s.ExpiresAt)
}

// LoginRequest is the admin login body
type LoginRequest struct {
	Passcode string `json:"passcode"`
}
