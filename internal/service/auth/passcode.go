package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const passcodePrefix = "SPA"

// Passcode derives the admin login code for the calendar day of date, as
// seen in date's own location. The code is "SPA" followed by four digits.
func Passcode(secret string, date time.Time) string {
	sum := sha256.Sum256([]byte(date.Format("2006-01-02") + secret))
	prefix := hex.EncodeToString(sum[:])[:8]
	// 8 hex chars always fit in 32 bits
	n, _ := strconv.ParseUint(prefix, 16, 32)
	return fmt.Sprintf("%s%04d", passcodePrefix, n%10000)
}

// PasscodeGenerator computes today's code from the server clock
type PasscodeGenerator struct {
	secret string
	loc    *time.Location
	now    func() time.Time
}

// PasscodeOption configures a PasscodeGenerator
type PasscodeOption func(*PasscodeGenerator)

// WithPasscodeClock overrides the clock
func WithPasscodeClock(now func() time.Time) PasscodeOption {
	return func(g *PasscodeGenerator) { g.now = now }
}

// WithLocation sets the zone whose midnight rolls the code over. Defaults to
// the server's local zone.
func WithLocation(loc *time.Location) PasscodeOption {
	return func(g *PasscodeGenerator) { g.loc = loc }
}

// NewPasscodeGenerator creates a generator for secret
func NewPasscodeGenerator(secret string, opts ...PasscodeOption) *PasscodeGenerator {
	g := &PasscodeGenerator{
		secret: secret,
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Today returns the code valid for the current server-local day
func (g *PasscodeGenerator) Today() string {
	return Passcode(g.secret, g.now().In(g.loc))
}

// Check compares a submitted code against today's, ignoring case
func (g *PasscodeGenerator) Check(submitted string) bool {
	submitted = strings.ToUpper(strings.TrimSpace(submitted))
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(g.Today())) == 1
}
