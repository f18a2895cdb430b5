package utils

import (
	"errors"
	"regexp"
)

var (
	// Regex to remove non-digit characters
	digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)
)

// ErrInvalidPhone is returned for numbers that are not 10-digit US numbers
var ErrInvalidPhone = errors.New("invalid US phone number format")

// NormalizePhoneNumber converts a US phone number to E.164 (+1XXXXXXXXXX).
// Punctuation and spaces are ignored; an optional leading country code 1 is
// accepted.
func NormalizePhoneNumber(phone string) (string, error) {
	if phone == "" {
		return "", errors.New("phone number cannot be empty")
	}

	// Remove all non-digit characters (hyphens, spaces, parentheses, etc.)
	digits := digitsOnlyRegex.ReplaceAllString(phone, "")

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	default:
		return "", ErrInvalidPhone
	}
}

// FormatPhoneForSMS returns the E.164 form when phone is a valid US number
// and phone unchanged otherwise, leaving the final say to the SMS provider
func FormatPhoneForSMS(phone string) string {
	normalized, err := NormalizePhoneNumber(phone)
	if err != nil {
		return phone
	}
	return normalized
}

// FormatPhoneNumberForDisplay formats a phone number as (XXX) XXX-XXXX
// Example: "+18562667293" -> "(856) 266-7293"
func FormatPhoneNumberForDisplay(phone string) string {
	normalized, err := NormalizePhoneNumber(phone)
	if err != nil {
		return phone // Return as-is if not a valid US number
	}
	d := normalized[2:]
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// ValidatePhoneNumber reports whether phone is a valid US number
func ValidatePhoneNumber(phone string) bool {
	_, err := NormalizePhoneNumber(phone)
	return err == nil
}
