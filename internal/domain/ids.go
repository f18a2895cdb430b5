package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleID is a numeric record id that the admin pages send either as a
// JSON number or as a string.
type FlexibleID int64

// UnmarshalJSON accepts 17, "17" and null (zero)
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	id, err := ParseFlexibleID(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*f = id
	return nil
}

// ParseFlexibleID parses the leading integer of s. Trailing garbage is
// ignored, so "17abc" is 17; an empty string is zero.
func ParseFlexibleID(s string) (FlexibleID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return FlexibleID(n), nil
}

// Int64 returns the id as int64
func (f FlexibleID) Int64() int64 {
	return int64(f)
}
