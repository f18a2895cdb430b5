package utils

import (
	"testing"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{
			name:     "formatted US number",
			input:    "(856) 266-7293",
			expected: "+18562667293",
		},
		{
			name:     "unformatted US number",
			input:    "8562667293",
			expected: "+18562667293",
		},
		{
			name:     "with country code",
			input:    "+1 856 266 7293",
			expected: "+18562667293",
		},
		{
			name:     "eleven digits starting with 1",
			input:    "18562667293",
			expected: "+18562667293",
		},
		{
			name:     "dotted",
			input:    "856.266.7293",
			expected: "+18562667293",
		},
		{
			name:        "too short",
			input:       "266-7293",
			shouldError: true,
		},
		{
			name:        "eleven digits without leading 1",
			input:       "28562667293",
			shouldError: true,
		},
		{
			name:        "empty",
			input:       "",
			shouldError: true,
		},
		{
			name:        "letters only",
			input:       "call me",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizePhoneNumber(tt.input)

			if tt.shouldError {
				if err == nil {
					t.Errorf("expected error for input %q, got none", tt.input)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error for input %q: %v", tt.input, err)
				return
			}

			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFormatPhoneForSMS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"856-266-7293", "+18562667293"},
		{"1-856-266-7293", "+18562667293"},
		{"+44 20 7946 0958", "+44 20 7946 0958"},
	}

	for _, tt := range tests {
		if got := FormatPhoneForSMS(tt.input); got != tt.expected {
			t.Errorf("FormatPhoneForSMS(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatPhoneNumberForDisplay(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+18562667293", "(856) 266-7293"},
		{"8562667293", "(856) 266-7293"},
		{"123", "123"},
	}

	for _, tt := range tests {
		if got := FormatPhoneNumberForDisplay(tt.input); got != tt.expected {
			t.Errorf("FormatPhoneNumberForDisplay(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"856-266-7293", "+1 (856) 266-7293"}
	invalid := []string{"", "12345", "0909300861x1"}

	for _, p := range valid {
		if !ValidatePhoneNumber(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	for _, p := range invalid {
		if ValidatePhoneNumber(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}
