package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{"production", "production", "spadoc:prod"},
		{"development", "development", "spadoc:dev"},
		{"staging", "staging", "spadoc:dev"},
		{"empty", "", "spadoc:dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedPrefix, NewKeyBuilder(tt.environment).GetPrefix())
		})
	}
}

func TestKeyBuilder_KeyLoginAttempts(t *testing.T) {
	kb := NewKeyBuilder("production")
	assert.Equal(t, "spadoc:prod:ratelimit:login:abc123", kb.KeyLoginAttempts("abc123"))
	assert.Equal(t, "spadoc:prod:custom", kb.BuildKey("custom"))
}
