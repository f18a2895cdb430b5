package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "spadoc:prod"
	if environment != "production" {
		prefix = "spadoc:dev"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyLoginAttempts is the fixed-window counter for one client's login attempts
func (kb *KeyBuilder) KeyLoginAttempts(identityHash string) string {
	return kb.BuildKey(fmt.Sprintf(KeyLoginAttempts, identityHash))
}
