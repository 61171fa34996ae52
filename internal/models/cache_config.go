// Package models provides cache configuration types for the semantic cache.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CacheBackend selects the semantic cache implementation
type CacheBackend string

const (
	// CacheBackendNone disables caching: every lookup is a miss, every write a no-op
	CacheBackendNone CacheBackend = "none"

	// CacheBackendMemory keeps entries in process memory with per-entry expiry
	CacheBackendMemory CacheBackend = "memory"

	// CacheBackendBadger persists entries in BadgerDB with native TTL
	CacheBackendBadger CacheBackend = "badger"
)

// DefaultCacheTTL is how long a semantic cache entry lives
const DefaultCacheTTL = 30 * 24 * time.Hour

// CachePrefix namespaces semantic cache keys in shared stores
const CachePrefix = "llm_semantic:"

// ParseCacheBackend parses a backend name (case-insensitive)
func ParseCacheBackend(s string) (CacheBackend, error) {
	switch CacheBackend(strings.ToLower(strings.TrimSpace(s))) {
	case "", CacheBackendNone:
		return CacheBackendNone, nil
	case CacheBackendMemory:
		return CacheBackendMemory, nil
	case CacheBackendBadger:
		return CacheBackendBadger, nil
	default:
		return "", fmt.Errorf("invalid cache backend: %s (valid: none, memory, badger)", s)
	}
}

// CacheEntry is the stored envelope for a cached sub-step output
type CacheEntry struct {
	Output        json.RawMessage `json:"output"`
	Model         string          `json:"model"`
	SchemaVersion string          `json:"schema_version"`
	PromptVersion string          `json:"prompt_version"`
}
