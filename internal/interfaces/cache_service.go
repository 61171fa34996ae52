// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// SemanticCache memoizes the output of repeatable inference-backed sub-steps.
// It is best-effort: store failures are reported as misses and writes never fail
// the caller. Implementations must be safe for concurrent use.
type SemanticCache interface {
	// Get returns the cached output for task and payload, and whether it was found
	Get(ctx context.Context, task string, payload any) (json.RawMessage, bool)

	// Put stores output for task and payload. Errors are logged, not returned.
	Put(ctx context.Context, task string, payload any, output any)
}

// CacheStore is a byte-valued key/value backend with per-entry expiry
type CacheStore interface {
	// Get returns models.ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
