package models

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is returned when the balance-integrity gate fails.
// No section scoring runs on a fact set that produced it.
var ErrValidationFailed = errors.New("validation gate failed")

// ErrCacheMiss is returned by cache stores when a key is absent or expired.
// The semantic cache never surfaces it.
var ErrCacheMiss = errors.New("cache miss")

// ErrUnknownCanonicalKey marks a fact whose key is absent from the taxonomy
var ErrUnknownCanonicalKey = errors.New("canonical key not in taxonomy")

// ConfigurationError reports malformed or missing startup configuration
// (taxonomy, section weights, config values). It is always fatal.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// TransientError wraps a failure of an I/O-bound step that is worth retrying:
// connection loss, timeouts, 5xx responses, throttling
type TransientError struct {
	Op         string
	StatusCode int // 0 when not an HTTP-style failure
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// StatusError carries a status code from a remote store or service.
// Whether it is retried depends on the code and message.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}
