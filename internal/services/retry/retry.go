// Package retry wraps I/O-bound steps with exponential backoff on transient failures.
package retry

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/creditcore/internal/models"
)

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy defines retry behavior with exponential backoff
type Policy struct {
	MaxAttempts          int
	InitialDelay         time.Duration
	MaxDelay             time.Duration
	Multiplier           float64
	RetryableStatusCodes []int

	limiter *rate.Limiter
	sleep   SleepFunc
	logger  arbor.ILogger
}

// NewPolicy creates the default policy: 3 attempts, 1s initial delay, x2 per attempt
func NewPolicy(logger arbor.ILogger) *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		RetryableStatusCodes: []int{
			408, // Request Timeout
			429, // Too Many Requests
		},
		sleep:  sleepContext,
		logger: logger,
	}
}

// WithRateLimit throttles attempts to perSecond. Zero or negative disables throttling.
func (p *Policy) WithRateLimit(perSecond float64) *Policy {
	if perSecond <= 0 {
		p.limiter = nil
		return p
	}
	burst := int(math.Max(1, math.Ceil(perSecond)))
	p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return p
}

// WithSleep replaces the backoff sleep, mainly for tests
func (p *Policy) WithSleep(fn SleepFunc) *Policy {
	if fn != nil {
		p.sleep = fn
	}
	return p
}

// Delay is the backoff before retry number attempt+1: InitialDelay * Multiplier^attempt,
// capped at MaxDelay
func (p *Policy) Delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// IsTransient reports whether err is worth retrying: connection errors, timeouts,
// I/O errors, 5xx and throttling responses
func (p *Policy) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transient *models.TransientError
	if errors.As(err, &transient) {
		return true
	}

	var statusErr *models.StatusError
	if errors.As(err, &statusErr) {
		return p.isRetryableStatus(statusErr.StatusCode, statusErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// Connection errors
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func (p *Policy) isRetryableStatus(code int, message string) bool {
	if code >= 500 && code < 600 {
		return true
	}
	for _, c := range p.RetryableStatusCodes {
		if code == c {
			return true
		}
	}
	msg := strings.ToLower(message)
	for _, marker := range []string{"throttl", "rate limit", "too many requests", "timeout", "timed out"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Run calls fn until it succeeds, fails with a non-transient error, or attempts
// run out. The last error is returned unchanged.
func (p *Policy) Run(ctx context.Context, op string, fn func() error) error {
	_, err := Do(ctx, p, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Do is Run for operations that return a value
func Do[T any](ctx context.Context, p *Policy, op string, fn func() (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return zero, err
			}
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !p.IsTransient(err) {
			p.debug().
				Str("op", op).
				Int("attempt", attempt+1).
				Err(err).
				Msg("Non-retryable error, failing immediately")
			return zero, err
		}

		if attempt < attempts-1 {
			backoff := p.Delay(attempt)
			p.debug().
				Str("op", op).
				Int("attempt", attempt+1).
				Err(err).
				Dur("backoff", backoff).
				Msg("Retrying after backoff")

			if serr := p.sleep(ctx, backoff); serr != nil {
				return zero, serr
			}
		}
	}

	if p.logger != nil {
		p.logger.Warn().
			Str("op", op).
			Int("max_attempts", attempts).
			Err(lastErr).
			Msg("All retry attempts exhausted")
	}
	return zero, lastErr
}

func (p *Policy) debug() arbor.ILogEvent {
	if p.logger == nil {
		return arbor.NewNoOpLogger().Debug()
	}
	return p.logger.Debug()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
