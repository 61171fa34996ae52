// Package cache provides the best-effort semantic cache used to memoize
// repeatable sub-steps, and its in-process backends.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/interfaces"
	"github.com/ternarybob/creditcore/internal/models"
)

// Options configures the semantic cache service
type Options struct {
	SchemaVersion string
	PromptVersion string
	Model         string // Recorded in each entry, e.g. "deterministic"
	TTL           time.Duration
	Registerer    prometheus.Registerer // nil leaves the counters unregistered
}

// Service implements interfaces.SemanticCache over a CacheStore
type Service struct {
	store  interfaces.CacheStore
	opts   Options
	logger arbor.ILogger

	lookups *prometheus.CounterVec
	writes  *prometheus.CounterVec
}

// NewService creates a semantic cache over store. A nil store always misses.
func NewService(store interfaces.CacheStore, opts Options, logger arbor.ILogger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = models.DefaultCacheTTL
	}
	factory := promauto.With(opts.Registerer)
	return &Service{
		store:  store,
		opts:   opts,
		logger: logger,
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditcore",
			Subsystem: "semantic_cache",
			Name:      "lookups_total",
			Help:      "Semantic cache lookups by task and result (hit, miss, error).",
		}, []string{"task", "result"}),
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditcore",
			Subsystem: "semantic_cache",
			Name:      "writes_total",
			Help:      "Semantic cache writes by task and result (ok, error).",
		}, []string{"task", "result"}),
	}
}

// Get returns the cached output for task and payload. Store errors, decode
// errors and version mismatches are all misses.
func (s *Service) Get(ctx context.Context, task string, payload any) (json.RawMessage, bool) {
	if s.store == nil {
		return nil, false
	}
	key, err := Key(task, s.opts.SchemaVersion, s.opts.PromptVersion, payload)
	if err != nil {
		s.miss(task, "error", err)
		return nil, false
	}

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrCacheMiss) {
			s.lookups.WithLabelValues(task, "miss").Inc()
			return nil, false
		}
		s.miss(task, "error", err)
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.miss(task, "error", err)
		return nil, false
	}
	if entry.SchemaVersion != s.opts.SchemaVersion || entry.PromptVersion != s.opts.PromptVersion {
		s.lookups.WithLabelValues(task, "miss").Inc()
		return nil, false
	}

	s.lookups.WithLabelValues(task, "hit").Inc()
	return entry.Output, true
}

// Put stores output for task and payload. Failures are logged and dropped.
func (s *Service) Put(ctx context.Context, task string, payload any, output any) {
	if s.store == nil {
		return
	}
	key, err := Key(task, s.opts.SchemaVersion, s.opts.PromptVersion, payload)
	if err != nil {
		s.writeFailed(task, err)
		return
	}
	out, err := json.Marshal(output)
	if err != nil {
		s.writeFailed(task, err)
		return
	}
	raw, err := json.Marshal(models.CacheEntry{
		Output:        out,
		Model:         s.opts.Model,
		SchemaVersion: s.opts.SchemaVersion,
		PromptVersion: s.opts.PromptVersion,
	})
	if err != nil {
		s.writeFailed(task, err)
		return
	}
	if err := s.store.Set(ctx, key, raw, s.opts.TTL); err != nil {
		s.writeFailed(task, err)
		return
	}
	s.writes.WithLabelValues(task, "ok").Inc()
}

func (s *Service) miss(task, result string, err error) {
	s.lookups.WithLabelValues(task, result).Inc()
	s.logger.Warn().Err(err).Str("task", task).Msg("Semantic cache lookup failed, treating as miss")
}

func (s *Service) writeFailed(task string, err error) {
	s.writes.WithLabelValues(task, "error").Inc()
	s.logger.Warn().Err(err).Str("task", task).Msg("Semantic cache write failed, skipping")
}

// Noop is a semantic cache that never hits and never stores
type Noop struct{}

// NewNoop returns the pass-through cache used when caching is disabled
func NewNoop() *Noop {
	return &Noop{}
}

// Get always misses
func (Noop) Get(context.Context, string, any) (json.RawMessage, bool) {
	return nil, false
}

// Put does nothing
func (Noop) Put(context.Context, string, any, any) {}

var (
	_ interfaces.SemanticCache = (*Service)(nil)
	_ interfaces.SemanticCache = (*Noop)(nil)
)
