package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/models"
)

type classification struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
}

// failingStore errors on every call
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk on fire")
}

func newService(t *testing.T, store *MemoryStore, reg prometheus.Registerer) *Service {
	t.Helper()
	return NewService(store, Options{
		SchemaVersion: "1",
		PromptVersion: "1",
		Model:         "deterministic",
		Registerer:    reg,
	}, arbor.NewLogger())
}

func TestServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, NewMemoryStore(time.Hour, time.Hour), nil)
	payload := map[string]string{"note_id": "n1", "text": "Guarantee provided"}

	_, ok := svc.Get(ctx, "risk_classification", payload)
	assert.False(t, ok)

	svc.Put(ctx, "risk_classification", payload, classification{Category: "Guarantees", Severity: "High"})

	raw, ok := svc.Get(ctx, "risk_classification", payload)
	require.True(t, ok)

	var got classification
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, classification{Category: "Guarantees", Severity: "High"}, got)
}

func TestServiceKeysByTaskAndPayload(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, NewMemoryStore(time.Hour, time.Hour), nil)

	svc.Put(ctx, "task_a", map[string]int{"x": 1}, "a")

	_, ok := svc.Get(ctx, "task_b", map[string]int{"x": 1})
	assert.False(t, ok, "different task must miss")
	_, ok = svc.Get(ctx, "task_a", map[string]int{"x": 2})
	assert.False(t, ok, "different payload must miss")
	_, ok = svc.Get(ctx, "task_a", map[string]int{"x": 1})
	assert.True(t, ok)
}

func TestServiceVersionMismatchMisses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour, time.Hour)
	v1 := newService(t, store, nil)
	v2 := NewService(store, Options{SchemaVersion: "1", PromptVersion: "2"}, arbor.NewLogger())

	v1.Put(ctx, "task", "payload", "out")

	_, ok := v2.Get(ctx, "task", "payload")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestServiceStoreFailuresAreMisses(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc := NewService(failingStore{}, Options{SchemaVersion: "1", PromptVersion: "1", Registerer: reg}, arbor.NewLogger())

	assert.NotPanics(t, func() { svc.Put(ctx, "task", "payload", "out") })

	_, ok := svc.Get(ctx, "task", "payload")
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.lookups.WithLabelValues("task", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.writes.WithLabelValues("task", "error")))
}

func TestServiceUnserializablePayload(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, NewMemoryStore(time.Hour, time.Hour), nil)

	svc.Put(ctx, "task", map[string]any{"f": func() {}}, "out")
	_, ok := svc.Get(ctx, "task", map[string]any{"f": func() {}})
	assert.False(t, ok)
}

func TestServiceCountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc := newService(t, NewMemoryStore(time.Hour, time.Hour), reg)

	svc.Get(ctx, "task", 1)
	svc.Put(ctx, "task", 1, "one")
	svc.Get(ctx, "task", 1)
	svc.Get(ctx, "task", 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.lookups.WithLabelValues("task", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.lookups.WithLabelValues("task", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.writes.WithLabelValues("task", "ok")))
}

func TestNilStoreAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, Options{}, arbor.NewLogger())

	svc.Put(ctx, "task", 1, "one")
	_, ok := svc.Get(ctx, "task", 1)
	assert.False(t, ok)
	assert.Equal(t, models.DefaultCacheTTL, svc.opts.TTL)
}

func TestNoop(t *testing.T) {
	n := NewNoop()
	n.Put(context.Background(), "task", 1, "one")

	_, ok := n.Get(context.Background(), "task", 1)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour, time.Hour)

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Millisecond))
	require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, models.ErrCacheMiss)

	got, err := store.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour, time.Hour)
	value := []byte("abc")

	require.NoError(t, store.Set(ctx, "k", value, time.Hour))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
