package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ternarybob/creditcore/internal/interfaces"
	"github.com/ternarybob/creditcore/internal/models"
)

// MemoryStore keeps entries in process memory with per-entry expiry
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an in-memory store. Expired entries are purged every cleanupInterval.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy of the stored value, or models.ErrCacheMiss
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, models.ErrCacheMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, models.ErrCacheMiss
	}
	return append([]byte(nil), b...), nil
}

// Set stores a copy of value for ttl
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Len returns the number of entries, including expired ones not yet purged
func (m *MemoryStore) Len() int {
	return m.c.ItemCount()
}

var _ interfaces.CacheStore = (*MemoryStore)(nil)
