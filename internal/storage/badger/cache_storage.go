package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/interfaces"
	"github.com/ternarybob/creditcore/internal/models"
)

// CacheStorage implements interfaces.CacheStore on Badger's native per-entry TTL.
// Keys are written raw so they never collide with badgerhold's typed records.
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) *CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a value by key, returning models.ErrCacheMiss when absent or expired
func (s *CacheStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.Store().Badger().View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, models.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return value, nil
}

// Set stores value under key with the given TTL. A non-positive TTL never expires.
func (s *CacheStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := badgerdb.NewEntry([]byte(key), value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	if err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	s.logger.Trace().Str("key", key).Dur("ttl", ttl).Msg("Cache entry stored")
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *CacheStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Count returns the number of live entries under prefix
func (s *CacheStorage) Count(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.Store().Badger().View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

var _ interfaces.CacheStore = (*CacheStorage)(nil)
