package storage

import (
	"fmt"
	"io"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/interfaces"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/cache"
	"github.com/ternarybob/creditcore/internal/storage/badger"
)

// memoryCleanupInterval is how often the memory backend purges expired entries
const memoryCleanupInterval = 10 * time.Minute

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewCacheStore creates the semantic cache backend selected by config.
// Backend "none" returns a nil store; the returned closer is always safe to call.
func NewCacheStore(logger arbor.ILogger, config *common.Config) (interfaces.CacheStore, io.Closer, error) {
	backend, err := models.ParseCacheBackend(config.Cache.Backend)
	if err != nil {
		return nil, nil, models.NewConfigurationError("cache.backend", "%v", err)
	}

	switch backend {
	case models.CacheBackendMemory:
		logger.Debug().Msg("Using in-memory semantic cache")
		return cache.NewMemoryStore(config.CacheTTL(), memoryCleanupInterval), nopCloser{}, nil
	case models.CacheBackendBadger:
		manager, err := badger.NewManager(logger, &config.Storage.Badger, config.Cache.GCSchedule)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger cache: %w", err)
		}
		return manager.CacheStore(), manager, nil
	default:
		return nil, nopCloser{}, nil
	}
}
