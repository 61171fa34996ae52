package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/interfaces"
)

// Manager owns the Badger connection, the cache store on top of it, and its GC schedule
type Manager struct {
	db     *BadgerDB
	cache  *CacheStorage
	gc     *GarbageCollector
	logger arbor.ILogger
}

// NewManager opens the database and, when gcSchedule is non-empty, starts value-log GC
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, gcSchedule string) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		cache:  NewCacheStorage(db, logger),
		gc:     NewGarbageCollector(db, logger),
		logger: logger,
	}

	if gcSchedule != "" {
		if err := manager.gc.Start(gcSchedule); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// CacheStore returns the semantic cache backend
func (m *Manager) CacheStore() interfaces.CacheStore {
	return m.cache
}

// DB returns the underlying database connection
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close stops GC and closes the database
func (m *Manager) Close() error {
	m.gc.Stop()
	return m.db.Close()
}
