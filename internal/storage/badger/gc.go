package badger

import (
	"errors"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// gcDiscardRatio is the fraction of stale data a value-log file needs before it is rewritten
const gcDiscardRatio = 0.5

// maxGCRounds bounds one scheduled run so a busy store cannot pin the job
const maxGCRounds = 16

// GarbageCollector periodically reclaims value-log space left by expired cache entries
type GarbageCollector struct {
	db      *BadgerDB
	logger  arbor.ILogger
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewGarbageCollector creates a collector for db. Call Start to schedule it.
func NewGarbageCollector(db *BadgerDB, logger arbor.ILogger) *GarbageCollector {
	return &GarbageCollector{
		db:     db,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start schedules value-log GC on a standard cron spec such as "@hourly"
func (g *GarbageCollector) Start(schedule string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return fmt.Errorf("garbage collector already running")
	}

	if _, err := g.cron.AddFunc(schedule, func() {
		if _, err := g.RunOnce(); err != nil {
			g.logger.Warn().Err(err).Msg("Badger value-log GC failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule badger GC: %w", err)
	}

	g.cron.Start()
	g.running = true
	g.logger.Debug().Str("schedule", schedule).Msg("Badger value-log GC scheduled")
	return nil
}

// Stop cancels the schedule and waits for a running GC to finish
func (g *GarbageCollector) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.running {
		return
	}
	<-g.cron.Stop().Done()
	g.running = false
}

// RunOnce rewrites value-log files until Badger reports nothing left to reclaim.
// Returns the number of files rewritten.
func (g *GarbageCollector) RunOnce() (int, error) {
	rewritten := 0
	for rewritten < maxGCRounds {
		err := g.db.Store().Badger().RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badgerdb.ErrNoRewrite) || errors.Is(err, badgerdb.ErrRejected) {
			break
		}
		if err != nil {
			return rewritten, err
		}
		rewritten++
	}
	if rewritten > 0 {
		g.logger.Debug().Int("rewritten", rewritten).Msg("Badger value-log GC completed")
	}
	return rewritten, nil
}
