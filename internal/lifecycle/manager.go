// Package lifecycle ties the sync core together: storage bring-up, the
// periodic sync loop, and teardown.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/clicknote/clicknote-core/internal/db"
	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/engine"
	"github.com/clicknote/clicknote-core/internal/logging"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
	"github.com/clicknote/clicknote-core/internal/repo"
	"github.com/clicknote/clicknote-core/internal/roster"
	"github.com/clicknote/clicknote-core/internal/status"
)

// Beacon sends a fire-and-forget payload during teardown. Implemented by the
// remote HTTP client; nil disables the shutdown flush.
type Beacon interface {
	FireBeacon(path string, payload interface{})
}

// BeaconPath is the teardown-sync endpoint the shutdown flush posts to.
const BeaconPath = "/sync/beacon"

// Options configures a Manager.
type Options struct {
	DataDir      string
	Remote       remote.Store
	Session      remote.Session
	Oracle       netstatus.Oracle
	Beacon       Beacon
	SyncInterval time.Duration // 0 disables the periodic loop
	BatchSize    int
}

// Manager owns the wired sync core. Initialize builds it, Cleanup tears it
// down; both are idempotent.
type Manager struct {
	opts Options

	mu          sync.Mutex
	db          *db.DB
	store       *db.Store
	broadcaster *status.Broadcaster
	records     *repo.Records
	engine      *engine.Engine
	roster      *roster.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates an uninitialized Manager.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Initialize opens the local store, applies pending schema migrations, and
// wires the repository, engine, and broadcaster. Calling it again on an
// initialized manager is a no-op.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return nil
	}

	database, err := db.Open(m.opts.DataDir)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to open local store", err)
	}

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		database.Close()
		return apperrors.Wrap(apperrors.ErrMigration, "failed to initialize migrations", err)
	}
	if err := migrator.Up(); err != nil {
		database.Close()
		return apperrors.Wrap(apperrors.ErrMigration, "failed to apply migrations", err)
	}

	m.db = database
	m.store = db.NewStore(database)
	m.broadcaster = status.NewBroadcaster(m.opts.Oracle, m.store)
	m.records = repo.NewRecords(m.store, m.opts.Remote, m.opts.Session, m.opts.Oracle, m.broadcaster)
	m.engine = engine.New(m.store, m.opts.Remote, m.opts.Oracle, m.broadcaster, m.opts.BatchSize)
	m.roster = roster.NewService(m.store, m.opts.Remote, m.opts.Oracle)

	if m.opts.SyncInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.wg.Add(1)
		go m.runScheduler(ctx)
	}

	logging.Info("sync core initialized", map[string]interface{}{"dataDir": m.opts.DataDir})
	return nil
}

// SyncNow triggers one drain and reports whether everything pending reached
// the remote store. Offline or uninitialized returns false.
func (m *Manager) SyncNow(ctx context.Context) bool {
	m.mu.Lock()
	eng, store := m.engine, m.store
	m.mu.Unlock()

	if eng == nil || !m.opts.Oracle.IsOnline() {
		return false
	}

	eng.SyncNow(ctx)

	remaining, err := store.SyncQueueLength()
	if err != nil {
		logging.Warn("failed to read queue length after sync", map[string]interface{}{"error": err.Error()})
		return false
	}
	return remaining == 0
}

// FlushOnShutdown posts the whole pending queue to the beacon endpoint when
// online. Fire-and-forget: it never blocks or gates shutdown, and durability
// comes from the persisted queue, not from this flush.
func (m *Manager) FlushOnShutdown(ctx context.Context) {
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()

	if store == nil || m.opts.Beacon == nil || !m.opts.Oracle.IsOnline() {
		return
	}

	queue, err := store.GetSyncQueue()
	if err != nil {
		logging.Warn("failed to read queue for shutdown flush", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(queue) == 0 {
		return
	}

	logging.Info("flushing pending operations on shutdown", map[string]interface{}{"pending": len(queue)})
	m.opts.Beacon.FireBeacon(BeaconPath, queue)
}

// Cleanup stops the periodic loop and closes the local store. Idempotent.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			logging.Warn("failed to close local store", map[string]interface{}{"error": err.Error()})
		}
		m.db = nil
		m.store = nil
		m.broadcaster = nil
		m.records = nil
		m.engine = nil
		m.roster = nil
	}
}

// Records returns the record repository, nil before Initialize.
func (m *Manager) Records() *repo.Records {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records
}

// Roster returns the roster service, nil before Initialize.
func (m *Manager) Roster() *roster.Service {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roster
}

// Broadcaster returns the status broadcaster, nil before Initialize.
func (m *Manager) Broadcaster() *status.Broadcaster {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcaster
}

// Store returns the local store, nil before Initialize.
func (m *Manager) Store() *db.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store
}

// runScheduler drives the periodic drain. Each tick is a full SyncNow; the
// engine itself skips when offline or idle.
func (m *Manager) runScheduler(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SyncInterval)
	defer ticker.Stop()

	logging.Debug("sync scheduler started", map[string]interface{}{"interval": m.opts.SyncInterval.String()})
	for {
		select {
		case <-ctx.Done():
			logging.Debug("sync scheduler stopped", nil)
			return
		case <-ticker.C:
			m.mu.Lock()
			eng := m.engine
			m.mu.Unlock()
			if eng != nil {
				eng.SyncNow(ctx)
			}
		}
	}
}
