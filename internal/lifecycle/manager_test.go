package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
)

// fakeRemote accepts or rejects everything.
type fakeRemote struct {
	mu      sync.Mutex
	failAll bool
	inserts int
}

func (f *fakeRemote) Select(ctx context.Context, table string, filters remote.Filters) ([]remote.Row, error) {
	return nil, nil
}

func (f *fakeRemote) Insert(ctx context.Context, table string, row remote.Row) (remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, apperrors.New(apperrors.ErrRemote, "insert failed")
	}
	f.inserts++
	return row, nil
}

func (f *fakeRemote) Update(ctx context.Context, table string, filters remote.Filters, patch remote.Row) ([]remote.Row, error) {
	return nil, nil
}

func (f *fakeRemote) Delete(ctx context.Context, table string, filters remote.Filters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return apperrors.New(apperrors.ErrRemote, "delete failed")
	}
	return nil
}

// fakeBeacon records flush payloads.
type fakeBeacon struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (b *fakeBeacon) FireBeacon(path string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
}

func (b *fakeBeacon) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads)
}

func newTestManager(t *testing.T, online bool, fr *fakeRemote, beacon Beacon) (*Manager, *netstatus.StaticOracle) {
	t.Helper()
	oracle := &netstatus.StaticOracle{Online: online}
	m := NewManager(Options{
		DataDir: t.TempDir(),
		Remote:  fr,
		Session: &remote.StaticSession{ActorID: "teacher-1"},
		Oracle:  oracle,
		Beacon:  beacon,
	})
	t.Cleanup(m.Cleanup)
	return m, oracle
}

func TestInitializeIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t, true, &fakeRemote{}, nil)

	if err := m.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := m.Initialize(); err != nil {
		t.Fatalf("Second initialize must be a no-op: %v", err)
	}

	if m.Records() == nil || m.Broadcaster() == nil || m.Store() == nil || m.Roster() == nil {
		t.Error("Expected all components wired after initialize")
	}
}

func TestSyncNowReportsSuccess(t *testing.T) {
	fr := &fakeRemote{}
	m, oracle := newTestManager(t, false, fr, nil)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	// Offline save queues one create
	rec := &models.Record{StudentID: "student-1", Memo: "offline memo", RecordedDate: time.Now()}
	if _, err := m.Records().SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	if m.SyncNow(context.Background()) {
		t.Error("Expected SyncNow to report false while offline")
	}

	oracle.Online = true
	if !m.SyncNow(context.Background()) {
		t.Error("Expected SyncNow to report true after draining")
	}
	if fr.inserts != 1 {
		t.Errorf("Expected 1 remote insert, got %d", fr.inserts)
	}
}

func TestSyncNowReportsFailureWhenItemsRemain(t *testing.T) {
	fr := &fakeRemote{failAll: true}
	m, oracle := newTestManager(t, false, fr, nil)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	rec := &models.Record{StudentID: "student-1", Memo: "stuck memo", RecordedDate: time.Now()}
	if _, err := m.Records().SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	oracle.Online = true
	if m.SyncNow(context.Background()) {
		t.Error("Expected SyncNow to report false while items remain queued")
	}
}

func TestSyncNowBeforeInitialize(t *testing.T) {
	m, _ := newTestManager(t, true, &fakeRemote{}, nil)
	if m.SyncNow(context.Background()) {
		t.Error("Expected SyncNow to report false before initialize")
	}
}

func TestFlushOnShutdownSendsQueue(t *testing.T) {
	beacon := &fakeBeacon{}
	m, oracle := newTestManager(t, false, &fakeRemote{}, beacon)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	rec := &models.Record{StudentID: "student-1", Memo: "pending memo", RecordedDate: time.Now()}
	if _, err := m.Records().SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	// Offline: no flush
	m.FlushOnShutdown(context.Background())
	if beacon.count() != 0 {
		t.Error("Expected no flush while offline")
	}

	oracle.Online = true
	m.FlushOnShutdown(context.Background())
	if beacon.count() != 1 {
		t.Fatalf("Expected one beacon flush, got %d", beacon.count())
	}

	queue, ok := beacon.payloads[0].([]models.PendingOperation)
	if !ok || len(queue) != 1 {
		t.Errorf("Expected the queue as payload, got %T", beacon.payloads[0])
	}
}

func TestFlushOnShutdownSkipsEmptyQueue(t *testing.T) {
	beacon := &fakeBeacon{}
	m, _ := newTestManager(t, true, &fakeRemote{}, beacon)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	m.FlushOnShutdown(context.Background())
	if beacon.count() != 0 {
		t.Error("Expected no flush for an empty queue")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t, true, &fakeRemote{}, nil)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	m.Cleanup()
	m.Cleanup()

	if m.Records() != nil {
		t.Error("Expected components released after cleanup")
	}
}
