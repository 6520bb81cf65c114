// Package engine drains the pending-operation queue against the remote store.
package engine

import (
	"context"
	"sync"

	"github.com/clicknote/clicknote-core/internal/db"
	"github.com/clicknote/clicknote-core/internal/logging"
	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
	"github.com/clicknote/clicknote-core/internal/status"
)

// DefaultBatchSize is the number of queued operations dispatched per wave.
const DefaultBatchSize = 10

// Engine replays queued mutations when connectivity returns. A run is a no-op
// while offline or with an empty queue. Failed items stay queued for the next
// run; nothing is ever dropped without a remote acknowledgement.
type Engine struct {
	store       *db.Store
	remote      remote.Store
	oracle      netstatus.Oracle
	broadcaster *status.Broadcaster
	batchSize   int

	// mu serializes whole drains so two triggers cannot double-send.
	mu sync.Mutex
}

// New creates an Engine. batchSize <= 0 selects DefaultBatchSize.
func New(store *db.Store, rs remote.Store, oracle netstatus.Oracle, b *status.Broadcaster, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Engine{
		store:       store,
		remote:      rs,
		oracle:      oracle,
		broadcaster: b,
		batchSize:   batchSize,
	}
}

// SyncNow drains the queue once. Items within a batch are dispatched
// concurrently; batches run one after another in enqueue order. Every failure
// is absorbed into logs and the item's attempt counter, so callers can fire
// and forget. Exactly one status broadcast is emitted per run that reached
// the queue, regardless of how many items moved.
func (e *Engine) SyncNow(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.oracle.IsOnline() {
		logging.Debug("sync skipped, offline", nil)
		return
	}

	queue, err := e.store.GetSyncQueue()
	if err != nil {
		logging.Error("failed to read sync queue", err)
		return
	}
	if len(queue) == 0 {
		return
	}

	logging.Info("sync started", map[string]interface{}{"pending": len(queue)})

	var synced, failed int
	for start := 0; start < len(queue); start += e.batchSize {
		end := start + e.batchSize
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]

		results := make([]bool, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = e.processOne(ctx, &batch[i])
			}(i)
		}
		wg.Wait()

		for _, ok := range results {
			if ok {
				synced++
			} else {
				failed++
			}
		}
	}

	logging.Info("sync finished", map[string]interface{}{"synced": synced, "failed": failed})
	e.broadcaster.NotifyChange()
}

// processOne replays one queued operation. Returns true when the remote store
// acknowledged it and it was removed from the queue.
func (e *Engine) processOne(ctx context.Context, op *models.PendingOperation) bool {
	var err error
	switch op.Op {
	case models.OpCreate, models.OpUpdate:
		err = e.pushRecord(ctx, op)
	case models.OpDelete:
		err = e.remote.Delete(ctx, models.RecordsTable, remote.Filters{"id": op.TargetID()})
	default:
		logging.Warn("dropping queue item with unknown operation", map[string]interface{}{
			"queueId": op.ID,
			"op":      string(op.Op),
		})
		err = nil
	}

	if err != nil {
		logging.Warn("queued operation failed, will retry", map[string]interface{}{
			"queueId":  op.ID,
			"op":       string(op.Op),
			"recordId": op.TargetID(),
			"attempts": op.Attempts + 1,
			"error":    err.Error(),
		})
		if ierr := e.store.IncrementAttempts(op.ID); ierr != nil {
			logging.Error("failed to record attempt", ierr, map[string]interface{}{"queueId": op.ID})
		}
		return false
	}

	if err := e.store.RemoveFromSyncQueue(op.ID); err != nil {
		// The remote write landed; the item will be replayed next run and the
		// remote upsert/idempotent delete makes the replay harmless.
		logging.Error("failed to dequeue acknowledged operation", err, map[string]interface{}{"queueId": op.ID})
		return false
	}
	return true
}

func (e *Engine) pushRecord(ctx context.Context, op *models.PendingOperation) error {
	if op.Record == nil {
		logging.Warn("dropping queue item without record payload", map[string]interface{}{"queueId": op.ID})
		return nil
	}
	if _, err := e.remote.Insert(ctx, models.RecordsTable, op.Record.ToRow()); err != nil {
		return err
	}
	if err := e.store.UpdateRecordSyncStatus(op.Record.ID, true); err != nil {
		logging.Warn("failed to mark record synced", map[string]interface{}{
			"recordId": op.Record.ID,
			"error":    err.Error(),
		})
	}
	return nil
}
