// Package repo implements the record repository: the single entry point for
// reading and writing records. Reads come from the local store and are merged
// with the remote copy when reachable; writes land locally first and reach the
// remote store either directly or through the pending-operation queue.
package repo

import (
	"context"
	"time"

	"github.com/clicknote/clicknote-core/internal/db"
	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/logging"
	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
	"github.com/clicknote/clicknote-core/internal/status"
)

// Records coordinates the local store, the remote store, the connectivity
// oracle, and the status broadcaster for all record operations.
type Records struct {
	store       *db.Store
	remote      remote.Store
	session     remote.Session
	oracle      netstatus.Oracle
	broadcaster *status.Broadcaster
}

// NewRecords creates a record repository over its collaborators.
func NewRecords(store *db.Store, rs remote.Store, session remote.Session, oracle netstatus.Oracle, b *status.Broadcaster) *Records {
	return &Records{
		store:       store,
		remote:      rs,
		session:     session,
		oracle:      oracle,
		broadcaster: b,
	}
}

// SaveRecord persists a record locally, then pushes it to the remote store
// when online or enqueues a create operation otherwise. Remote failure of any
// kind degrades to the enqueue path; the local save alone decides success.
// Returns the record id, which is authoritative from this point on.
func (r *Records) SaveRecord(ctx context.Context, rec *models.Record) (string, error) {
	actorID, err := r.session.CurrentActorID()
	if err != nil {
		return "", err
	}
	rec.UserID = actorID

	if err := rec.Validate(); err != nil {
		return "", apperrors.Wrap(apperrors.ErrValidation, "record validation failed", err)
	}

	id, err := r.store.SaveRecord(rec)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrStorage, "failed to save record locally", err)
	}

	if r.oracle.IsOnline() {
		if err := r.pushRecord(ctx, rec); err != nil {
			logging.Warn("remote save failed, queuing record", map[string]interface{}{
				"recordId": id,
				"error":    err.Error(),
			})
			if err := r.enqueue(&models.PendingOperation{Op: models.OpCreate, Record: rec}); err != nil {
				return "", err
			}
		}
	} else {
		if err := r.enqueue(&models.PendingOperation{Op: models.OpCreate, Record: rec}); err != nil {
			return "", err
		}
	}

	r.broadcaster.NotifyChange()
	return id, nil
}

// GetRecords returns the merged view of local and remote records. Offline, or
// when the remote read fails, the local snapshot is returned as-is. The merge
// is keyed by id and the server copy wins; merged rows are written back to the
// local store so the next offline read reflects them.
func (r *Records) GetRecords(ctx context.Context) ([]models.Record, error) {
	local, err := r.store.GetRecords()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read local records", err)
	}

	if !r.oracle.IsOnline() {
		return local, nil
	}

	actorID, err := r.session.CurrentActorID()
	if err != nil {
		logging.Debug("no actor for remote read, serving local records", nil)
		return local, nil
	}

	rows, err := r.remote.Select(ctx, models.RecordsTable, remote.Filters{"user_id": actorID})
	if err != nil {
		logging.Warn("remote fetch failed, serving local records", map[string]interface{}{"error": err.Error()})
		return local, nil
	}

	merged := mergeRecords(local, rows)

	for i := range merged {
		if merged[i].ServerSynced {
			if _, err := r.store.SaveRecord(&merged[i]); err != nil {
				logging.Warn("failed to cache merged record", map[string]interface{}{
					"recordId": merged[i].ID,
					"error":    err.Error(),
				})
			}
		}
	}

	return merged, nil
}

// DeleteRecord removes a record locally and from the remote store. Remote
// failure or being offline enqueues a delete operation carrying only the id.
func (r *Records) DeleteRecord(ctx context.Context, id string) error {
	if err := r.store.DeleteRecord(id); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to delete record locally", err)
	}

	if r.oracle.IsOnline() {
		if err := r.remote.Delete(ctx, models.RecordsTable, remote.Filters{"id": id}); err != nil {
			logging.Warn("remote delete failed, queuing delete", map[string]interface{}{
				"recordId": id,
				"error":    err.Error(),
			})
			if err := r.enqueue(&models.PendingOperation{Op: models.OpDelete, RecordID: id}); err != nil {
				return err
			}
		}
	} else {
		if err := r.enqueue(&models.PendingOperation{Op: models.OpDelete, RecordID: id}); err != nil {
			return err
		}
	}

	r.broadcaster.NotifyChange()
	return nil
}

// pushRecord writes one record to the remote store and marks the local copy
// synced on success.
func (r *Records) pushRecord(ctx context.Context, rec *models.Record) error {
	if _, err := r.remote.Insert(ctx, models.RecordsTable, rec.ToRow()); err != nil {
		return err
	}
	if err := r.store.UpdateRecordSyncStatus(rec.ID, true); err != nil {
		logging.Warn("failed to mark record synced", map[string]interface{}{
			"recordId": rec.ID,
			"error":    err.Error(),
		})
	}
	rec.ServerSynced = true
	return nil
}

func (r *Records) enqueue(op *models.PendingOperation) error {
	if _, err := r.store.AddToSyncQueue(op); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to enqueue pending operation", err)
	}
	return nil
}

// mergeRecords overlays the server rows onto the local snapshot, keyed by id.
// Server rows always win and arrive marked synced; local-only records (not yet
// pushed) survive untouched.
func mergeRecords(local []models.Record, rows []remote.Row) []models.Record {
	byID := make(map[string]int, len(local))
	merged := make([]models.Record, len(local))
	copy(merged, local)
	for i := range merged {
		byID[merged[i].ID] = i
	}

	for _, row := range rows {
		rec, err := models.RecordFromRow(row)
		if err != nil {
			logging.Warn("skipping malformed remote record", map[string]interface{}{"error": err.Error()})
			continue
		}
		rec.ServerSynced = true
		if rec.RecordedDate.IsZero() {
			rec.RecordedDate = time.Now()
		}
		if i, ok := byID[rec.ID]; ok {
			merged[i] = *rec
		} else {
			byID[rec.ID] = len(merged)
			merged = append(merged, *rec)
		}
	}
	return merged
}
