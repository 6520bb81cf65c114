// Package db provides CRUD operations for the offline record cache and the
// pending-operation queue.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/uuid"
)

// recordedDateFormat is the stable string form recordedDate is serialized to
// for storage and parsed back from on read.
const recordedDateFormat = time.RFC3339Nano

// Store is the durable local store. Every mutating call is committed to the
// backing medium before it returns; there is no write batching, so nothing is
// lost on abrupt termination between calls. Storage failures propagate to the
// caller and are never retried here.
//
// Access is serialized with a single mutex: the store is the one shared
// mutable resource between repository write-through and the sync engine drain.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore creates a Store over an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db.DB}
}

// SaveRecord upserts a record by id. When the id is empty a UUIDv4 is
// generated before storing; the returned id is authoritative from that point.
func (s *Store) SaveRecord(r *models.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New()
	}

	query := `
	INSERT INTO records (id, student_id, card_id, subject, memo, recorded_date, server_synced, user_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		student_id = excluded.student_id,
		card_id = excluded.card_id,
		subject = excluded.subject,
		memo = excluded.memo,
		recorded_date = excluded.recorded_date,
		server_synced = excluded.server_synced,
		user_id = excluded.user_id
	`
	_, err := s.db.Exec(query, r.ID, r.StudentID, r.CardID, r.Subject, r.Memo,
		r.RecordedDate.Format(recordedDateFormat), r.ServerSynced, r.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to save record: %w", err)
	}
	return r.ID, nil
}

// GetRecords returns all stored records with recordedDate rehydrated.
// Order is unspecified.
func (s *Store) GetRecords() ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, student_id, card_id, subject, memo, recorded_date, server_synced, user_id FROM records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRecord returns a single record by id, or sql.ErrNoRows when absent.
func (s *Store) GetRecord(id string) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, student_id, card_id, subject, memo, recorded_date, server_synced, user_id FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRecord removes the record. Absence is a no-op, not an error.
func (s *Store) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// UpdateRecordSyncStatus sets the serverSynced flag in place. No-op when the
// record is absent.
func (s *Store) UpdateRecordSyncStatus(id string, synced bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE records SET server_synced = ? WHERE id = ?`, synced, id); err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// AddToSyncQueue persists a pending operation, assigning an id when absent and
// stamping the enqueue time. Returns the queue id.
func (s *Store) AddToSyncQueue(op *models.PendingOperation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.ID == "" {
		op.ID = uuid.New()
	}
	op.Timestamp = time.Now().UnixMilli()

	payload, err := marshalPayload(op)
	if err != nil {
		return "", err
	}

	query := `INSERT INTO sync_queue (id, op, payload, timestamp, attempts) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.Exec(query, op.ID, string(op.Op), payload, op.Timestamp, op.Attempts); err != nil {
		return "", fmt.Errorf("failed to enqueue operation: %w", err)
	}
	return op.ID, nil
}

// GetSyncQueue returns all pending operations in enqueue order.
func (s *Store) GetSyncQueue() ([]models.PendingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, op, payload, timestamp, attempts FROM sync_queue ORDER BY timestamp, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync queue: %w", err)
	}
	defer rows.Close()

	var ops []models.PendingOperation
	for rows.Next() {
		var op models.PendingOperation
		var opType, payload string
		if err := rows.Scan(&op.ID, &opType, &payload, &op.Timestamp, &op.Attempts); err != nil {
			return nil, err
		}
		op.Op = models.OpType(opType)
		if err := unmarshalPayload(&op, payload); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// RemoveFromSyncQueue removes a pending operation by id. No-op when absent.
func (s *Store) RemoveFromSyncQueue(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove queue item: %w", err)
	}
	return nil
}

// SyncQueueLength returns the number of queued operations.
func (s *Store) SyncQueueLength() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}

// IncrementAttempts bumps the retry counter on a queued operation.
// Best-effort telemetry, never a backoff gate.
func (s *Store) IncrementAttempts(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?`, id)
	return err
}

// marshalPayload serializes the operation data: a full record for
// create/update, or just the target id for delete.
func marshalPayload(op *models.PendingOperation) (string, error) {
	if op.Op == models.OpDelete {
		data, err := json.Marshal(map[string]string{"id": op.TargetID()})
		if err != nil {
			return "", fmt.Errorf("failed to marshal delete payload: %w", err)
		}
		return string(data), nil
	}
	if op.Record == nil {
		return "", fmt.Errorf("%s operation requires a record payload", op.Op)
	}
	data, err := json.Marshal(op.Record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload rehydrates the operation data from its stored JSON.
func unmarshalPayload(op *models.PendingOperation, payload string) error {
	if op.Op == models.OpDelete {
		var target struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(payload), &target); err != nil {
			return fmt.Errorf("failed to unmarshal delete payload: %w", err)
		}
		op.RecordID = target.ID
		return nil
	}
	var r models.Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return fmt.Errorf("failed to unmarshal record payload: %w", err)
	}
	op.Record = &r
	op.RecordID = r.ID
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanRecord.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var r models.Record
	var cardID, subject, userID sql.NullString
	var recordedDate string
	err := row.Scan(&r.ID, &r.StudentID, &cardID, &subject, &r.Memo, &recordedDate, &r.ServerSynced, &userID)
	if err != nil {
		return r, err
	}
	r.CardID = cardID.String
	r.Subject = subject.String
	r.UserID = userID.String

	t, err := time.Parse(recordedDateFormat, recordedDate)
	if err != nil {
		// Older rows may carry plain RFC3339 without sub-second precision
		t, err = time.Parse(time.RFC3339, recordedDate)
		if err != nil {
			return r, fmt.Errorf("failed to parse recorded_date %q: %w", recordedDate, err)
		}
	}
	r.RecordedDate = t
	return r, nil
}
