// Package db provides unit tests for the durable local store.
package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/clicknote/clicknote-core/internal/models"
)

// setupTestStore creates a migrated in-memory store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return NewStore(database)
}

func testRecord() *models.Record {
	return &models.Record{
		StudentID:    "student-1",
		CardID:       "card-1",
		Subject:      "math",
		Memo:         "solved the puzzle unaided",
		RecordedDate: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		UserID:       "teacher-1",
	}
}

func TestSaveRecordGeneratesID(t *testing.T) {
	store := setupTestStore(t)

	rec := testRecord()
	id, err := store.SaveRecord(rec)
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a generated id, got empty string")
	}
	if rec.ID != id {
		t.Errorf("Expected record id to be set in place, got %q vs %q", rec.ID, id)
	}
}

func TestSaveRecordRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	rec := testRecord()
	id, err := store.SaveRecord(rec)
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	got, err := store.GetRecord(id)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.StudentID != rec.StudentID || got.Memo != rec.Memo || got.CardID != rec.CardID {
		t.Errorf("Record fields changed across round trip: %+v", got)
	}
	if !got.RecordedDate.Equal(rec.RecordedDate) {
		t.Errorf("Expected recordedDate %v, got %v", rec.RecordedDate, got.RecordedDate)
	}
	if got.ServerSynced {
		t.Error("Expected new record to be unsynced")
	}
}

func TestSaveRecordUpsertsByID(t *testing.T) {
	store := setupTestStore(t)

	rec := testRecord()
	id, err := store.SaveRecord(rec)
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	rec.Memo = "revised memo"
	rec.ServerSynced = true
	if _, err := store.SaveRecord(rec); err != nil {
		t.Fatalf("Failed to upsert record: %v", err)
	}

	all, err := store.GetRecords()
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 record after upsert, got %d", len(all))
	}
	if all[0].ID != id || all[0].Memo != "revised memo" || !all[0].ServerSynced {
		t.Errorf("Upsert did not overwrite row: %+v", all[0])
	}
}

func TestOfflineSaveSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	database, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	store := NewStore(database)
	id, err := store.SaveRecord(testRecord())
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if _, err := store.AddToSyncQueue(&models.PendingOperation{Op: models.OpCreate, Record: testRecord()}); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer reopened.Close()

	store = NewStore(reopened)
	got, err := store.GetRecord(id)
	if err != nil {
		t.Fatalf("Record did not survive reopen: %v", err)
	}
	if got.ServerSynced {
		t.Error("Expected reopened record to still be unsynced")
	}
	n, err := store.SyncQueueLength()
	if err != nil {
		t.Fatalf("Failed to count queue: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected queue to survive reopen with 1 item, got %d", n)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRecord("missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for missing record, got %v", err)
	}
}

func TestDeleteRecordAbsentIsNoop(t *testing.T) {
	store := setupTestStore(t)

	if err := store.DeleteRecord("missing"); err != nil {
		t.Errorf("Expected delete of absent record to succeed, got %v", err)
	}
}

func TestUpdateRecordSyncStatus(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.SaveRecord(testRecord())
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	if err := store.UpdateRecordSyncStatus(id, true); err != nil {
		t.Fatalf("Failed to update sync status: %v", err)
	}
	got, err := store.GetRecord(id)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if !got.ServerSynced {
		t.Error("Expected record to be marked synced")
	}

	// Absent record is a no-op
	if err := store.UpdateRecordSyncStatus("missing", true); err != nil {
		t.Errorf("Expected update of absent record to succeed, got %v", err)
	}
}

func TestSyncQueueOrderAndPayloads(t *testing.T) {
	store := setupTestStore(t)

	first := testRecord()
	first.ID = "rec-1"
	if _, err := store.AddToSyncQueue(&models.PendingOperation{Op: models.OpCreate, Record: first}); err != nil {
		t.Fatalf("Failed to enqueue create: %v", err)
	}
	if _, err := store.AddToSyncQueue(&models.PendingOperation{Op: models.OpDelete, RecordID: "rec-2"}); err != nil {
		t.Fatalf("Failed to enqueue delete: %v", err)
	}

	queue, err := store.GetSyncQueue()
	if err != nil {
		t.Fatalf("Failed to read queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("Expected 2 queued operations, got %d", len(queue))
	}

	if queue[0].Op != models.OpCreate {
		t.Errorf("Expected create first, got %s", queue[0].Op)
	}
	if queue[0].Record == nil || queue[0].Record.ID != "rec-1" {
		t.Errorf("Create payload lost the record: %+v", queue[0].Record)
	}
	if queue[0].Record != nil && queue[0].Record.Memo != first.Memo {
		t.Errorf("Create payload lost fields: %+v", queue[0].Record)
	}

	if queue[1].Op != models.OpDelete {
		t.Errorf("Expected delete second, got %s", queue[1].Op)
	}
	if queue[1].TargetID() != "rec-2" {
		t.Errorf("Delete payload lost the target id: %q", queue[1].TargetID())
	}
}

func TestRemoveFromSyncQueue(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.AddToSyncQueue(&models.PendingOperation{Op: models.OpDelete, RecordID: "rec-1"})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	if err := store.RemoveFromSyncQueue(id); err != nil {
		t.Fatalf("Failed to remove queue item: %v", err)
	}
	n, err := store.SyncQueueLength()
	if err != nil {
		t.Fatalf("Failed to count queue: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected empty queue, got %d", n)
	}

	// Absent item is a no-op
	if err := store.RemoveFromSyncQueue(id); err != nil {
		t.Errorf("Expected remove of absent item to succeed, got %v", err)
	}
}

func TestIncrementAttempts(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.AddToSyncQueue(&models.PendingOperation{Op: models.OpDelete, RecordID: "rec-1"})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	if err := store.IncrementAttempts(id); err != nil {
		t.Fatalf("Failed to increment attempts: %v", err)
	}
	if err := store.IncrementAttempts(id); err != nil {
		t.Fatalf("Failed to increment attempts: %v", err)
	}

	queue, err := store.GetSyncQueue()
	if err != nil {
		t.Fatalf("Failed to read queue: %v", err)
	}
	if queue[0].Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", queue[0].Attempts)
	}
}
