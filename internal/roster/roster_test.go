package roster

import (
	"context"
	"testing"

	"github.com/clicknote/clicknote-core/internal/db"
	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
)

// fakeRemote serves fixed rows per table.
type fakeRemote struct {
	rows map[string][]remote.Row
	fail bool
}

func (f *fakeRemote) Select(ctx context.Context, table string, filters remote.Filters) ([]remote.Row, error) {
	if f.fail {
		return nil, apperrors.New(apperrors.ErrRemote, "select failed")
	}
	return f.rows[table], nil
}

func (f *fakeRemote) Insert(ctx context.Context, table string, row remote.Row) (remote.Row, error) {
	return row, nil
}

func (f *fakeRemote) Update(ctx context.Context, table string, filters remote.Filters, patch remote.Row) ([]remote.Row, error) {
	return nil, nil
}

func (f *fakeRemote) Delete(ctx context.Context, table string, filters remote.Filters) error {
	return nil
}

func newTestService(t *testing.T, online bool, fr *fakeRemote) (*Service, *netstatus.StaticOracle) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	oracle := &netstatus.StaticOracle{Online: online}
	return NewService(db.NewStore(database), fr, oracle), oracle
}

func TestStudentsRefreshesCacheWhenOnline(t *testing.T) {
	fr := &fakeRemote{rows: map[string][]remote.Row{
		"students": {
			{"id": "s1", "name": "Mina", "grade": "3", "class_group": "A"},
			{"id": "s2", "name": "Jun", "grade": "3", "class_group": "B"},
		},
	}}
	svc, oracle := newTestService(t, true, fr)

	students, err := svc.Students(context.Background())
	if err != nil {
		t.Fatalf("Failed to get students: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("Expected 2 students, got %d", len(students))
	}

	// Cache now serves the roster offline
	oracle.Online = false
	cached, err := svc.Students(context.Background())
	if err != nil {
		t.Fatalf("Failed to read cached students: %v", err)
	}
	if len(cached) != 2 {
		t.Errorf("Expected 2 cached students, got %d", len(cached))
	}
}

func TestStudentsFallsBackToCacheOnRemoteFailure(t *testing.T) {
	fr := &fakeRemote{rows: map[string][]remote.Row{
		"students": {{"id": "s1", "name": "Mina"}},
	}}
	svc, _ := newTestService(t, true, fr)

	if _, err := svc.Students(context.Background()); err != nil {
		t.Fatalf("Failed to warm cache: %v", err)
	}

	fr.fail = true
	students, err := svc.Students(context.Background())
	if err != nil {
		t.Fatalf("Remote failure must degrade to cache: %v", err)
	}
	if len(students) != 1 || students[0].Name != "Mina" {
		t.Errorf("Expected cached student, got %+v", students)
	}
}

func TestCardsAndNotesRoundTrip(t *testing.T) {
	fr := &fakeRemote{rows: map[string][]remote.Row{
		"cards": {
			{"id": "c1", "title": "Kindness", "description": "helped someone", "category": "social"},
		},
		"student_notes": {
			{"id": "n1", "student_id": "s1", "content": "parent meeting", "created_at": "2026-05-10T09:00:00Z"},
		},
	}}
	svc, oracle := newTestService(t, true, fr)

	cards, err := svc.Cards(context.Background())
	if err != nil {
		t.Fatalf("Failed to get cards: %v", err)
	}
	if len(cards) != 1 || cards[0].Title != "Kindness" {
		t.Errorf("Unexpected cards: %+v", cards)
	}

	notes, err := svc.Notes(context.Background())
	if err != nil {
		t.Fatalf("Failed to get notes: %v", err)
	}
	if len(notes) != 1 || notes[0].StudentID != "s1" {
		t.Errorf("Unexpected notes: %+v", notes)
	}
	if notes[0].CreatedAt.IsZero() {
		t.Error("Expected createdAt parsed from the remote row")
	}

	oracle.Online = false
	cachedNotes, err := svc.Notes(context.Background())
	if err != nil {
		t.Fatalf("Failed to read cached notes: %v", err)
	}
	if len(cachedNotes) != 1 {
		t.Errorf("Expected 1 cached note, got %d", len(cachedNotes))
	}
}

func TestOfflineWithEmptyCache(t *testing.T) {
	svc, _ := newTestService(t, false, &fakeRemote{})

	students, err := svc.Students(context.Background())
	if err != nil {
		t.Fatalf("Empty cache read must succeed: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("Expected empty roster, got %d", len(students))
	}
}
