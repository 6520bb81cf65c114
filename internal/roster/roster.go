// Package roster serves the app's reference tables (students, behavior cards,
// notes) as a read-through cache. The tables are server-owned: reads refresh
// the local cache when online and fall back to it when not. Nothing here is
// ever queued for write-back.
package roster

import (
	"context"
	"time"

	"github.com/clicknote/clicknote-core/internal/db"
	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/logging"
	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
)

const (
	studentsTable = "students"
	cardsTable    = "cards"
	notesTable    = "student_notes"
)

// Service reads roster data remote-first with a local cache fallback.
type Service struct {
	store  *db.Store
	remote remote.Store
	oracle netstatus.Oracle
}

// NewService creates a roster service.
func NewService(store *db.Store, rs remote.Store, oracle netstatus.Oracle) *Service {
	return &Service{store: store, remote: rs, oracle: oracle}
}

// Students returns the roster, refreshing the cache when the remote store is
// reachable.
func (s *Service) Students(ctx context.Context) ([]models.Student, error) {
	if s.oracle.IsOnline() {
		rows, err := s.remote.Select(ctx, studentsTable, nil)
		if err == nil {
			students := make([]models.Student, 0, len(rows))
			for _, row := range rows {
				students = append(students, models.Student{
					ID:         rowString(row, "id"),
					Name:       rowString(row, "name"),
					Grade:      rowString(row, "grade"),
					ClassGroup: rowString(row, "class_group"),
				})
			}
			if err := s.store.ReplaceStudents(students); err != nil {
				logging.Warn("failed to refresh students cache", map[string]interface{}{"error": err.Error()})
			}
			return students, nil
		}
		logging.Warn("remote students fetch failed, serving cache", map[string]interface{}{"error": err.Error()})
	}

	students, err := s.store.GetStudents()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read students cache", err)
	}
	return students, nil
}

// Cards returns the behavior card set, refreshing the cache when reachable.
func (s *Service) Cards(ctx context.Context) ([]models.Card, error) {
	if s.oracle.IsOnline() {
		rows, err := s.remote.Select(ctx, cardsTable, nil)
		if err == nil {
			cards := make([]models.Card, 0, len(rows))
			for _, row := range rows {
				cards = append(cards, models.Card{
					ID:          rowString(row, "id"),
					Title:       rowString(row, "title"),
					Description: rowString(row, "description"),
					Category:    rowString(row, "category"),
				})
			}
			if err := s.store.ReplaceCards(cards); err != nil {
				logging.Warn("failed to refresh cards cache", map[string]interface{}{"error": err.Error()})
			}
			return cards, nil
		}
		logging.Warn("remote cards fetch failed, serving cache", map[string]interface{}{"error": err.Error()})
	}

	cards, err := s.store.GetCards()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read cards cache", err)
	}
	return cards, nil
}

// Notes returns the teacher notes, refreshing the cache when reachable.
func (s *Service) Notes(ctx context.Context) ([]models.Note, error) {
	if s.oracle.IsOnline() {
		rows, err := s.remote.Select(ctx, notesTable, nil)
		if err == nil {
			notes := make([]models.Note, 0, len(rows))
			for _, row := range rows {
				n := models.Note{
					ID:        rowString(row, "id"),
					StudentID: rowString(row, "student_id"),
					Content:   rowString(row, "content"),
				}
				if raw := rowString(row, "created_at"); raw != "" {
					if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
						n.CreatedAt = t
					} else if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
						n.CreatedAt = t
					}
				}
				notes = append(notes, n)
			}
			if err := s.store.ReplaceNotes(notes); err != nil {
				logging.Warn("failed to refresh notes cache", map[string]interface{}{"error": err.Error()})
			}
			return notes, nil
		}
		logging.Warn("remote notes fetch failed, serving cache", map[string]interface{}{"error": err.Error()})
	}

	notes, err := s.store.GetNotes()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read notes cache", err)
	}
	return notes, nil
}

func rowString(row remote.Row, key string) string {
	if v, ok := row[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
