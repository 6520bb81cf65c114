package db

import (
	"fmt"
	"time"

	"github.com/clicknote/clicknote-core/internal/models"
)

// Roster cache operations. These tables mirror server-owned reference data;
// refresh replaces the cached set wholesale inside one transaction.

// ReplaceStudents swaps the cached student roster.
func (s *Store) ReplaceStudents(students []models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin roster refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM students`); err != nil {
		return fmt.Errorf("failed to clear students cache: %w", err)
	}
	for _, st := range students {
		if _, err := tx.Exec(`INSERT INTO students (id, name, grade, class_group) VALUES (?, ?, ?, ?)`,
			st.ID, st.Name, st.Grade, st.ClassGroup); err != nil {
			return fmt.Errorf("failed to cache student %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// GetStudents returns the cached student roster.
func (s *Store) GetStudents() ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, name, grade, class_group FROM students ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students cache: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var st models.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Grade, &st.ClassGroup); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// ReplaceCards swaps the cached behavior card set.
func (s *Store) ReplaceCards(cards []models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin roster refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards`); err != nil {
		return fmt.Errorf("failed to clear cards cache: %w", err)
	}
	for _, c := range cards {
		if _, err := tx.Exec(`INSERT INTO cards (id, title, description, category) VALUES (?, ?, ?, ?)`,
			c.ID, c.Title, c.Description, c.Category); err != nil {
			return fmt.Errorf("failed to cache card %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// GetCards returns the cached behavior card set.
func (s *Store) GetCards() ([]models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, title, description, category FROM cards ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards cache: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ReplaceNotes swaps the cached notes.
func (s *Store) ReplaceNotes(notes []models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin roster refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("failed to clear notes cache: %w", err)
	}
	for _, n := range notes {
		if _, err := tx.Exec(`INSERT INTO notes (id, student_id, content, created_at) VALUES (?, ?, ?, ?)`,
			n.ID, n.StudentID, n.Content, n.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to cache note %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// GetNotes returns the cached notes, newest first.
func (s *Store) GetNotes() ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, student_id, content, created_at FROM notes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes cache: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		var createdAt string
		if err := rows.Scan(&n.ID, &n.StudentID, &n.Content, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}
		n.CreatedAt = t
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
