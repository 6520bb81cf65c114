package models

import "time"

// Student is a roster entry. Server-owned; the local copy is a read-through
// cache and is never queued for write-back.
type Student struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name" validate:"required"`
	Grade      string `db:"grade" json:"grade,omitempty"`
	ClassGroup string `db:"class_group" json:"classGroup,omitempty"`
}

// Card is a reusable template describing an observable behavior.
type Card struct {
	ID          string `db:"id" json:"id"`
	Title       string `db:"title" json:"title" validate:"required"`
	Description string `db:"description" json:"description,omitempty"`
	Category    string `db:"category" json:"category,omitempty"`
}

// Note is a free-form teacher note attached to a student.
type Note struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId" validate:"required"`
	Content   string    `db:"content" json:"content" validate:"required"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
