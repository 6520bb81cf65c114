// Package models provides data model definitions for the ClickNote core.
package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Record represents one observation event: a student, optionally a behavior
// card, a memo, and a timestamp.
//
// ID is assigned at creation time (client-generated when absent) and never
// changes; it is the merge key between the local and remote copies. The local
// store owns the on-device copy; once synced, the server copy is authoritative
// and overwrites the local record of the same id during merge.
type Record struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId" validate:"required"`
	CardID       string    `db:"card_id" json:"cardId,omitempty"`
	Subject      string    `db:"subject" json:"subject,omitempty"`
	Memo         string    `db:"memo" json:"memo" validate:"required"`
	RecordedDate time.Time `db:"recorded_date" json:"recordedDate"`
	ServerSynced bool      `db:"server_synced" json:"serverSynced"`
	UserID       string    `db:"user_id" json:"userId,omitempty"`
}

// Validate checks the required fields before any write.
func (r *Record) Validate() error {
	return validate.Struct(r)
}
