package models

import (
	"fmt"
	"time"
)

// RecordsTable is the remote table holding observation records.
const RecordsTable = "card_records"

// ToRow converts a record to the remote store's column layout.
func (r *Record) ToRow() map[string]interface{} {
	row := map[string]interface{}{
		"id":            r.ID,
		"student_id":    r.StudentID,
		"subject":       r.Subject,
		"memo":          r.Memo,
		"recorded_date": r.RecordedDate.UTC().Format(time.RFC3339Nano),
		"user_id":       r.UserID,
	}
	if r.CardID != "" {
		row["card_id"] = r.CardID
	} else {
		row["card_id"] = nil
	}
	return row
}

// RecordFromRow converts a remote row back into a record.
func RecordFromRow(row map[string]interface{}) (*Record, error) {
	r := &Record{
		ID:        stringField(row, "id"),
		StudentID: stringField(row, "student_id"),
		CardID:    stringField(row, "card_id"),
		Subject:   stringField(row, "subject"),
		Memo:      stringField(row, "memo"),
		UserID:    stringField(row, "user_id"),
	}
	if r.ID == "" {
		return nil, fmt.Errorf("remote row has no id")
	}

	raw := stringField(row, "recorded_date")
	if raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			t, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("invalid recorded_date %q: %w", raw, err)
			}
		}
		r.RecordedDate = t
	}
	return r, nil
}

func stringField(row map[string]interface{}, key string) string {
	if v, ok := row[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
