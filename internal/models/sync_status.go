package models

import "time"

// SyncStatus is the derived, never-persisted view broadcast to subscribers
// after every mutation and sync cycle.
type SyncStatus struct {
	Online       bool       `json:"online"`
	PendingCount int        `json:"pendingCount"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
}
