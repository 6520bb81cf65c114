package models

// OpType is the kind of mutation awaiting confirmation by the remote store.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// PendingOperation represents one not-yet-acknowledged mutation.
//
// Operations are processed in enqueue order within a batch; batches may be
// dispatched concurrently. A delete enqueued while a create for the same id is
// still pending is not collapsed: both are sent.
type PendingOperation struct {
	ID        string  `db:"id" json:"id"`
	Op        OpType  `db:"op" json:"operation"`
	Record    *Record `db:"-" json:"data,omitempty"`
	RecordID  string  `db:"record_id" json:"-"`
	Timestamp int64   `db:"timestamp" json:"timestamp"` // enqueue time, ms since epoch
	Attempts  int     `db:"attempts" json:"attempts,omitempty"`
}

// TargetID returns the id of the record this operation applies to.
func (p *PendingOperation) TargetID() string {
	if p.Record != nil && p.Record.ID != "" {
		return p.Record.ID
	}
	return p.RecordID
}
