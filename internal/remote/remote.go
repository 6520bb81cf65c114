// Package remote defines the hosted data service collaborator: table-scoped
// CRUD with actor-scoped writes. The sync core is protocol-agnostic and only
// relies on this interface; the HTTP client below speaks the hosted backend's
// REST dialect.
package remote

import (
	"context"

	apperrors "github.com/clicknote/clicknote-core/internal/errors"
)

// Row is one remote table row, keyed by column name.
type Row map[string]interface{}

// Filters narrows a select/update/delete to rows whose columns equal the
// given values.
type Filters map[string]string

// Store is the generic remote table interface consumed by the sync core.
type Store interface {
	// Select returns all rows of table matching filters.
	Select(ctx context.Context, table string, filters Filters) ([]Row, error)

	// Insert writes one row and returns the stored representation.
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// Update patches all rows matching filters and returns them.
	Update(ctx context.Context, table string, filters Filters, patch Row) ([]Row, error)

	// Delete removes all rows matching filters. Deleting nothing is not an
	// error.
	Delete(ctx context.Context, table string, filters Filters) error
}

// Session supplies the identity required for actor-scoped writes.
type Session interface {
	// CurrentActorID returns the id of the authenticated actor, or
	// ErrUnauthenticated when no identity is available.
	CurrentActorID() (string, error)
}

// ErrUnauthenticated is returned when a write requires an identity and none
// is available.
var ErrUnauthenticated = apperrors.New(apperrors.ErrUnauthenticated, "no authenticated actor")

// StaticSession is a Session with a fixed actor id, as provisioned by
// configuration. An empty id behaves as an expired session.
type StaticSession struct {
	ActorID string
}

// CurrentActorID implements Session.
func (s *StaticSession) CurrentActorID() (string, error) {
	if s.ActorID == "" {
		return "", ErrUnauthenticated
	}
	return s.ActorID, nil
}
