// Package store persists the records that record forms create and
// update. Records are schemaless: a kind, an identifier, and an
// attribute map, plus ordered many-to-many relations written in a
// separate pass.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted object.
type Record struct {
	ID        string
	Kind      string
	Attrs     map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the persistence contract record forms save through.
type Store interface {
	// Insert writes a new record. The record's ID must be set.
	Insert(ctx context.Context, rec *Record) error

	// Update overwrites an existing record's attributes.
	Update(ctx context.Context, rec *Record) error

	// Get loads one record by kind and id.
	Get(ctx context.Context, kind, id string) (*Record, error)

	// SetRelated replaces the ordered relation list of a record under the
	// given relation name.
	SetRelated(ctx context.Context, kind, id, relation string, targetIDs []string) error

	// Related returns the ordered relation list of a record.
	Related(ctx context.Context, kind, id, relation string) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: %s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
