// Package collection isolates the backend document store behind four
// operations. It is the only package that knows the stored document
// shape: a flat field bag with one embedded subtask array.
package collection

import (
	"context"
	"errors"

	"github.com/isabelacreiter/TaskFlow/internal/models"
)

// Snapshot is the complete current set of tasks belonging to one owner,
// as observed from the backend at a point in time.
type Snapshot []models.Task

// Fields is a partial field bag for Patch. Keys use the wire names
// (title, description, dueDate, priority, status, subtasks).
type Fields map[string]any

var ErrNotFound = errors.New("document not found")

type Collection interface {
	// Watch opens a standing subscription scoped to ownerID. Every value
	// on the snapshot channel replaces the whole locally held set, not a
	// diff. Both channels close after ctx is cancelled and no further
	// emissions are delivered.
	Watch(ctx context.Context, ownerID string) (<-chan Snapshot, <-chan error)

	// Insert stores a new task document and returns its id. The caller
	// may pre-assign task.ID; an empty id gets one generated.
	Insert(ctx context.Context, task models.Task) (string, error)

	// Patch applies a partial field set to one document, last write
	// wins. Returns ErrNotFound when no document matches id.
	Patch(ctx context.Context, id string, fields Fields) error

	// Delete removes one document. Deleting a missing id is not an
	// error.
	Delete(ctx context.Context, id string) error
}

// immutable after creation; Patch silently drops them
var immutableFields = []string{"_id", "id", "ownerId", "createdAt"}

func stripImmutable(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, k := range immutableFields {
		delete(out, k)
	}
	return out
}
