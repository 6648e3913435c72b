// Package store defines the read contract the analytics engine runs against
// and a backend-neutral query model that every backend can execute.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"tweetpulse/internal/model"
)

// ErrUnavailable marks failures reaching the event store (connection, auth,
// timeout). Backends mark every read failure with it.
var ErrUnavailable = errors.New("event store unavailable")

// Collection is the default collection holding action events.
const Collection = "twitter_actions"

// Result field names emitted by a Group stage.
const (
	GroupKeyField   = "_id"
	GroupCountField = "count"
)

// EventStore is a read-only view over action-event documents.
type EventStore interface {
	// Count returns the number of documents matching f. A nil filter means
	// all documents and may be answered with an estimate.
	Count(ctx context.Context, f Filter) (int64, error)
	// Aggregate runs p and returns the resulting documents in order.
	Aggregate(ctx context.Context, p Pipeline) ([]model.Document, error)
	Close() error
}

// Writer is implemented by backends that accept imports.
type Writer interface {
	Insert(ctx context.Context, docs ...model.Document) error
}

// Unavailable wraps err and marks it as ErrUnavailable.
func Unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, "store %s", op), ErrUnavailable)
}

// IsUnavailable reports whether err came from an unreachable store.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
