// internal/store/store.go
package store

import (
	"context"
	"fmt"

	"github.com/watch4deal/admin-backend/internal/models"
)

// Snapshot is the full state of one collection at a point in time.
type Snapshot map[string]models.JSONB

// Unsubscribe terminates delivery for a listener. After it returns, neither
// the data nor the error callback fires again.
type Unsubscribe func()

// RemoteStore is the only component that touches the backing database.
// Subscribe invokes onData once immediately with the current snapshot and
// again on every change, until Unsubscribe is called or onErr fires; onData
// is never invoked after onErr for the same listener. Put overwrites the full
// record at the key (never a field merge). Delete of an absent key succeeds.
type RemoteStore interface {
	Subscribe(collection string, onData func(Snapshot), onErr func(error)) Unsubscribe
	Put(ctx context.Context, collection, id string, record models.JSONB) error
	Delete(ctx context.Context, collection, id string) error
}

// WriteError reports a failed put or delete.
type WriteError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SubscribeError reports a broken live listener.
type SubscribeError struct {
	Collection string
	Err        error
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("subscribe %s: %v", e.Collection, e.Err)
}

func (e *SubscribeError) Unwrap() error {
	return e.Err
}

func copySnapshot(snap Snapshot) Snapshot {
	out := make(Snapshot, len(snap))
	for id, rec := range snap {
		out[id] = rec
	}
	return out
}
