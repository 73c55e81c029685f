// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/watch4deal/admin-backend/internal/models"
)

// MemoryStore keeps collections in process memory. It is the development and
// test backend; it honors the full RemoteStore contract including the
// immediate first snapshot on subscribe and the echo after every write.
// Snapshots are delivered while holding mu, so delivery order always matches
// commit order; the last snapshot a subscriber sees is the store's state.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Snapshot
	hub  *hub
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Snapshot),
		hub:  newHub(),
	}
}

func (m *MemoryStore) Subscribe(collection string, onData func(Snapshot), onErr func(error)) Unsubscribe {
	sub, unsubscribe := m.hub.add(collection, onData, onErr)

	m.mu.Lock()
	sub.deliver(copySnapshot(m.data[collection]))
	m.mu.Unlock()

	return unsubscribe
}

func (m *MemoryStore) Put(ctx context.Context, collection, id string, record models.JSONB) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Op: "put", Collection: collection, ID: id, Err: err}
	}

	m.mu.Lock()
	if m.data[collection] == nil {
		m.data[collection] = make(Snapshot)
	}
	m.data[collection][id] = record
	m.hub.broadcast(collection, copySnapshot(m.data[collection]))
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}

	m.mu.Lock()
	delete(m.data[collection], id)
	m.hub.broadcast(collection, copySnapshot(m.data[collection]))
	m.mu.Unlock()

	return nil
}

// Fail simulates a transport failure on every live listener of a collection.
// Test hook; the listeners receive onErr and are then terminated.
func (m *MemoryStore) Fail(collection string, err error) {
	m.hub.failAll(collection, &SubscribeError{Collection: collection, Err: err})
}
