// internal/store/memory_test.go
package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watch4deal/admin-backend/internal/models"
)

type recorder struct {
	snaps []Snapshot
	errs  []error
}

func (r *recorder) onData(snap Snapshot) { r.snaps = append(r.snaps, snap) }
func (r *recorder) onErr(err error)      { r.errs = append(r.errs, err) }

func TestSubscribeDeliversImmediateSnapshot(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Put(context.Background(), "watches", "1", models.JSONB{"brand": "Omega"}))

	rec := &recorder{}
	unsubscribe := m.Subscribe("watches", rec.onData, rec.onErr)
	defer unsubscribe()

	require.Len(t, rec.snaps, 1)
	assert.Equal(t, models.JSONB{"brand": "Omega"}, rec.snaps[0]["1"])
}

func TestSubscribeEmptyCollection(t *testing.T) {
	m := NewMemoryStore()

	rec := &recorder{}
	unsubscribe := m.Subscribe("watches", rec.onData, rec.onErr)
	defer unsubscribe()

	// Even an empty collection produces a first snapshot right away.
	require.Len(t, rec.snaps, 1)
	assert.Empty(t, rec.snaps[0])
}

func TestWritesEchoToSubscribers(t *testing.T) {
	m := NewMemoryStore()

	rec := &recorder{}
	unsubscribe := m.Subscribe("watches", rec.onData, rec.onErr)
	defer unsubscribe()

	require.NoError(t, m.Put(context.Background(), "watches", "1", models.JSONB{"brand": "Omega"}))
	require.NoError(t, m.Delete(context.Background(), "watches", "1"))

	require.Len(t, rec.snaps, 3)
	assert.Len(t, rec.snaps[1], 1)
	assert.Empty(t, rec.snaps[2])
	assert.Empty(t, rec.errs)
}

func TestDeleteAbsentKeySucceeds(t *testing.T) {
	m := NewMemoryStore()
	assert.NoError(t, m.Delete(context.Background(), "watches", "never-existed"))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := NewMemoryStore()

	rec := &recorder{}
	unsubscribe := m.Subscribe("watches", rec.onData, rec.onErr)
	unsubscribe()

	require.NoError(t, m.Put(context.Background(), "watches", "1", models.JSONB{"brand": "Omega"}))
	assert.Len(t, rec.snaps, 1)
	assert.Empty(t, rec.errs)
}

func TestFailTerminatesSubscription(t *testing.T) {
	m := NewMemoryStore()

	rec := &recorder{}
	m.Subscribe("watches", rec.onData, rec.onErr)

	cause := errors.New("connection reset")
	m.Fail("watches", cause)

	require.Len(t, rec.errs, 1)
	var subErr *SubscribeError
	require.ErrorAs(t, rec.errs[0], &subErr)
	assert.Equal(t, "watches", subErr.Collection)
	assert.ErrorIs(t, rec.errs[0], cause)

	// Terminal: no data and no further errors after the failure.
	require.NoError(t, m.Put(context.Background(), "watches", "1", models.JSONB{"brand": "Omega"}))
	m.Fail("watches", errors.New("again"))
	assert.Len(t, rec.snaps, 1)
	assert.Len(t, rec.errs, 1)
}

func TestSnapshotsAreIsolatedCopies(t *testing.T) {
	m := NewMemoryStore()

	rec := &recorder{}
	unsubscribe := m.Subscribe("watches", rec.onData, rec.onErr)
	defer unsubscribe()

	require.NoError(t, m.Put(context.Background(), "watches", "1", models.JSONB{"brand": "Omega"}))

	// Mutating a delivered snapshot must not leak into later deliveries.
	delete(rec.snaps[1], "1")

	rec2 := &recorder{}
	unsubscribe2 := m.Subscribe("watches", rec2.onData, rec2.onErr)
	defer unsubscribe2()

	require.Len(t, rec2.snaps, 1)
	assert.Contains(t, rec2.snaps[0], "1")
}

func TestConcurrentWritesDeliverOrderedSnapshots(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var mu sync.Mutex
	var last Snapshot
	unsubscribe := m.Subscribe("watches", func(snap Snapshot) {
		mu.Lock()
		last = snap
		mu.Unlock()
	}, func(error) {})
	defer unsubscribe()

	// Race a put against a delete of the same key. Whatever order the store
	// commits them in, the last snapshot a subscriber received must match
	// the store's final state; a stale snapshot delivered after a newer one
	// would leave the projection showing a dead record until the next write.
	for i := 0; i < 2000; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Put(ctx, "watches", "1", models.JSONB{"n": i})
		}()
		go func() {
			defer wg.Done()
			_ = m.Delete(ctx, "watches", "1")
		}()
		wg.Wait()

		var current Snapshot
		cancel := m.Subscribe("watches", func(snap Snapshot) { current = snap }, func(error) {})
		cancel()

		mu.Lock()
		_, lastHas := last["1"]
		mu.Unlock()
		_, currentHas := current["1"]
		require.Equalf(t, currentHas, lastHas,
			"iteration %d: last delivered snapshot diverged from store state", i)
	}
}

func TestWriteRespectsContext(t *testing.T) {
	m := NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Put(ctx, "watches", "1", models.JSONB{})
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "put", writeErr.Op)
	assert.ErrorIs(t, err, context.Canceled)
}
