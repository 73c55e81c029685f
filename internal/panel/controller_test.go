// internal/panel/controller_test.go
package panel

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watch4deal/admin-backend/internal/models"
	"github.com/watch4deal/admin-backend/internal/storage"
	"github.com/watch4deal/admin-backend/internal/store"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

// stubBlobStore counts uploads and can be armed to fail the Nth one.
type stubBlobStore struct {
	mu      sync.Mutex
	calls   int
	failAt  int // 1-based call index to fail on; 0 never fails
	removed []string
}

func (s *stubBlobStore) Upload(_ context.Context, _ []byte, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt != 0 && s.calls == s.failAt {
		return "", &storage.UploadError{Name: name, Err: errors.New("bucket unavailable")}
	}
	return "https://cdn.test/watches/" + strconv.Itoa(s.calls) + "_" + name, nil
}

func (s *stubBlobStore) Remove(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, url)
	return nil
}

func (s *stubBlobStore) removedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}

func (s *stubBlobStore) uploadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingStore wraps the in-memory backend and counts (or fails) writes.
type recordingStore struct {
	*store.MemoryStore
	putCalls int32
	failPuts bool
}

func (r *recordingStore) Put(ctx context.Context, collection, id string, record models.JSONB) error {
	atomic.AddInt32(&r.putCalls, 1)
	if r.failPuts {
		return &store.WriteError{Op: "put", Collection: collection, ID: id, Err: errors.New("store offline")}
	}
	return r.MemoryStore.Put(ctx, collection, id, record)
}

func newReadyController(t *testing.T) (*Controller, *store.MemoryStore, *stubBlobStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	blobs := &stubBlobStore{}
	c := NewController(mem, blobs, testLogger())
	c.Mount()
	require.Equal(t, StateReady, c.State())
	return c, mem, blobs
}

func TestMountReachesReady(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	view := c.View()
	assert.Equal(t, StateReady, view.State)
	assert.Equal(t, models.KindWatches, view.ActiveKind)
	assert.Empty(t, view.Lists[models.KindWatches])
	assert.Empty(t, view.Lists[models.KindTestimonials])
}

func TestSubmitBeforeReadyRejected(t *testing.T) {
	c := NewController(store.NewMemoryStore(), &stubBlobStore{}, testLogger())
	defer c.Close()

	// Never mounted, still Idle.
	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSubmitCreatesRecord(t *testing.T) {
	c, _, blobs := newReadyController(t)
	defer c.Close()

	require.NoError(t, c.SetField("brand", "Omega"))
	require.NoError(t, c.SetField("model", "Speedmaster"))
	admitted := c.AttachImages([]FileUpload{{Name: "front.jpg", Data: []byte("jpegdata")}})
	require.Equal(t, 1, admitted)

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, 1, blobs.uploadCalls())
	assert.Equal(t, "Watch successfully updated.", c.Message())

	entries := c.Entries(models.KindWatches)
	require.Len(t, entries, 1)
	assert.Equal(t, "Omega", entries[0].Record["brand"])

	// The assigned id is a millisecond timestamp string.
	_, err := strconv.ParseInt(entries[0].ID, 10, 64)
	assert.NoError(t, err)

	images, ok := entries[0].Record["images"].([]interface{})
	require.True(t, ok)
	require.Len(t, images, 1)
	img, ok := images[0].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, img["url"], "https://cdn.test/watches/")

	// Success resets the form to a fresh draft.
	view := c.View()
	assert.Empty(t, view.Draft.ID)
	assert.Empty(t, view.Draft.Images)
	assert.Equal(t, "", view.Draft.Fields["brand"])
	assert.Empty(t, view.InFlight)
}

func TestUploadFailureAbortsSubmit(t *testing.T) {
	mem := store.NewMemoryStore()
	rec := &recordingStore{MemoryStore: mem}
	blobs := &stubBlobStore{failAt: 2}
	c := NewController(rec, blobs, testLogger())
	c.Mount()
	defer c.Close()
	require.Equal(t, StateReady, c.State())

	require.NoError(t, c.SetField("brand", "Omega"))
	c.AttachImages([]FileUpload{
		{Name: "a.jpg", Data: []byte("a")},
		{Name: "b.jpg", Data: []byte("b")},
		{Name: "c.jpg", Data: []byte("c")},
	})

	err := c.Submit(context.Background())
	var upErr *storage.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "b.jpg", upErr.Name)

	// The record write never happened and the list stayed empty.
	assert.Equal(t, int32(0), atomic.LoadInt32(&rec.putCalls))
	assert.Empty(t, c.Entries(models.KindWatches))
	assert.Equal(t, "Error updating watch.", c.Message())

	// The draft survives for a retry: the first upload sticks as committed,
	// the failed and untried ones stay pending.
	view := c.View()
	require.Len(t, view.Draft.Images, 3)
	assert.False(t, view.Draft.Images[0].Pending)
	assert.True(t, view.Draft.Images[1].Pending)
	assert.True(t, view.Draft.Images[2].Pending)
	assert.NotEmpty(t, view.Draft.ID)
	assert.Equal(t, "Omega", view.Draft.Fields["brand"])
	assert.Empty(t, view.InFlight)

	// Retrying re-uploads only what is still pending.
	blobs.mu.Lock()
	blobs.failAt = 0
	blobs.mu.Unlock()
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, 4, blobs.uploadCalls())
	assert.Len(t, c.Entries(models.KindWatches), 1)
}

func TestWriteFailurePreservesDraft(t *testing.T) {
	rec := &recordingStore{MemoryStore: store.NewMemoryStore(), failPuts: true}
	c := NewController(rec, &stubBlobStore{}, testLogger())
	c.Mount()
	defer c.Close()

	require.NoError(t, c.SetField("brand", "Omega"))
	c.AttachImages([]FileUpload{{Name: "a.jpg", Data: []byte("a")}})

	err := c.Submit(context.Background())
	var writeErr *store.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "Error updating watch.", c.Message())

	view := c.View()
	assert.Equal(t, "Omega", view.Draft.Fields["brand"])
	assert.NotEmpty(t, view.Draft.ID)
	require.Len(t, view.Draft.Images, 1)
	assert.False(t, view.Draft.Images[0].Pending)
}

func TestSubmitSnapshotIgnoresLaterEdits(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	require.NoError(t, c.SetField("brand", "Omega"))
	require.NoError(t, c.Submit(context.Background()))

	// Edits after the submit snapshot do not alter the persisted record.
	require.NoError(t, c.SetField("brand", "Rolex"))

	entries := c.Entries(models.KindWatches)
	require.Len(t, entries, 1)
	assert.Equal(t, "Omega", entries[0].Record["brand"])
}

func TestSubmitInFlightGuard(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	// Simulate an in-flight submit and check the second one is refused
	// rather than queued.
	c.mu.Lock()
	c.inflight[actionSubmit] = struct{}{}
	c.mu.Unlock()

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrActionInFlight)

	// A delete of some record is a distinct action and stays allowed.
	require.NoError(t, c.Delete(context.Background(), models.KindWatches, "123"))
}

func TestDeleteAbsentRecordSucceeds(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	require.NoError(t, c.Delete(context.Background(), models.KindTestimonials, "never-existed"))
	assert.Equal(t, "Testimonial successfully deleted.", c.Message())
}

func TestDeleteRemovesOrphanedBlobs(t *testing.T) {
	c, _, blobs := newReadyController(t)
	defer c.Close()

	require.NoError(t, c.SetField("brand", "Omega"))
	c.AttachImages([]FileUpload{{Name: "front.jpg", Data: []byte("x")}})
	require.NoError(t, c.Submit(context.Background()))

	entries := c.Entries(models.KindWatches)
	require.Len(t, entries, 1)

	require.NoError(t, c.Delete(context.Background(), models.KindWatches, entries[0].ID))
	assert.Empty(t, c.Entries(models.KindWatches))
	assert.Equal(t, "Watch successfully deleted.", c.Message())

	require.Eventually(t, func() bool {
		return len(blobs.removedURLs()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, blobs.removedURLs()[0], "https://cdn.test/watches/")
}

func TestEditTurnsSubmitIntoUpdate(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	require.NoError(t, c.SetField("brand", "Omega"))
	require.NoError(t, c.Submit(context.Background()))

	entries := c.Entries(models.KindWatches)
	require.Len(t, entries, 1)
	id := entries[0].ID

	require.NoError(t, c.Edit(models.KindWatches, id))
	view := c.View()
	assert.Equal(t, id, view.Draft.ID)
	assert.Equal(t, "Omega", view.Draft.Fields["brand"])

	require.NoError(t, c.SetField("brand", "Tudor"))
	require.NoError(t, c.Submit(context.Background()))

	entries = c.Entries(models.KindWatches)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "Tudor", entries[0].Record["brand"])
}

func TestEditMissingRecord(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	err := c.Edit(models.KindWatches, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSwitchKindResetsDraft(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	require.NoError(t, c.SetField("brand", "Omega"))
	c.AttachImages([]FileUpload{{Name: "a.jpg", Data: nil}})

	require.NoError(t, c.SwitchKind(models.KindTestimonials))
	view := c.View()
	assert.Equal(t, models.KindTestimonials, view.ActiveKind)
	assert.Equal(t, models.KindTestimonials, view.Draft.Kind)
	assert.Equal(t, float64(5), view.Draft.Fields["rating"])
	assert.Empty(t, view.Draft.Images)

	// Switching back does not restore the discarded edits.
	require.NoError(t, c.SwitchKind(models.KindWatches))
	view = c.View()
	assert.Equal(t, "", view.Draft.Fields["brand"])
	assert.Empty(t, view.Draft.Images)

	err := c.SwitchKind(models.RecordKind("bogus"))
	assert.Error(t, err)
}

func TestPartialSubscribeFailureStaysUsable(t *testing.T) {
	mem := store.NewMemoryStore()
	st := &failingSubscribeStore{RemoteStore: mem, failCollection: models.KindTestimonials.Collection()}
	c := NewController(st, &stubBlobStore{}, testLogger())
	c.Mount()
	defer c.Close()

	// One collection failed, the other delivered; the panel still comes up.
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, "Error loading testimonials.", c.Message())

	require.NoError(t, c.SetField("brand", "Omega"))
	require.NoError(t, c.Submit(context.Background()))
	assert.Len(t, c.Entries(models.KindWatches), 1)
}

func TestAllSubscriptionsFailedMeansFailed(t *testing.T) {
	mem := store.NewMemoryStore()
	st := &failingSubscribeStore{RemoteStore: mem, failCollection: "*"}
	c := NewController(st, &stubBlobStore{}, testLogger())
	c.Mount()
	defer c.Close()

	assert.Equal(t, StateFailed, c.State())
	assert.ErrorIs(t, c.Submit(context.Background()), ErrNotReady)
}

func TestCloseMakesLateActionsNoOps(t *testing.T) {
	c, _, _ := newReadyController(t)
	c.Close()

	assert.True(t, c.Closed())
	assert.ErrorIs(t, c.SetField("brand", "Omega"), ErrClosed)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Delete(context.Background(), models.KindWatches, "1"), ErrClosed)
	assert.ErrorIs(t, c.Edit(models.KindWatches, "1"), ErrClosed)
	assert.ErrorIs(t, c.SwitchKind(models.KindTestimonials), ErrClosed)

	// Closing twice is harmless.
	c.Close()
}

func TestWatchCoalescesNotifications(t *testing.T) {
	c, _, _ := newReadyController(t)
	defer c.Close()

	ch, cancel := c.Watch()
	defer cancel()

	require.NoError(t, c.SetField("brand", "a"))
	require.NoError(t, c.SetField("brand", "b"))
	require.NoError(t, c.SwitchKind(models.KindTestimonials))

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
}

// failingSubscribeStore errors the subscription of one collection ("*" for
// all) instead of delivering a first snapshot.
type failingSubscribeStore struct {
	store.RemoteStore
	failCollection string
}

func (f *failingSubscribeStore) Subscribe(collection string, onData func(store.Snapshot), onErr func(error)) store.Unsubscribe {
	if f.failCollection == "*" || collection == f.failCollection {
		onErr(&store.SubscribeError{Collection: collection, Err: errors.New("permission denied")})
		return func() {}
	}
	return f.RemoteStore.Subscribe(collection, onData, onErr)
}
