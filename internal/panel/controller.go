// internal/panel/controller.go

// Package panel orchestrates the admin form: it owns the draft, mirrors both
// collections through live projections, routes submit/delete/edit actions to
// the remote store, and tracks per-action in-flight and message state.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/watch4deal/admin-backend/internal/draft"
	"github.com/watch4deal/admin-backend/internal/models"
	"github.com/watch4deal/admin-backend/internal/projection"
	"github.com/watch4deal/admin-backend/internal/storage"
	"github.com/watch4deal/admin-backend/internal/store"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

const actionSubmit = "submit"

func actionDelete(id string) string {
	return "delete:" + id
}

var (
	// ErrNotReady means the panel has not finished loading, or failed to.
	ErrNotReady = errors.New("panel is not ready")

	// ErrActionInFlight means the same action is already running; every
	// retry is a manual re-submission, never an automatic queue.
	ErrActionInFlight = errors.New("action already in flight")

	// ErrClosed means the panel session was torn down; late completions
	// against it are no-ops.
	ErrClosed = errors.New("panel is closed")

	// ErrRecordNotFound means an edited entry is absent from the projection.
	ErrRecordNotFound = errors.New("record not found")
)

// FileUpload is one picked file heading into the draft as a pending image.
type FileUpload struct {
	Name string
	Data []byte
}

// Controller is one admin session's panel. The draft is mutated only through
// its methods, the projections only by subscription callbacks; the mutex
// stands in for the original's single event-loop thread.
type Controller struct {
	store store.RemoteStore
	blobs storage.BlobStore
	log   *logrus.Entry

	mu          sync.Mutex
	state       State
	activeKind  models.RecordKind
	draft       *draft.Draft
	projections map[models.RecordKind]*projection.Projection
	inflight    map[string]struct{}
	message     string

	awaitingFirst map[models.RecordKind]bool
	subFailed     map[models.RecordKind]error
	unsubscribes  []store.Unsubscribe
	closed        bool

	listeners    map[int64]chan struct{}
	nextListener int64
}

func NewController(st store.RemoteStore, blobs storage.BlobStore, log *logrus.Entry) *Controller {
	c := &Controller{
		store:         st,
		blobs:         blobs,
		log:           log,
		state:         StateIdle,
		activeKind:    models.KindWatches,
		draft:         draft.New(models.KindWatches),
		projections:   make(map[models.RecordKind]*projection.Projection),
		inflight:      make(map[string]struct{}),
		awaitingFirst: make(map[models.RecordKind]bool),
		subFailed:     make(map[models.RecordKind]error),
		listeners:     make(map[int64]chan struct{}),
	}
	for _, kind := range models.Kinds {
		c.projections[kind] = projection.New(kind)
	}
	return c
}

// Mount subscribes every record kind. The panel reaches Ready once each kind
// has either delivered its first snapshot or failed; it goes Failed only when
// every kind failed before delivering.
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.state != StateIdle || c.closed {
		c.mu.Unlock()
		return
	}
	c.state = StateLoading
	for _, kind := range models.Kinds {
		c.awaitingFirst[kind] = true
	}
	c.mu.Unlock()

	for _, kind := range models.Kinds {
		kind := kind
		unsub := c.store.Subscribe(kind.Collection(),
			func(snap store.Snapshot) { c.onSnapshot(kind, snap) },
			func(err error) { c.onSubscribeError(kind, err) },
		)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			unsub()
			return
		}
		c.unsubscribes = append(c.unsubscribes, unsub)
		c.mu.Unlock()
	}
	c.notify()
}

func (c *Controller) onSnapshot(kind models.RecordKind, snap store.Snapshot) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.projections[kind].OnSnapshot(snap)
	if c.awaitingFirst[kind] {
		delete(c.awaitingFirst, kind)
		c.recomputeState()
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onSubscribeError(kind models.RecordKind, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.subFailed[kind] = err
	c.message = fmt.Sprintf("Error loading %s.", kind)
	if c.awaitingFirst[kind] {
		delete(c.awaitingFirst, kind)
		c.recomputeState()
	}
	c.mu.Unlock()

	c.log.WithError(err).WithField("kind", kind).Error("Subscription failed")
	c.notify()
}

// recomputeState is called with the lock held.
func (c *Controller) recomputeState() {
	if c.state != StateLoading || len(c.awaitingFirst) > 0 {
		return
	}
	if len(c.subFailed) == len(models.Kinds) {
		c.state = StateFailed
		return
	}
	c.state = StateReady
}

// SetField updates one draft field.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.draft.SetField(name, value)
}

// AttachImages appends the picked files to the draft as pending images and
// reports how many were admitted under the cap.
func (c *Controller) AttachImages(files []FileUpload) int {
	refs := make([]models.ImageRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, models.NewPendingImage(f.Name, f.Data))
	}

	c.mu.Lock()
	admitted := c.draft.AddPendingImages(refs)
	c.mu.Unlock()

	c.notify()
	return admitted
}

// RemoveImage drops the draft image at the position.
func (c *Controller) RemoveImage(index int) error {
	c.mu.Lock()
	err := c.draft.RemoveImage(index)
	c.mu.Unlock()

	if err == nil {
		c.notify()
	}
	return err
}

// Edit loads a projection entry wholesale into the draft, turning the next
// submit into an update. In-flight operations are not cancelled; the
// later-completing one's side effects win.
func (c *Controller) Edit(kind models.RecordKind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	rec, ok := c.projections[kind].Get(id)
	if !ok {
		return fmt.Errorf("edit %s/%s: %w", kind, id, ErrRecordNotFound)
	}

	switch kind {
	case models.KindTestimonials:
		t, err := models.TestimonialFromRecord(id, rec)
		if err != nil {
			return err
		}
		c.draft.LoadTestimonial(t)
	default:
		w, err := models.WatchFromRecord(id, rec)
		if err != nil {
			return err
		}
		c.draft.LoadWatch(w)
	}

	c.activeKind = kind
	return nil
}

// SwitchKind selects the active tab, resetting the draft to the new kind's
// template. Unsaved edits are discarded without confirmation and in-flight
// operations for the previous kind keep running.
func (c *Controller) SwitchKind(kind models.RecordKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.activeKind = kind
	c.draft.Reset(kind)
	c.message = ""
	c.mu.Unlock()

	c.notify()
	return nil
}

// Submit persists the draft: assign an id when creating, upload every pending
// image strictly before the record write, then put the full record. On any
// failure the draft is preserved (including refs committed so far) for a
// manual retry; on success the draft resets to the active kind's template and
// the live subscription echoes the written record back into the list.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	if _, busy := c.inflight[actionSubmit]; busy {
		c.mu.Unlock()
		return ErrActionInFlight
	}
	c.inflight[actionSubmit] = struct{}{}

	if c.draft.ID() == "" {
		c.draft.SetID(strconv.FormatInt(time.Now().UnixMilli(), 10))
	}
	snap := c.draft.Clone()
	c.mu.Unlock()
	c.notify()

	kind := snap.Kind()
	id := snap.ID()

	for i, img := range snap.Images() {
		if !img.Pending() {
			continue
		}

		url, err := c.blobs.Upload(ctx, img.Data(), img.Name)
		if err != nil {
			// Abort the whole submit; nothing was persisted.
			c.finishAction(actionSubmit, errorMessage(kind, "updating"))
			return fmt.Errorf("submit %s/%s: %w", kind, id, err)
		}

		snap.CommitImage(i, url)

		// The live draft keeps the committed ref too, so a failed submit
		// does not cost the user a re-upload.
		c.mu.Lock()
		c.draft.CommitImageByPreview(img.URL, url)
		c.mu.Unlock()
	}

	record, err := snap.ToPersistable()
	if err != nil {
		c.finishAction(actionSubmit, errorMessage(kind, "updating"))
		return fmt.Errorf("submit %s/%s: %w", kind, id, err)
	}

	if err := c.store.Put(ctx, kind.Collection(), id, record); err != nil {
		c.finishAction(actionSubmit, errorMessage(kind, "updating"))
		return fmt.Errorf("submit %s/%s: %w", kind, id, err)
	}

	c.mu.Lock()
	delete(c.inflight, actionSubmit)
	if !c.closed {
		c.draft.Reset(c.activeKind)
		c.message = successMessage(kind, "updated")
	}
	c.mu.Unlock()
	c.notify()

	c.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("Record saved")
	return nil
}

// Delete removes a record. The list entry disappears only when the
// subscription echoes the deletion back; there is no optimistic removal.
// Committed images of the deleted record are removed from the blob store
// best-effort and asynchronously.
func (c *Controller) Delete(ctx context.Context, kind models.RecordKind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	action := actionDelete(id)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	if _, busy := c.inflight[action]; busy {
		c.mu.Unlock()
		return ErrActionInFlight
	}
	c.inflight[action] = struct{}{}

	var orphanedURLs []string
	if rec, ok := c.projections[kind].Get(id); ok && kind == models.KindWatches {
		if w, err := models.WatchFromRecord(id, rec); err == nil {
			orphanedURLs = models.CommittedURLs(w.Images)
		}
	}
	c.mu.Unlock()
	c.notify()

	if err := c.store.Delete(ctx, kind.Collection(), id); err != nil {
		c.finishAction(action, errorMessage(kind, "deleting"))
		return fmt.Errorf("delete %s/%s: %w", kind, id, err)
	}

	if len(orphanedURLs) > 0 {
		go c.removeBlobs(orphanedURLs)
	}

	c.finishAction(action, successMessage(kind, "deleted"))
	c.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("Record deleted")
	return nil
}

func (c *Controller) removeBlobs(urls []string) {
	for _, url := range urls {
		if err := c.blobs.Remove(context.Background(), url); err != nil {
			c.log.WithError(err).WithField("url", url).Warn("Failed to remove orphaned blob")
		}
	}
}

func (c *Controller) finishAction(action, message string) {
	c.mu.Lock()
	delete(c.inflight, action)
	if !c.closed && message != "" {
		c.message = message
	}
	c.mu.Unlock()
	c.notify()
}

// Entries exposes the projection of one kind for rendering.
func (c *Controller) Entries(kind models.RecordKind) []projection.Entry {
	c.mu.Lock()
	p := c.projections[kind]
	c.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Entries()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Close tears the session down: subscriptions are released and any late
// completion of an in-flight operation becomes a no-op against this panel.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubs := c.unsubscribes
	c.unsubscribes = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	c.notify()
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Watch registers a change listener. The channel receives a tick (coalesced)
// whenever the panel view may have changed; cancel releases it.
func (c *Controller) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) notify() {
	c.mu.Lock()
	listeners := make([]chan struct{}, 0, len(c.listeners))
	for _, ch := range c.listeners {
		listeners = append(listeners, ch)
	}
	c.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func successMessage(kind models.RecordKind, verb string) string {
	if kind == models.KindTestimonials {
		return fmt.Sprintf("Testimonial successfully %s.", verb)
	}
	return fmt.Sprintf("Watch successfully %s.", verb)
}

func errorMessage(kind models.RecordKind, verb string) string {
	if kind == models.KindTestimonials {
		return fmt.Sprintf("Error %s testimonial.", verb)
	}
	return fmt.Sprintf("Error %s watch.", verb)
}
