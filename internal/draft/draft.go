// internal/draft/draft.go

// Package draft holds the single in-progress editable record of the admin
// form: field values, unsent image attachments, and the rules for turning it
// into a persistable store record.
package draft

import (
	"errors"
	"fmt"

	"github.com/watch4deal/admin-backend/internal/models"
)

// MaxImages caps the images attached to one listing. Files beyond the cap are
// silently dropped, never rejected with an error.
const MaxImages = 10

var (
	// ErrNotReady means the draft still holds pending images; callers must
	// resolve uploads before persisting.
	ErrNotReady = errors.New("draft has unresolved pending images")

	// ErrIndexOutOfRange means an image removal or commit addressed a
	// position the draft does not have.
	ErrIndexOutOfRange = errors.New("image index out of range")
)

// Draft is the in-progress record, tagged by kind. It is exclusively owned by
// its panel controller and is never touched by subscription callbacks.
type Draft struct {
	kind        models.RecordKind
	watch       models.WatchListing
	testimonial models.Testimonial
}

// New creates an empty draft from the kind's template.
func New(kind models.RecordKind) *Draft {
	d := &Draft{}
	d.Reset(kind)
	return d
}

func (d *Draft) Kind() models.RecordKind {
	return d.kind
}

// ID is empty while creating a new record and set while editing an existing
// one.
func (d *Draft) ID() string {
	if d.kind == models.KindTestimonials {
		return d.testimonial.ID
	}
	return d.watch.ID
}

func (d *Draft) SetID(id string) {
	if d.kind == models.KindTestimonials {
		d.testimonial.ID = id
		return
	}
	d.watch.ID = id
}

// SetField updates one field in place. No validation is performed beyond type
// coercion; required-field affordances live in the UI.
func (d *Draft) SetField(name, value string) error {
	if d.kind == models.KindTestimonials {
		return d.testimonial.SetField(name, value)
	}
	return d.watch.SetField(name, value)
}

// AddPendingImages appends pending refs and reports how many were admitted.
// Once the draft is at the cap the excess is dropped silently.
func (d *Draft) AddPendingImages(images []models.ImageRef) int {
	if d.kind != models.KindWatches {
		return 0
	}

	room := MaxImages - len(d.watch.Images)
	if room <= 0 {
		return 0
	}
	if len(images) > room {
		images = images[:room]
	}
	d.watch.Images = append(d.watch.Images, images...)
	return len(images)
}

// Images returns a copy of the attached refs in display order.
func (d *Draft) Images() []models.ImageRef {
	if d.kind != models.KindWatches {
		return nil
	}
	out := make([]models.ImageRef, len(d.watch.Images))
	copy(out, d.watch.Images)
	return out
}

// RemoveImage drops the image at the position and reindexes the rest.
func (d *Draft) RemoveImage(index int) error {
	if d.kind != models.KindWatches || index < 0 || index >= len(d.watch.Images) {
		return fmt.Errorf("remove image %d: %w", index, ErrIndexOutOfRange)
	}
	d.watch.Images = append(d.watch.Images[:index], d.watch.Images[index+1:]...)
	return nil
}

// CommitImage resolves the pending image at the position to its durable URL.
func (d *Draft) CommitImage(index int, url string) error {
	if d.kind != models.KindWatches || index < 0 || index >= len(d.watch.Images) {
		return fmt.Errorf("commit image %d: %w", index, ErrIndexOutOfRange)
	}
	d.watch.Images[index].Commit(url)
	return nil
}

// CommitImageByPreview resolves the pending image carrying the preview URL,
// if it is still attached. Reports whether a ref was committed.
func (d *Draft) CommitImageByPreview(previewURL, url string) bool {
	if d.kind != models.KindWatches {
		return false
	}
	for i := range d.watch.Images {
		if d.watch.Images[i].Pending() && d.watch.Images[i].URL == previewURL {
			d.watch.Images[i].Commit(url)
			return true
		}
	}
	return false
}

// LoadWatch wholesale-replaces the draft with a copy of an existing listing,
// turning the next submit into an update. Every ref of a listing loaded from
// a projection entry is already committed.
func (d *Draft) LoadWatch(w models.WatchListing) {
	d.kind = models.KindWatches
	if w.Images == nil {
		w.Images = []models.ImageRef{}
	} else {
		images := make([]models.ImageRef, len(w.Images))
		copy(images, w.Images)
		w.Images = images
	}
	d.watch = w
	d.testimonial = models.Testimonial{}
}

// LoadTestimonial wholesale-replaces the draft with a copy of an existing
// testimonial.
func (d *Draft) LoadTestimonial(t models.Testimonial) {
	d.kind = models.KindTestimonials
	d.testimonial = t
	d.watch = models.WatchListing{}
}

// Reset replaces the draft with the empty template for the kind.
func (d *Draft) Reset(kind models.RecordKind) {
	d.kind = kind
	d.watch = models.WatchListing{}
	d.testimonial = models.Testimonial{}
	if kind == models.KindTestimonials {
		d.testimonial = models.NewTestimonialTemplate()
		return
	}
	d.watch = models.NewWatchTemplate()
}

// ToPersistable serializes the draft into its store record. It fails with
// ErrNotReady while any image is still pending.
func (d *Draft) ToPersistable() (models.JSONB, error) {
	if d.kind == models.KindTestimonials {
		return d.testimonial.ToRecord()
	}

	for _, img := range d.watch.Images {
		if img.Pending() {
			return nil, ErrNotReady
		}
	}
	return d.watch.ToRecord()
}

// Watch returns a copy of the draft's listing state.
func (d *Draft) Watch() models.WatchListing {
	w := d.watch
	images := make([]models.ImageRef, len(w.Images))
	copy(images, w.Images)
	w.Images = images
	return w
}

// Testimonial returns a copy of the draft's testimonial state.
func (d *Draft) Testimonial() models.Testimonial {
	return d.testimonial
}

// Clone copies the whole draft; the submit pipeline works on a clone so a
// record captured at submit time is unaffected by edits made while uploads
// are in flight.
func (d *Draft) Clone() *Draft {
	c := &Draft{kind: d.kind, testimonial: d.testimonial, watch: d.watch}
	images := make([]models.ImageRef, len(d.watch.Images))
	copy(images, d.watch.Images)
	c.watch.Images = images
	return c
}
