// internal/panel/view.go
package panel

import (
	"sort"

	"github.com/watch4deal/admin-backend/internal/models"
	"github.com/watch4deal/admin-backend/internal/projection"
)

// ImageView is one draft image as the form renders it.
type ImageView struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url"`
	Pending bool   `json:"pending"`
}

// DraftView is the form state snapshot.
type DraftView struct {
	Kind   models.RecordKind `json:"kind"`
	ID     string            `json:"id,omitempty"`
	Fields models.JSONB      `json:"fields"`
	Images []ImageView       `json:"images"`
}

// View is the full panel state handed to the rendering layer.
type View struct {
	State      State                                    `json:"state"`
	ActiveKind models.RecordKind                        `json:"active_kind"`
	Message    string                                   `json:"message,omitempty"`
	InFlight   []string                                 `json:"in_flight,omitempty"`
	Draft      DraftView                                `json:"draft"`
	Lists      map[models.RecordKind][]projection.Entry `json:"lists"`
}

// View snapshots the panel under the lock; the result is safe to serialize
// concurrently with further panel activity.
func (c *Controller) View() View {
	c.mu.Lock()

	inflight := make([]string, 0, len(c.inflight))
	for action := range c.inflight {
		inflight = append(inflight, action)
	}
	sort.Strings(inflight)

	dv := DraftView{
		Kind:   c.draft.Kind(),
		ID:     c.draft.ID(),
		Images: []ImageView{},
	}

	switch c.draft.Kind() {
	case models.KindTestimonials:
		t := c.draft.Testimonial()
		fields, _ := t.ToRecord()
		dv.Fields = stripDraftMeta(fields)
	default:
		w := c.draft.Watch()
		for _, img := range w.Images {
			dv.Images = append(dv.Images, ImageView{
				Name:    img.Name,
				URL:     img.URL,
				Pending: img.Pending(),
			})
		}
		w.Images = nil
		fields, _ := w.ToRecord()
		dv.Fields = stripDraftMeta(fields)
	}

	view := View{
		State:      c.state,
		ActiveKind: c.activeKind,
		Message:    c.message,
		InFlight:   inflight,
		Draft:      dv,
		Lists:      make(map[models.RecordKind][]projection.Entry, len(c.projections)),
	}
	projections := c.projections
	c.mu.Unlock()

	for kind, p := range projections {
		view.Lists[kind] = p.Entries()
	}
	return view
}

func stripDraftMeta(fields models.JSONB) models.JSONB {
	if fields == nil {
		return models.JSONB{}
	}
	delete(fields, "id")
	delete(fields, "images")
	return fields
}
