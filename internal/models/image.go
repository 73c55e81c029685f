// internal/models/image.go
package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

type ImageState string

const (
	ImagePending   ImageState = "pending"
	ImageCommitted ImageState = "committed"
)

// ImageRef is an image attached to a listing. A pending ref carries the raw
// upload bytes and a local preview URL and exists only inside a draft; a
// committed ref carries the durable blob-store URL. Only committed refs are
// ever serialized to the remote store.
type ImageRef struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`

	state ImageState
	data  []byte
}

// NewPendingImage wraps not-yet-uploaded file bytes, assigning a fresh
// preview URL.
func NewPendingImage(name string, data []byte) ImageRef {
	return ImageRef{
		Name:  name,
		URL:   "preview://" + uuid.NewString(),
		state: ImagePending,
		data:  data,
	}
}

// CommittedImage wraps a durable blob-store URL.
func CommittedImage(url string) ImageRef {
	return ImageRef{URL: url, state: ImageCommitted}
}

func (r ImageRef) Pending() bool {
	return r.state == ImagePending
}

func (r ImageRef) State() ImageState {
	if r.state == "" {
		return ImageCommitted
	}
	return r.state
}

// Data returns the buffered upload bytes of a pending ref, nil otherwise.
func (r ImageRef) Data() []byte {
	return r.data
}

// Commit resolves a pending ref to its durable URL, dropping the buffered
// bytes and the upload name.
func (r *ImageRef) Commit(url string) {
	r.Name = ""
	r.URL = url
	r.state = ImageCommitted
	r.data = nil
}

type imageWire struct {
	URL string `json:"url"`
}

func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageWire{URL: r.URL})
}

func (r *ImageRef) UnmarshalJSON(b []byte) error {
	var w imageWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = CommittedImage(w.URL)
	return nil
}

// CommittedURLs collects the durable URLs of a record's images, skipping
// anything still pending.
func CommittedURLs(images []ImageRef) []string {
	var urls []string
	for _, img := range images {
		if !img.Pending() && img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
