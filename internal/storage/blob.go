// internal/storage/blob.go
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore stores image bytes and issues the URL they will be served from.
// Upload never retries internally. Remove is used only by the best-effort
// janitor and tolerates absent objects.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, suggestedName string) (string, error)
	Remove(ctx context.Context, url string) error
}

// UploadError reports a failed blob upload.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// blobKey builds the unique write path for an upload:
// watches/{timestamp}_{originalFileName}.
func blobKey(suggestedName string) string {
	return fmt.Sprintf("watches/%d_%s", time.Now().UnixMilli(), sanitizeName(suggestedName))
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "image"
	}
	return name
}
