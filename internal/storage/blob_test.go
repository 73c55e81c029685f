// internal/storage/blob_test.go
package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobKeyFormat(t *testing.T) {
	key := blobKey("front.jpg")
	assert.Regexp(t, regexp.MustCompile(`^watches/\d+_front\.jpg$`), key)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_watch.png", sanitizeName("my watch.png"))
	assert.Equal(t, "passwd", sanitizeName("../../etc/passwd"))
	assert.Equal(t, "image", sanitizeName(""))
	assert.Equal(t, "image", sanitizeName("."))
}

func TestMemoryBlobStoreRoundTrip(t *testing.T) {
	m := NewMemoryBlobStore()

	url, err := m.Upload(context.Background(), []byte("jpegdata"), "front.jpg")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^https://blobs\.local/watches/\d+_front\.jpg$`), url)
	assert.Equal(t, 1, m.Len())

	data, ok := m.Get(url)
	require.True(t, ok)
	assert.Equal(t, []byte("jpegdata"), data)

	require.NoError(t, m.Remove(context.Background(), url))
	assert.Equal(t, 0, m.Len())

	// Removing an already-absent object is not an error.
	assert.NoError(t, m.Remove(context.Background(), url))
}

func TestMemoryBlobStoreRespectsContext(t *testing.T) {
	m := NewMemoryBlobStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Upload(ctx, []byte("x"), "front.jpg")
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "front.jpg", upErr.Name)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryBlobStoreCopiesData(t *testing.T) {
	m := NewMemoryBlobStore()

	buf := []byte("original")
	url, err := m.Upload(context.Background(), buf, "front.jpg")
	require.NoError(t, err)

	buf[0] = 'X'

	data, ok := m.Get(url)
	require.True(t, ok)
	assert.Equal(t, []byte("original"), data)
}
