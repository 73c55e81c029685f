// internal/panel/manager_test.go
package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watch4deal/admin-backend/internal/store"
)

func TestManagerReusesSession(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), &stubBlobStore{}, testLogger())
	defer m.CloseAll()

	first, ok := m.Get("s1")
	require.True(t, ok)
	require.NotNil(t, first)
	assert.Equal(t, StateReady, first.State())

	second, ok := m.Get("s1")
	require.True(t, ok)
	assert.Same(t, first, second)
}

func TestManagerCloseRevokesSession(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), &stubBlobStore{}, testLogger())
	defer m.CloseAll()

	c, ok := m.Get("s1")
	require.True(t, ok)

	m.Close("s1")
	assert.True(t, c.Closed())

	// The id is revoked: a still-valid token must not resurrect the panel.
	_, ok = m.Get("s1")
	assert.False(t, ok)

	// Other sessions are unaffected.
	other, ok := m.Get("s2")
	require.True(t, ok)
	assert.False(t, other.Closed())
}

func TestManagerCloseUnknownSessionRevokes(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), &stubBlobStore{}, testLogger())
	defer m.CloseAll()

	// Logging out before ever touching the panel still burns the id.
	m.Close("s1")
	_, ok := m.Get("s1")
	assert.False(t, ok)
}
