// internal/panel/manager.go
package panel

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/watch4deal/admin-backend/internal/storage"
	"github.com/watch4deal/admin-backend/internal/store"
)

// Manager owns one mounted controller per admin session. Sessions are created
// lazily on first use and torn down on logout or server shutdown.
type Manager struct {
	store store.RemoteStore
	blobs storage.BlobStore
	log   *logrus.Entry

	mu       sync.Mutex
	sessions map[string]*Controller
	revoked  map[string]struct{}
}

func NewManager(st store.RemoteStore, blobs storage.BlobStore, log *logrus.Entry) *Manager {
	return &Manager{
		store:    st,
		blobs:    blobs,
		log:      log,
		sessions: make(map[string]*Controller),
		revoked:  make(map[string]struct{}),
	}
}

// Get returns the session's controller, mounting a fresh one on first use.
// A session closed by logout stays revoked: its token keeps parsing until it
// expires, but it can no longer resurrect a panel.
func (m *Manager) Get(sessionID string) (*Controller, bool) {
	m.mu.Lock()
	if _, gone := m.revoked[sessionID]; gone {
		m.mu.Unlock()
		return nil, false
	}
	c, ok := m.sessions[sessionID]
	if !ok {
		c = NewController(m.store, m.blobs, m.log.WithField("session", sessionID))
		m.sessions[sessionID] = c
	}
	m.mu.Unlock()

	if !ok {
		c.Mount()
	}
	return c, true
}

// Close tears one session down and revokes its id.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	c, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.revoked[sessionID] = struct{}{}
	m.mu.Unlock()

	if ok {
		c.Close()
	}
}

// CloseAll tears every session down; used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.sessions))
	for id, c := range m.sessions {
		controllers = append(controllers, c)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}
