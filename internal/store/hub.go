// internal/store/hub.go
package store

import "sync"

// subscriber delivery states: live until either unsubscribe or a transport
// error; both are terminal.
type subscriber struct {
	mu     sync.Mutex
	onData func(Snapshot)
	onErr  func(error)
	done   bool
}

func (s *subscriber) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.onData(snap)
}

func (s *subscriber) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.onErr(err)
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

// hub fans collection snapshots out to live listeners. Records inside a
// snapshot are treated as immutable by all consumers; only the top-level
// mapping is copied per delivery. Callers must serialize broadcast calls per
// collection; the hub delivers in call order and a racing pair of broadcasts
// would let a subscriber end on a stale snapshot.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[int64]*subscriber
	next int64
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int64]*subscriber)}
}

func (h *hub) add(collection string, onData func(Snapshot), onErr func(error)) (*subscriber, Unsubscribe) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	sub := &subscriber{onData: onData, onErr: onErr}

	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int64]*subscriber)
	}
	h.subs[collection][id] = sub

	return sub, func() {
		sub.close()
		h.mu.Lock()
		delete(h.subs[collection], id)
		h.mu.Unlock()
	}
}

func (h *hub) broadcast(collection string, snap Snapshot) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs[collection]))
	for _, sub := range h.subs[collection] {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(copySnapshot(snap))
	}
}

func (h *hub) failAll(collection string, err error) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs[collection]))
	for id, sub := range h.subs[collection] {
		subs = append(subs, sub)
		delete(h.subs[collection], id)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.fail(err)
	}
}
