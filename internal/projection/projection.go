// internal/projection/projection.go

// Package projection mirrors one record kind's full remote collection. The
// mapping is wholesale-replaced on every subscription push; nothing is ever
// merged field-by-field, so the last push wins entirely.
package projection

import (
	"sort"
	"sync"

	"github.com/watch4deal/admin-backend/internal/models"
)

type Entry struct {
	ID     string       `json:"id"`
	Record models.JSONB `json:"record"`
}

type Projection struct {
	kind    models.RecordKind
	mu      sync.RWMutex
	records map[string]models.JSONB
}

func New(kind models.RecordKind) *Projection {
	return &Projection{
		kind:    kind,
		records: make(map[string]models.JSONB),
	}
}

func (p *Projection) Kind() models.RecordKind {
	return p.kind
}

// OnSnapshot replaces the whole mapping with the pushed state. A nil snapshot
// means the collection is empty.
func (p *Projection) OnSnapshot(snap map[string]models.JSONB) {
	records := make(map[string]models.JSONB, len(snap))
	for id, rec := range snap {
		records[id] = rec
	}

	p.mu.Lock()
	p.records = records
	p.mu.Unlock()
}

func (p *Projection) Get(id string) (models.JSONB, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[id]
	return rec, ok
}

// Entries returns the (id, record) pairs as a stable view over the state
// between snapshots, ordered by id.
func (p *Projection) Entries() []Entry {
	p.mu.RLock()
	entries := make([]Entry, 0, len(p.records))
	for id, rec := range p.records {
		entries = append(entries, Entry{ID: id, Record: rec})
	}
	p.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}
