package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store, used in tests and in the demo
// server's default configuration.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]map[string]*Record  // kind -> id -> record
	relations map[string]map[string][]string // kind/id -> relation -> target ids
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]map[string]*Record),
		relations: make(map[string]map[string][]string),
	}
}

func relKey(kind, id string) string { return kind + "/" + id }

// Insert writes a new record.
func (m *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := m.records[rec.Kind]
	if byID == nil {
		byID = make(map[string]*Record)
		m.records[rec.Kind] = byID
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	byID[rec.ID] = copyRecord(rec)
	return nil
}

// Update overwrites an existing record's attributes.
func (m *MemoryStore) Update(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[rec.Kind][rec.ID]
	if !ok {
		return &NotFoundError{Kind: rec.Kind, ID: rec.ID}
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now()
	m.records[rec.Kind][rec.ID] = copyRecord(rec)
	return nil
}

// Get loads one record by kind and id.
func (m *MemoryStore) Get(ctx context.Context, kind, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[kind][id]
	if !ok {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	return copyRecord(rec), nil
}

// SetRelated replaces the ordered relation list of a record.
func (m *MemoryStore) SetRelated(ctx context.Context, kind, id, relation string, targetIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[kind][id]; !ok {
		return &NotFoundError{Kind: kind, ID: id}
	}
	key := relKey(kind, id)
	if m.relations[key] == nil {
		m.relations[key] = make(map[string][]string)
	}
	m.relations[key][relation] = append([]string(nil), targetIDs...)
	return nil
}

// Related returns the ordered relation list of a record.
func (m *MemoryStore) Related(ctx context.Context, kind, id, relation string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.records[kind][id]; !ok {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	return append([]string(nil), m.relations[relKey(kind, id)][relation]...), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

func copyRecord(rec *Record) *Record {
	out := *rec
	out.Attrs = make(map[string]any, len(rec.Attrs))
	for k, v := range rec.Attrs {
		out.Attrs[k] = v
	}
	return &out
}
