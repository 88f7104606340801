package docstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store used in tests and as a reference for the
// merge semantics the Postgres adapter implements with JSONB.
type Memory struct {
	mu      sync.RWMutex
	indexes map[string]map[string]Doc
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{indexes: make(map[string]map[string]Doc)}
}

// Get returns a copy of the document or ErrNotFound.
func (m *Memory) Get(_ context.Context, index, id string) (Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.indexes[index][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

// Update merges fields into an existing document; ErrNotFound if absent.
func (m *Memory) Update(_ context.Context, index, id string, doc Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.indexes[index][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range doc {
		existing[k] = v
	}
	return nil
}

// Index creates or replaces the document.
func (m *Memory) Index(_ context.Context, index, id string, doc Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexes[index] == nil {
		m.indexes[index] = make(map[string]Doc)
	}
	stored := make(Doc, len(doc))
	for k, v := range doc {
		stored[k] = v
	}
	m.indexes[index][id] = stored
	return nil
}

// Count returns the number of documents in an index.
func (m *Memory) Count(index string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indexes[index])
}

// All returns every document in an index (test helper).
func (m *Memory) All(index string) []Doc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Doc, 0, len(m.indexes[index]))
	for _, doc := range m.indexes[index] {
		out = append(out, doc)
	}
	return out
}
