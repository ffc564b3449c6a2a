package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryIndex is an in-process VectorIndex. Used in tests and for
// single-node deployments where an external index is not provisioned.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string]Vector
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string]Vector)}
}

func (m *MemoryIndex) Upsert(_ context.Context, vectors []Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		m.vectors[v.ID] = v
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, k int, filter Metadata) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for _, v := range m.vectors {
		if !matches(v.Metadata, filter) {
			continue
		}
		hits = append(hits, Hit{
			ID:       v.ID,
			Score:    float32(Cosine(vector, v.Values)),
			Metadata: v.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemoryIndex) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.vectors {
		if strings.HasPrefix(id, prefix) {
			delete(m.vectors, id)
		}
	}
	return nil
}

// Len reports the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// matches implements metadata equality filtering. Numeric values compare by
// value, not representation.
func matches(meta, filter Metadata) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok {
			return false
		}
		if got == want {
			continue
		}
		gf, gok := scalarToFloat(got)
		wf, wok := scalarToFloat(want)
		if gok && wok && gf == wf {
			continue
		}
		return false
	}
	return true
}
