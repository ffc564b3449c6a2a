package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uint][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[uint][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, courseID uint) (*CourseDraft, error) {
	s.mu.RLock()
	doc, ok := s.drafts[courseID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var d CourseDraft
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *MemoryStore) Save(_ context.Context, d *CourseDraft) error {
	snapshot := *d
	snapshot.UpdatedAt = time.Time{}
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	d.UpdatedAt = time.Now()
	s.mu.Lock()
	s.drafts[d.CourseID] = doc
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, courseID uint) error {
	s.mu.Lock()
	delete(s.drafts, courseID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ReorderTopics(ctx context.Context, courseID uint, order []int) error {
	d, err := s.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if err := applyTopicOrder(d, order); err != nil {
		return fmt.Errorf("reorder draft %d: %w", courseID, err)
	}
	return s.Save(ctx, d)
}
