package draft

import (
	"context"
	"errors"
	"fmt"
)

// ErrDraftNotFound is returned when no draft exists for the course.
var ErrDraftNotFound = errors.New("course draft not found")

// Store keeps the per-course working draft. Saves replace the whole
// document atomically.
type Store interface {
	Get(ctx context.Context, courseID uint) (*CourseDraft, error)
	Save(ctx context.Context, d *CourseDraft) error
	Delete(ctx context.Context, courseID uint) error

	// ReorderTopics rearranges the draft's topics into the given order.
	// order must be a permutation of the current topic indices.
	ReorderTopics(ctx context.Context, courseID uint, order []int) error
}

// applyTopicOrder rearranges topics per order and renumbers them. Shared by
// the store implementations.
func applyTopicOrder(d *CourseDraft, order []int) error {
	if len(order) != len(d.Topics) {
		return fmt.Errorf("order has %d entries, draft has %d topics", len(order), len(d.Topics))
	}
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(d.Topics) || seen[idx] {
			return fmt.Errorf("order is not a permutation of topic indices: %v", order)
		}
		seen[idx] = true
	}

	reordered := make([]TopicDraft, len(order))
	for pos, idx := range order {
		reordered[pos] = d.Topics[idx]
		reordered[pos].Order = pos + 1
	}
	d.Topics = reordered
	return nil
}
