package draft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft(courseID uint) *CourseDraft {
	return &CourseDraft{
		CourseID:    courseID,
		SessionID:   "sess-1",
		Title:       "Go Fundamentals",
		Description: "From zero to goroutines",
		Level:       "Beginner",
		Duration:    20,
		Topics: []TopicDraft{
			{Name: "Basics", Order: 1, Skills: []string{"syntax"}},
			{Name: "Concurrency", Order: 2, Prerequisites: []string{"Basics"}},
			{Name: "Testing", Order: 3},
		},
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	d := sampleDraft(1)
	require.NoError(t, store.Save(ctx, d))
	assert.False(t, d.UpdatedAt.IsZero())

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Go Fundamentals", got.Title)
	require.Len(t, got.Topics, 3)
	assert.Equal(t, []string{"Basics"}, got.Topics[1].Prerequisites)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestSaveIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleDraft(1)))
	first := store.drafts[1]

	require.NoError(t, store.Save(ctx, sampleDraft(1)))
	second := store.drafts[1]

	assert.Equal(t, string(first), string(second),
		"saving the same draft twice must store an identical document")
}

func TestDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleDraft(1)))
	require.NoError(t, store.Delete(ctx, 1))
	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	// Deleting a missing draft is not an error.
	assert.NoError(t, store.Delete(ctx, 42))
}

func TestReorderTopics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleDraft(1)))

	require.NoError(t, store.ReorderTopics(ctx, 1, []int{2, 0, 1}))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Topics, 3)
	assert.Equal(t, "Testing", got.Topics[0].Name)
	assert.Equal(t, "Basics", got.Topics[1].Name)
	assert.Equal(t, "Concurrency", got.Topics[2].Name)
	for i, topic := range got.Topics {
		assert.Equal(t, i+1, topic.Order)
	}
}

func TestReorderTopicsRejectsBadOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleDraft(1)))

	for _, order := range [][]int{
		{0, 1},          // wrong length
		{0, 1, 3},       // out of range
		{0, 1, 1},       // duplicate
		{-1, 0, 1},      // negative
		{0, 1, 2, 2},    // too long
	} {
		assert.Error(t, store.ReorderTopics(ctx, 1, order), "order %v", order)
	}

	// The draft is untouched after rejected reorders.
	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Basics", got.Topics[0].Name)
}
