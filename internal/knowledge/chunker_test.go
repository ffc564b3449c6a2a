package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduforge_backend/internal/llm"

	"go.uber.org/zap"
)

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("Go has goroutines. Channels carry values! Does it have generics? Yes.")
	require.Len(t, sentences, 4)
	assert.Equal(t, "Go has goroutines.", sentences[0])
	assert.Equal(t, "Does it have generics?", sentences[2])

	assert.Nil(t, SplitSentences("   "))
	assert.Equal(t, []string{"no terminal punctuation"}, SplitSentences("no terminal punctuation"))
}

func TestSplitSentencesParagraphBreaks(t *testing.T) {
	sentences := SplitSentences("First paragraph without a period\n\nSecond paragraph.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "First paragraph without a period", sentences[0])
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
}

func TestChunkerShortTextSingleChunk(t *testing.T) {
	mock := llm.NewMockGateway()
	c := NewChunker(mock, 95, 3)

	chunks, err := c.Chunk(context.Background(), "One sentence. Two sentences.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One sentence. Two sentences.", chunks[0])
	assert.Empty(t, mock.EmbedCalls, "short text should not be embedded")
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(llm.NewMockGateway(), 95, 3)
	_, err := c.Chunk(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyChunking)
}

func TestChunkerBreaksAtEmbeddingShift(t *testing.T) {
	// First three sentences embed near one axis, the rest near the
	// orthogonal axis, so the distance spike lands between them.
	mock := llm.NewMockGateway()
	mock.EmbedFunc = func(texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			if i < 3 {
				vectors[i] = []float32{1, 0}
			} else {
				vectors[i] = []float32{0, 1}
			}
		}
		return vectors, nil
	}
	c := NewChunker(mock, 95, 3)

	chunks, err := c.Chunk(context.Background(),
		"Slices grow. Maps hash. Arrays are fixed. Soup simmers. Bread rises. Cakes bake.")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Slices grow. Maps hash. Arrays are fixed.", chunks[0])
	assert.Equal(t, "Soup simmers. Bread rises. Cakes bake.", chunks[1])
}

func TestChunkerFoldsShortTail(t *testing.T) {
	// Nine sentences in three embedding groups: boundaries land after the
	// third and seventh sentence, leaving a two-sentence tail that must be
	// folded into the chunk before it.
	mock := llm.NewMockGateway()
	mock.EmbedFunc = func(texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			switch {
			case i < 3:
				vectors[i] = []float32{1, 0}
			case i < 7:
				vectors[i] = []float32{0, 1}
			default:
				vectors[i] = []float32{1, 0}
			}
		}
		return vectors, nil
	}
	c := NewChunker(mock, 95, 3)

	chunks, err := c.Chunk(context.Background(),
		"One. Two. Three. Four. Five. Six. Seven. Eight. Nine.")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "One. Two. Three.", chunks[0])
	assert.Equal(t, "Four. Five. Six. Seven. Eight. Nine.", chunks[1])
	for _, chunk := range chunks {
		assert.GreaterOrEqual(t, len(SplitSentences(chunk)), 3)
	}
}

func TestStoreIngestAndRetrieve(t *testing.T) {
	mock := llm.NewMockGateway()
	mock.EmbedFunc = func(texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if len(text) > 20 {
				vectors[i] = []float32{1, 0}
			} else {
				vectors[i] = []float32{0, 1}
			}
		}
		return vectors, nil
	}
	index := NewMemoryIndex()
	store := NewStore(mock, index, NewChunker(mock, 95, 3), zap.NewNop())

	courseID := uint(7)
	count, err := store.Ingest(context.Background(), Document{
		ID:       "job-1",
		Filename: "intro.pdf",
		CourseID: &courseID,
		Text:     "Short one. Short two.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, index.Len())

	chunks, err := store.Retrieve(context.Background(), "tiny", 5, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Short one. Short two.", chunks[0].Text)
	assert.Equal(t, "intro.pdf", chunks[0].Metadata["source"])
	assert.Equal(t, 7, chunks[0].Metadata["course_id"])
}

func TestStoreIngestReplacesStaleChunks(t *testing.T) {
	mock := llm.NewMockGateway()
	index := NewMemoryIndex()
	store := NewStore(mock, index, NewChunker(mock, 95, 3), zap.NewNop())

	doc := Document{ID: "job-2", Filename: "notes.md", Text: "Alpha beta. Gamma delta."}
	_, err := store.Ingest(context.Background(), doc)
	require.NoError(t, err)

	doc.Text = "Rewritten entirely. Nothing shared."
	_, err = store.Ingest(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, index.Len(), "old chunks for the same document must be gone")
}

func TestRetrieveFilterByCourse(t *testing.T) {
	index := NewMemoryIndex()
	require.NoError(t, index.Upsert(context.Background(), []Vector{
		{ID: "a", Values: []float32{1, 0}, Metadata: Metadata{"course_id": 1, "text": "course one"}},
		{ID: "b", Values: []float32{1, 0}, Metadata: Metadata{"course_id": 2, "text": "course two"}},
	}))
	store := NewStore(llm.NewMockGateway(), index, nil, zap.NewNop())

	chunks, err := store.Retrieve(context.Background(), "anything", 10, Metadata{"course_id": 2})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "course two", chunks[0].Text)
}

func TestSanitizeMetadata(t *testing.T) {
	out := SanitizeMetadata(Metadata{
		"s":    "str",
		"i":    3,
		"b":    true,
		"list": []string{"x", "y"},
		"any":  []any{1, "two"},
		"m":    map[string]any{"k": 1},
	})
	assert.Equal(t, "str", out["s"])
	assert.Equal(t, 3, out["i"])
	assert.Equal(t, true, out["b"])
	assert.Equal(t, []string{"x", "y"}, out["list"])
	assert.Equal(t, "[1,two]", out["any"])
	assert.IsType(t, "", out["m"])
}
