package knowledge

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"eduforge_backend/internal/llm"
)

// Chunker splits plain text into semantically coherent chunks: sentences are
// embedded, and a chunk boundary is placed wherever the embedding distance
// between successive sentences exceeds the configured percentile of all
// observed distances. Chunks never carry fewer than BufferSize sentences.
type Chunker struct {
	gateway llm.Gateway

	// BreakpointPercentile, default 95: distances at or above this
	// percentile become chunk boundaries.
	BreakpointPercentile float64

	// BufferSize, default 3: minimum sentences per chunk.
	BufferSize int
}

func NewChunker(gw llm.Gateway, percentile float64, bufferSize int) *Chunker {
	if percentile <= 0 {
		percentile = 95
	}
	if bufferSize <= 0 {
		bufferSize = 3
	}
	return &Chunker{gateway: gw, BreakpointPercentile: percentile, BufferSize: bufferSize}
}

// Chunk splits text. Returns ErrEmptyChunking when no chunk can be formed.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]string, error) {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil, ErrEmptyChunking
	}
	if len(sentences) <= c.BufferSize {
		return []string{strings.Join(sentences, " ")}, nil
	}

	vectors, err := c.gateway.Embed(ctx, sentences)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(vectors)-1)
	for i := 0; i < len(vectors)-1; i++ {
		distances[i] = 1 - Cosine(vectors[i], vectors[i+1])
	}
	threshold := percentile(distances, c.BreakpointPercentile)

	var chunks []string
	var current []string
	for i, s := range sentences {
		current = append(current, s)
		boundary := i < len(distances) && distances[i] >= threshold
		if boundary && len(current) >= c.BufferSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		// A trailing run shorter than the buffer folds into the previous
		// chunk so every chunk carries at least BufferSize sentences.
		if len(current) < c.BufferSize && len(chunks) > 0 {
			chunks[len(chunks)-1] += " " + strings.Join(current, " ")
		} else {
			chunks = append(chunks, strings.Join(current, " "))
		}
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyChunking
	}
	return chunks, nil
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+[\s"')\]]+|[.!?]+$|\n{2,}`)

// SplitSentences performs a lightweight sentence split on plain text.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// degenerate.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// percentile returns the p-th percentile of values (nearest-rank).
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
