package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"eduforge_backend/internal/llm"

	"go.uber.org/zap"
)

const upsertBatchSize = 50

// Document is a reference document already processed into plain text by the
// external document processor.
type Document struct {
	ID         string
	Filename   string
	CourseID   *uint
	Text       string
	UploadedAt time.Time
}

// Chunk is one retrieval result.
type Chunk struct {
	ID       string
	Text     string
	Score    float32
	Metadata Metadata
}

// Store ingests documents into the vector index and serves similarity
// retrieval over them. Process-wide, read-mostly, safe for concurrent use.
type Store struct {
	gateway llm.Gateway
	index   VectorIndex
	chunker *Chunker
	log     *zap.Logger
}

func NewStore(gw llm.Gateway, index VectorIndex, chunker *Chunker, log *zap.Logger) *Store {
	return &Store{gateway: gw, index: index, chunker: chunker, log: log}
}

// Ingest chunks, embeds and indexes one document. Nothing is written when
// chunking fails; embedding failures retry before giving up.
func (s *Store) Ingest(ctx context.Context, doc Document) (int, error) {
	chunks, err := s.chunker.Chunk(ctx, doc.Text)
	if err != nil {
		return 0, err
	}

	embeddings, err := s.embedWithRetry(ctx, chunks)
	if err != nil {
		return 0, err
	}

	// Reindexing a document replaces its previous chunks.
	if err := s.index.DeleteByPrefix(ctx, chunkPrefix(doc.ID)); err != nil {
		return 0, fmt.Errorf("delete stale chunks: %w", err)
	}

	vectors := make([]Vector, len(chunks))
	for i, text := range chunks {
		meta := Metadata{
			"source":      doc.Filename,
			"document_id": doc.ID,
			"chunk_index": i,
			"chunk_count": len(chunks),
			"uploaded_at": doc.UploadedAt.Format(time.RFC3339),
			"text":        text,
		}
		if doc.CourseID != nil {
			meta["course_id"] = int(*doc.CourseID)
		}
		vectors[i] = Vector{
			ID:       fmt.Sprintf("%s%d", chunkPrefix(doc.ID), i),
			Values:   embeddings[i],
			Metadata: SanitizeMetadata(meta),
		}
	}

	if err := s.upsertBatches(ctx, vectors); err != nil {
		return 0, err
	}

	s.log.Info("document ingested",
		zap.String("documentId", doc.ID),
		zap.String("source", doc.Filename),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// Retrieve returns the k chunks most similar to query, optionally filtered
// by metadata equality. Deterministic given the same index state: ties are
// broken by chunk id.
func (s *Store) Retrieve(ctx context.Context, query string, k int, filter Metadata) ([]Chunk, error) {
	vectors, err := s.embedWithRetry(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Query(ctx, vectors[0], k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	chunks := make([]Chunk, 0, len(hits))
	for _, h := range hits {
		text, _ := h.Metadata["text"].(string)
		chunks = append(chunks, Chunk{ID: h.ID, Text: text, Score: h.Score, Metadata: h.Metadata})
	}
	return chunks, nil
}

func (s *Store) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	const attempts = 3

	for attempt := 0; attempt < attempts; attempt++ {
		vectors, err := s.gateway.Embed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		wait := time.Duration(1<<attempt) * time.Second
		s.log.Warn("embedding attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, &ErrEmbeddingUnavailable{Attempts: attempts, Err: lastErr}
}

// upsertBatches writes vectors in groups of 50; each batch gets one retry.
func (s *Store) upsertBatches(ctx context.Context, vectors []Vector) error {
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		batch := vectors[start:end]

		if err := s.index.Upsert(ctx, batch); err != nil {
			s.log.Warn("vector batch upsert failed, retrying",
				zap.Int("offset", start),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			if err := s.index.Upsert(ctx, batch); err != nil {
				return fmt.Errorf("upsert batch at %d: %w", start, err)
			}
		}
	}
	return nil
}

func chunkPrefix(documentID string) string {
	return fmt.Sprintf("doc_%s_chunk_", documentID)
}

// SanitizeMetadata stringifies values the index cannot store natively:
// anything that is not a scalar or a list of strings.
func SanitizeMetadata(meta Metadata) Metadata {
	out := make(Metadata, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string, bool, int, int32, int64, uint, float32, float64:
			out[k] = val
		case []string:
			out[k] = val
		case fmt.Stringer:
			out[k] = val.String()
		default:
			out[k] = stringify(val)
		}
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// scalarToFloat is used by the memory index for filter comparisons across
// numeric types.
func scalarToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}
