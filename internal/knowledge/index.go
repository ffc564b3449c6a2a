package knowledge

import "context"

// Metadata carries per-chunk attributes into the vector index. Values must
// be scalars or lists of strings; anything else is stringified before
// storage to respect the index's metadata constraints.
type Metadata map[string]any

// Vector is one embedded chunk ready for indexing.
type Vector struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Hit is one similarity-search result.
type Hit struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// VectorIndex abstracts the similarity index. Implementations: pinecone
// (production) and memory (tests, single-node deployments).
type VectorIndex interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, k int, filter Metadata) ([]Hit, error)
	DeleteByPrefix(ctx context.Context, prefix string) error
}
