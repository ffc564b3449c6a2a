package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUnavailable indicates a transient provider failure (5xx, network).
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model provider unavailable: %v", e.Err)
	}
	return "model provider unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrModelUnavailable is raised after retries against transient failures
// are exhausted.
type ErrModelUnavailable struct {
	Attempts int
	Err      error
}

func (e *ErrModelUnavailable) Error() string {
	return fmt.Sprintf("model unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrModelUnavailable) Unwrap() error { return e.Err }

// ErrOutputParse indicates the model's final output did not conform to the
// requested schema, and the single repair attempt did not fix it.
type ErrOutputParse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrOutputParse) Error() string {
	return fmt.Sprintf("output parse failed: %v", e.Err)
}

func (e *ErrOutputParse) Unwrap() error { return e.Err }

// ErrEmbedding indicates the embedding endpoint failed.
type ErrEmbedding struct {
	Err error
}

func (e *ErrEmbedding) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *ErrEmbedding) Unwrap() error { return e.Err }
