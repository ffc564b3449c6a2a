package knowledge

import (
	"errors"
	"fmt"
)

// ErrEmptyChunking is raised when the splitter produces zero chunks for a
// document. Fatal for that document; nothing is indexed.
var ErrEmptyChunking = errors.New("semantic chunking produced no chunks")

// ErrEmbeddingUnavailable is raised after embedding retries are exhausted.
type ErrEmbeddingUnavailable struct {
	Attempts int
	Err      error
}

func (e *ErrEmbeddingUnavailable) Error() string {
	return fmt.Sprintf("embedding unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrEmbeddingUnavailable) Unwrap() error { return e.Err }
