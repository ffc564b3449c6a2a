package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig controls the backoff behavior of RetryGateway.
type RetryConfig struct {
	MaxAttempts int
	BaseWait    time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig retries three times with 2^n-second waits.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseWait: 2 * time.Second, MaxWait: 10 * time.Second}
}

// RetryGateway decorates a Gateway with retry on transient failures
// (rate limit, provider unavailable, network). Exhaustion surfaces
// ErrModelUnavailable wrapping the last error.
type RetryGateway struct {
	inner  Gateway
	config RetryConfig
}

func WithRetry(g Gateway, cfg RetryConfig) *RetryGateway {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseWait <= 0 {
		cfg.BaseWait = 2 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 10 * time.Second
	}
	return &RetryGateway{inner: g, config: cfg}
}

func (r *RetryGateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp *ChatResponse
	err := r.do(ctx, func() error {
		var callErr error
		resp, callErr = r.inner.Chat(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *RetryGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := r.do(ctx, func() error {
		var callErr error
		vectors, callErr = r.inner.Embed(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (r *RetryGateway) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryGateway) do(ctx context.Context, call func() error) error {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !transient(err) {
			return err
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}

	return &ErrModelUnavailable{Attempts: r.config.MaxAttempts, Err: lastErr}
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var parse *ErrOutputParse
	if errors.As(err, &parse) {
		return false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrUnavailable
	if errors.As(err, &unavail) {
		return true
	}
	var embed *ErrEmbedding
	if errors.As(err, &embed) {
		return true
	}

	return false
}

// backoff waits base*2^attempt with ±20% jitter, honoring RetryAfter on
// rate limits and capping at MaxWait.
func (r *RetryGateway) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.BaseWait) * math.Pow(2, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
