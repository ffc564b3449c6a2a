package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	mock := NewMockGateway(
		MockChat{Err: &ErrUnavailable{Err: errors.New("boom")}},
		MockChat{Content: "ok"},
	)
	gw := WithRetry(mock, fastRetryConfig())

	resp, err := gw.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	mock := NewMockGateway(
		MockChat{Err: &ErrUnavailable{}},
		MockChat{Err: &ErrUnavailable{}},
		MockChat{Err: &ErrUnavailable{}},
	)
	gw := WithRetry(mock, fastRetryConfig())

	_, err := gw.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)

	var exhausted *ErrModelUnavailable
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRetryDoesNotRetryParseErrors(t *testing.T) {
	mock := NewMockGateway(
		MockChat{Err: &ErrOutputParse{Err: errors.New("bad json")}},
		MockChat{Content: "never reached"},
	)
	gw := WithRetry(mock, fastRetryConfig())

	_, err := gw.Chat(context.Background(), ChatRequest{})
	var parse *ErrOutputParse
	require.ErrorAs(t, err, &parse)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryHonorsRateLimitRetryAfter(t *testing.T) {
	mock := NewMockGateway(
		MockChat{Err: &ErrRateLimit{RetryAfter: time.Millisecond}},
		MockChat{Content: "ok"},
	)
	gw := WithRetry(mock, fastRetryConfig())

	start := time.Now()
	resp, err := gw.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	mock := NewMockGateway(
		MockChat{Err: &ErrUnavailable{}},
		MockChat{Content: "never reached"},
	)
	gw := WithRetry(mock, RetryConfig{MaxAttempts: 3, BaseWait: time.Minute, MaxWait: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.Chat(ctx, ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryEmbed(t *testing.T) {
	calls := 0
	mock := NewMockGateway()
	mock.EmbedFunc = func(texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, &ErrEmbedding{Err: errors.New("down")}
		}
		return [][]float32{{1, 2}}, nil
	}
	gw := WithRetry(mock, fastRetryConfig())

	vectors, err := gw.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, 2, calls)
}
