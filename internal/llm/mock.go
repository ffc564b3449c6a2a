package llm

import (
	"context"
	"sync"
)

// MockChat is a canned chat response for the MockGateway.
type MockChat struct {
	Content   string
	ToolCalls []ToolCall
	Err       error
}

// MockGateway is a deterministic Gateway for testing. Chat responses are
// served FIFO; all requests are recorded.
type MockGateway struct {
	mu        sync.Mutex
	responses []MockChat
	Calls     []ChatRequest

	// EmbedFunc overrides embedding behavior. When nil, Embed returns a
	// trivial length-based vector so similarity math stays deterministic.
	EmbedFunc func(texts []string) ([][]float32, error)

	EmbedCalls [][]string
}

func NewMockGateway(responses ...MockChat) *MockGateway {
	return &MockGateway{responses: responses}
}

func (m *MockGateway) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrUnavailable{}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &ChatResponse{
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Model:     "mock",
	}, nil
}

func (m *MockGateway) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.EmbedCalls = append(m.EmbedCalls, texts)
	fn := m.EmbedFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(texts)
	}

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1}
	}
	return vectors, nil
}

func (m *MockGateway) ModelID() string { return "mock" }

// Queue appends a canned chat response.
func (m *MockGateway) Queue(resp MockChat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Chat calls made.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
