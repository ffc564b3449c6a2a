package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"eduforge_backend/internal/llm"
)

// HistoryStore persists per-session conversation turns so that follow-up
// agent invocations see prior context.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]llm.Message, error)
	Append(ctx context.Context, sessionID string, messages ...llm.Message) error
}

const historyKeyPrefix = "agent:history:"

// RedisHistory stores session turns as a Redis list of JSON messages.
type RedisHistory struct {
	client *redis.Client
}

func NewRedisHistory(client *redis.Client) *RedisHistory {
	return &RedisHistory{client: client}
}

func (h *RedisHistory) Load(ctx context.Context, sessionID string) ([]llm.Message, error) {
	raw, err := h.client.LRange(ctx, historyKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", sessionID, err)
	}

	messages := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode history entry of %s: %w", sessionID, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (h *RedisHistory) Append(ctx context.Context, sessionID string, messages ...llm.Message) error {
	if len(messages) == 0 {
		return nil
	}
	items := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode history entry of %s: %w", sessionID, err)
		}
		items = append(items, b)
	}
	if err := h.client.RPush(ctx, historyKeyPrefix+sessionID, items...).Err(); err != nil {
		return fmt.Errorf("append history %s: %w", sessionID, err)
	}
	return nil
}

// MemoryHistory is an in-process HistoryStore for tests and local runs.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string][]llm.Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]llm.Message)}
}

func (h *MemoryHistory) Load(_ context.Context, sessionID string) ([]llm.Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stored := h.sessions[sessionID]
	out := make([]llm.Message, len(stored))
	copy(out, stored)
	return out, nil
}

func (h *MemoryHistory) Append(_ context.Context, sessionID string, messages ...llm.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sessionID] = append(h.sessions[sessionID], messages...)
	return nil
}
