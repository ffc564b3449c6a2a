package llm

import (
	"context"
	"encoding/json"
)

// Gateway is the single chokepoint for model access. Every agent call to the
// hosted generation model or the embedding model goes through it.
type Gateway interface {
	// Chat sends a message sequence (plus optional tool definitions) to the
	// generation model. The response carries either final assistant text or
	// a list of tool calls, never both.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Embed returns one fixed-width vector per input text. The batch
	// endpoint of the provider is used when available.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID returns the generation model identifier in use.
	ModelID() string
}

// Role is the message sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn in a conversation. Tool observations are carried
// as RoleTool messages referencing the originating call id.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

// ToolCall is the model's request to invoke a named tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Profile bundles the sampling parameters for a call.
type Profile struct {
	Temperature float32
	TopP        float32
}

var (
	// ProfileDeterministic is used for schema-bound generation where
	// stability matters more than variety.
	ProfileDeterministic = Profile{Temperature: 0.2, TopP: 0.8}

	// ProfileCreative is used for teaching prose and exercise invention.
	ProfileCreative = Profile{Temperature: 0.7, TopP: 0.9}
)

type ChatRequest struct {
	Messages  []Message
	Tools     []ToolDefinition
	Profile   Profile
	MaxTokens int
}

type ChatResponse struct {
	// Content is the assistant text when the model produced a final answer.
	Content string

	// ToolCalls is non-empty when the model requested tool invocations
	// instead of answering. Order is the model's emission order.
	ToolCalls []ToolCall

	Usage Usage
	Model string
}

// Final reports whether the response is a final answer rather than a
// tool-call request.
func (r *ChatResponse) Final() bool {
	return len(r.ToolCalls) == 0
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
