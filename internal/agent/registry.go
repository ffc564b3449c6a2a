package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"eduforge_backend/internal/llm"
	"eduforge_backend/pkg/monitoring"
)

// Registry holds the named tools agents may invoke.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Definitions returns the tool definitions for the given names, in name
// order when names is empty (meaning: all tools).
func (r *Registry) Definitions(names []string) []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(names) == 0 {
		names = make([]string, 0, len(r.tools))
		for name := range r.tools {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Invoke validates the call's arguments against the tool's schema, runs the
// handler and returns the JSON observation. Schema violations come back as
// *ErrToolArgument so the runtime can surface them to the model instead of
// aborting the loop.
func (r *Registry) Invoke(ctx context.Context, call llm.ToolCall) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		monitoring.ToolInvocations.WithLabelValues(call.Name, "unknown").Inc()
		return "", &ErrToolNotFound{Tool: call.Name}
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	schema := &llm.Schema{Name: "tool-" + t.Name, Definition: t.Parameters}
	if err := llm.Validate(schema, args); err != nil {
		monitoring.ToolInvocations.WithLabelValues(call.Name, "bad_args").Inc()
		return "", &ErrToolArgument{Tool: t.Name, Err: err}
	}

	result, err := t.Handler(ctx, args)
	if err != nil {
		monitoring.ToolInvocations.WithLabelValues(call.Name, "error").Inc()
		return "", fmt.Errorf("tool %s: %w", t.Name, err)
	}

	observation, err := json.Marshal(result)
	if err != nil {
		monitoring.ToolInvocations.WithLabelValues(call.Name, "error").Inc()
		return "", fmt.Errorf("marshal observation of %s: %w", t.Name, err)
	}

	monitoring.ToolInvocations.WithLabelValues(call.Name, "ok").Inc()
	return string(observation), nil
}
