package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"eduforge_backend/internal/llm"
	"eduforge_backend/pkg/monitoring"
)

// Kind identifies which agent an invocation belongs to. Used for history
// prompts, metrics labels and error reporting.
type Kind string

const (
	KindComposition Kind = "composition"
	KindLesson      Kind = "lesson"
	KindExercise    Kind = "exercise"
	KindEntryTest   Kind = "entrytest"
	KindAssessment  Kind = "assessment"
	KindReviewPlan  Kind = "reviewplan"
)

// Spec describes a single agent invocation.
type Spec struct {
	Kind         Kind
	SystemPrompt string
	UserPrompt   string

	// Tools names the registry tools exposed for this invocation. Empty
	// means the agent runs without tools.
	Tools []string

	// MaxIterations overrides the runtime default when positive.
	MaxIterations int

	// OutputSchema, when set, makes the final answer structured: it is
	// validated (with one repair round-trip) before being returned.
	OutputSchema *llm.Schema

	Profile llm.Profile

	// SessionID, when non-empty, loads prior session turns before the
	// invocation and records the user turn and final answer after it.
	SessionID string
}

// Runtime drives the tool-calling loop shared by all agents.
type Runtime struct {
	gateway       llm.Gateway
	registry      *Registry
	history       HistoryStore
	log           *zap.Logger
	maxIterations int
}

func NewRuntime(gateway llm.Gateway, registry *Registry, history HistoryStore, log *zap.Logger, maxIterations int) *Runtime {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	return &Runtime{
		gateway:       gateway,
		registry:      registry,
		history:       history,
		log:           log,
		maxIterations: maxIterations,
	}
}

// Run executes the invocation described by spec and returns the final
// answer. With an OutputSchema the answer is validated JSON; otherwise it is
// the assistant's text wrapped as a JSON string.
func (r *Runtime) Run(ctx context.Context, spec Spec) (json.RawMessage, error) {
	ctx, err := EnterDepth(ctx)
	if err != nil {
		monitoring.AgentInvocations.WithLabelValues(string(spec.Kind), "depth_exceeded").Inc()
		return nil, err
	}

	out, iterations, err := r.run(ctx, spec)
	monitoring.AgentIterations.WithLabelValues(string(spec.Kind)).Observe(float64(iterations))
	if err != nil {
		monitoring.AgentInvocations.WithLabelValues(string(spec.Kind), "error").Inc()
		return nil, err
	}
	monitoring.AgentInvocations.WithLabelValues(string(spec.Kind), "ok").Inc()
	return out, nil
}

func (r *Runtime) run(ctx context.Context, spec Spec) (json.RawMessage, int, error) {
	limit := spec.MaxIterations
	if limit <= 0 {
		limit = r.maxIterations
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: spec.SystemPrompt}}
	if spec.SessionID != "" && r.history != nil {
		prior, err := r.history.Load(ctx, spec.SessionID)
		if err != nil {
			return nil, 0, fmt.Errorf("agent %s: %w", spec.Kind, err)
		}
		messages = append(messages, prior...)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: spec.UserPrompt})

	tools := r.registry.Definitions(spec.Tools)

	var final string
	iterations := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, iterations, err
		}
		if iterations >= limit {
			return nil, iterations, &ErrIterationLimit{Agent: spec.Kind, Iterations: limit}
		}
		iterations++

		resp, err := r.gateway.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    tools,
			Profile:  spec.Profile,
		})
		if err != nil {
			return nil, iterations, fmt.Errorf("agent %s: %w", spec.Kind, err)
		}

		if resp.Final() {
			final = resp.Content
			break
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Tool calls execute sequentially in the model's emission order.
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, iterations, err
			}
			observation, err := r.registry.Invoke(ctx, call)
			if err != nil {
				var argErr *ErrToolArgument
				var missing *ErrToolNotFound
				if !errors.As(err, &argErr) && !errors.As(err, &missing) {
					return nil, iterations, fmt.Errorf("agent %s: %w", spec.Kind, err)
				}
				// Recoverable: the model sees its mistake and may retry.
				observation = fmt.Sprintf(`{"error":%q}`, err.Error())
				r.log.Warn("tool call rejected",
					zap.String("agent", string(spec.Kind)),
					zap.String("tool", call.Name),
					zap.Error(err))
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
			})
		}
	}

	out, err := r.finalize(ctx, spec, final)
	if err != nil {
		return nil, iterations, err
	}

	if spec.SessionID != "" && r.history != nil {
		if err := r.history.Append(ctx, spec.SessionID,
			llm.Message{Role: llm.RoleUser, Content: spec.UserPrompt},
			llm.Message{Role: llm.RoleAssistant, Content: final},
		); err != nil {
			return nil, iterations, fmt.Errorf("agent %s: %w", spec.Kind, err)
		}
	}
	return out, iterations, nil
}

func (r *Runtime) finalize(ctx context.Context, spec Spec, final string) (json.RawMessage, error) {
	if spec.OutputSchema == nil {
		b, err := json.Marshal(final)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Kind, err)
		}
		return b, nil
	}
	out, err := llm.ParseStructured(ctx, r.gateway, spec.OutputSchema, final)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", spec.Kind, err)
	}
	return out, nil
}
