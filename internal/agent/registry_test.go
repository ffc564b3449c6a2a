package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduforge_backend/internal/llm"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echoes its input",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{"type": "string"},
			},
			"required":             []string{"value"},
			"additionalProperties": false,
		},
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Value string `json:"value"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return map[string]string{"echo": in.Value}, nil
		},
	}
}

func TestRegistryInvoke(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo_ok"))

	obs, err := reg.Invoke(context.Background(), llm.ToolCall{
		ID:        "c1",
		Name:      "echo_ok",
		Arguments: json.RawMessage(`{"value":"hi"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"hi"}`, obs)
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Invoke(context.Background(), llm.ToolCall{Name: "nope"})
	var notFound *ErrToolNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Tool)
}

func TestRegistryInvokeBadArguments(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("echo_strict"))

	_, err := reg.Invoke(context.Background(), llm.ToolCall{
		Name:      "echo_strict",
		Arguments: json.RawMessage(`{"value":7}`),
	})
	var argErr *ErrToolArgument
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "echo_strict", argErr.Tool)
}

func TestRegistryInvokeHandlerError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("backend down")
	reg.Register(Tool{
		Name:       "broken",
		Parameters: map[string]any{"type": "object"},
		Handler: func(context.Context, json.RawMessage) (any, error) {
			return nil, boom
		},
	})

	_, err := reg.Invoke(context.Background(), llm.ToolCall{Name: "broken"})
	require.ErrorIs(t, err, boom)
	var argErr *ErrToolArgument
	assert.False(t, errors.As(err, &argErr), "handler failures are not argument errors")
}

func TestRegistryDefinitions(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool("zeta"))
	reg.Register(echoTool("alpha"))

	all := reg.Definitions(nil)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[1].Name)

	subset := reg.Definitions([]string{"zeta", "missing"})
	require.Len(t, subset, 1)
	assert.Equal(t, "zeta", subset[0].Name)
}

func TestSchemaFor(t *testing.T) {
	type args struct {
		Query string `json:"query" jsonschema:"description=search query"`
		TopK  int    `json:"topK,omitempty"`
	}
	schema := SchemaFor[args]()
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "topK")
	assert.NotContains(t, schema, "$schema")
}
