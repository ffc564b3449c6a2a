package agent

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Tool is a named, typed capability the model may invoke mid-loop.
type Tool struct {
	Name        string
	Description string

	// Parameters is the JSON schema of the arguments. The registry
	// validates every invocation against it before calling Handler.
	Parameters map[string]any

	// Handler executes the tool. The returned value is JSON-marshaled
	// into the observation fed back to the model.
	Handler func(ctx context.Context, args json.RawMessage) (any, error)
}

// SchemaFor derives a JSON schema map from a Go struct type, using
// `json` and `jsonschema` struct tags.
func SchemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m
}
