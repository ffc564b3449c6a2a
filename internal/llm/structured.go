package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateStructured runs a chat request in structured-output mode: the
// model's answer must validate against schema. One repair round-trip is
// attempted before giving up with ErrOutputParse.
func GenerateStructured(ctx context.Context, gw Gateway, req ChatRequest, schema *Schema) (json.RawMessage, error) {
	req.Messages = append(req.Messages, Message{
		Role:    RoleSystem,
		Content: schemaInstruction(schema),
	})

	resp, err := gw.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	return ParseStructured(ctx, gw, schema, resp.Content)
}

// ParseStructured validates raw model output against schema, invoking the
// repair path once on failure. A second failure surfaces ErrOutputParse.
func ParseStructured(ctx context.Context, gw Gateway, schema *Schema, raw string) (json.RawMessage, error) {
	content := ExtractJSON(raw)
	if err := Validate(schema, content); err == nil {
		return content, nil
	} else if repaired, rerr := Repair(ctx, gw, schema, raw, err); rerr == nil {
		return repaired, nil
	} else {
		return nil, rerr
	}
}

// Repair re-prompts the model with the original output, the schema, and the
// parser's error, asking for a corrected JSON object. The repaired output is
// validated once; failure surfaces ErrOutputParse.
func Repair(ctx context.Context, gw Gateway, schema *Schema, raw string, cause error) (json.RawMessage, error) {
	schemaJSON, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	resp, err := gw.Chat(ctx, ChatRequest{
		Profile: ProfileDeterministic,
		Messages: []Message{
			{Role: RoleSystem, Content: repairSystemPrompt},
			{Role: RoleUser, Content: fmt.Sprintf(
				"The following output failed validation.\n\nOutput:\n%s\n\nJSON schema:\n%s\n\nValidation error:\n%s\n\nEmit the corrected JSON object and nothing else.",
				raw, schemaJSON, cause.Error(),
			)},
		},
	})
	if err != nil {
		return nil, err
	}

	content := ExtractJSON(resp.Content)
	if verr := Validate(schema, content); verr != nil {
		return nil, &ErrOutputParse{Content: content, Err: verr}
	}
	return content, nil
}

const repairSystemPrompt = "You repair malformed JSON. Given an output, its target JSON schema and the validation error, you respond with a single corrected JSON object that satisfies the schema. No prose, no markdown fences."

func schemaInstruction(schema *Schema) string {
	def, _ := json.Marshal(schema.Definition)
	return fmt.Sprintf(
		"Respond with a single JSON object matching this schema (%s — %s):\n%s\nNo prose outside the JSON.",
		schema.Name, schema.Description, def,
	)
}

// ExtractJSON strips markdown code fences that models sometimes wrap around
// JSON payloads.
func ExtractJSON(raw string) json.RawMessage {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return json.RawMessage(s)
}
