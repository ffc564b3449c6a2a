package llm

// Schema defines the JSON structure expected from the model in
// structured-output mode.
type Schema struct {
	// Name identifies this schema, kebab-case, e.g. "course-draft".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}
