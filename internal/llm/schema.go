package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// GenerateStructured asks the model for a JSON document matching T's schema
// and decodes the reply into a T. The schema is derived from T's struct tags
// and embedded in the system prompt so the model knows the exact shape to
// emit.
func GenerateStructured[T any](ctx context.Context, c Client, req Request) (T, error) {
	var out T

	schema, err := SchemaFor[T]()
	if err != nil {
		return out, fmt.Errorf("derive response schema: %w", err)
	}

	req.SystemPrompt = req.SystemPrompt + "\n\n" + schemaInstructions(schema)
	req.JSONResponse = true

	text, err := c.Invoke(ctx, req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrSchemaDecode, err)
	}
	return out, nil
}

// SchemaFor returns T's JSON Schema as a compact JSON string.
func SchemaFor[T any]() (string, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func schemaInstructions(schema string) string {
	return "Respond with a single JSON object that conforms to this JSON Schema. " +
		"Do not include any prose, explanation, or markdown fences.\n\nSchema:\n" + schema
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
