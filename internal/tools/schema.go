package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
)

// GenerateSchema derives the JSON Schema for a tool input struct. Schemas are
// inlined (no $ref) and closed to unknown properties so the validator rejects
// stray fields.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// compileValidator turns a generated schema into a compiled validator.
// Format assertions are enabled so uuid/date params fail validation instead
// of reaching a handler.
func compileValidator(s *jsonschema.Schema) (*santhosh.Schema, json.RawMessage, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := santhosh.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("decode schema: %w", err)
	}
	c := santhosh.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource("tool.json", doc); err != nil {
		return nil, nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("tool.json")
	if err != nil {
		return nil, nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, raw, nil
}

// validateInput checks raw JSON against a compiled schema. nil input is
// treated as an empty object.
func validateInput(compiled *santhosh.Schema, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	instance, err := santhosh.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return compiled.Validate(instance)
}
