package rules

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/expressive/pkg/schema"
)

const ruleSetSchemaURL = "https://expressive.dev/schemas/rule-set.json"

// ruleSetSchemaJSON is the JSON Schema every rule-set file must satisfy.
const ruleSetSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://expressive.dev/schemas/rule-set.json",
  "type": "object",
  "required": ["name", "rules"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "description": { "type": "string" },
    "context": { "$ref": "#/$defs/context" },
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/$defs/rule" }
    },
    "verdict": { "type": "string", "minLength": 1 },
    "select": { "type": "string" }
  },
  "additionalProperties": false,
  "$defs": {
    "context": {
      "type": "object",
      "properties": {
        "fields": {
          "type": "object",
          "additionalProperties": { "type": "string", "minLength": 1 }
        },
        "enums": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "minProperties": 1,
            "additionalProperties": { "type": "integer" }
          }
        },
        "constants": {
          "type": "object",
          "additionalProperties": { "type": ["string", "number", "boolean"] }
        }
      },
      "additionalProperties": false
    },
    "rule": {
      "type": "object",
      "required": ["name", "expression"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "expression": { "type": "string", "minLength": 1 },
        "message": { "type": "string" }
      },
      "additionalProperties": false
    }
  }
}`

var (
	schemaOnce       sync.Once
	ruleSetSchema    *jsonschema.Schema
	ruleSetSchemaErr error
)

// compiledSchema compiles the embedded rule-set schema once.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(ruleSetSchemaJSON))
		if err != nil {
			ruleSetSchemaErr = fmt.Errorf("unmarshal rule-set schema: %w", err)
			return
		}
		if err := c.AddResource(ruleSetSchemaURL, doc); err != nil {
			ruleSetSchemaErr = fmt.Errorf("add rule-set schema resource: %w", err)
			return
		}
		ruleSetSchema, ruleSetSchemaErr = c.Compile(ruleSetSchemaURL)
	})
	return ruleSetSchema, ruleSetSchemaErr
}

// validateDocument checks a decoded rule-set document against the schema.
func validateDocument(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "rule-set schema unavailable").WithCause(err)
	}

	value, err := toJSONValue(doc)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize rule set").WithCause(err)
	}

	if err := s.Validate(value); err != nil {
		return toExprError(err)
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toExprError converts a jsonschema.ValidationError into an ExprError
// listing each violation with its instance location.
func toExprError(err error) *schema.ExprError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("rule set invalid with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
