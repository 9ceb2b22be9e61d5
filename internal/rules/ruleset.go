// Package rules loads declarative rule sets, compiles their expressions
// against a dynamic schema and evaluates them over selected documents.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rendis/expressive/internal/document"
	"github.com/rendis/expressive/pkg/schema"
)

// RuleSet is the decoded form of a rule-set file.
type RuleSet struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Context     Context `json:"context"`
	Rules       []Rule  `json:"rules"`
	// Verdict combines rule outcomes, e.g. "{0} && ({1} || {2})".
	// Empty means every rule must pass.
	Verdict string `json:"verdict,omitempty"`
	// Select is a jq query picking the context objects out of a data document.
	Select string `json:"select,omitempty"`
}

// Context declares what expressions in the set may reference.
type Context struct {
	// Fields maps property paths to type spellings such as "*int" or "enum:Model.Level".
	Fields    map[string]string           `json:"fields,omitempty"`
	Enums     map[string]map[string]int64 `json:"enums,omitempty"`
	Constants map[string]any              `json:"constants,omitempty"`
}

// Rule is one named expression.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Message    string `json:"message,omitempty"`
}

// Load reads a rule set from a .yaml, .yml or .json file.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "read rule set %s: %v", path, err).WithCause(err)
	}
	rs, err := Decode(data, document.FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Decode parses and schema-validates a rule set.
func Decode(data []byte, format document.Format) (*RuleSet, error) {
	doc, err := document.Decode(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "failed to serialize rule set").WithCause(err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "failed to decode rule set").WithCause(err)
	}
	rs.Context.normalize()
	return &rs, nil
}

// ParseContext decodes a JSON object holding fields, enums and constants.
func ParseContext(data []byte) (*Context, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var c Context
	if err := dec.Decode(&c); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "decode context: %v", err).WithCause(err)
	}
	c.normalize()
	return &c, nil
}

func (c *Context) normalize() {
	for name, v := range c.Constants {
		c.Constants[name] = numberValue(v)
	}
}

// numberValue turns json.Number into int64 when integral, float64 otherwise.
func numberValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, _ := n.Float64()
	return f
}
