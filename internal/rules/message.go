package rules

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rendis/expressive/pkg/schema"
)

// message is a rule message with ${{...}} references, split at compile time.
// References read object.<path>, rule.name, rule.expression and set.name.
type message struct {
	parts []messagePart
}

type messagePart struct {
	text string
	// ref is the reference path; empty for literal text.
	ref string
}

// messageScope holds the values a message may reference.
type messageScope struct {
	Object map[string]any
	Rule   Rule
	Set    string
}

var messageNamespaces = []string{"object", "rule", "set"}

// parseMessage scans s for ${{...}} tokens.
func parseMessage(s string) (*message, error) {
	m := &message{}
	i := 0
	for i < len(s) {
		idx := strings.Index(s[i:], "${{")
		if idx == -1 {
			m.parts = append(m.parts, messagePart{text: s[i:]})
			break
		}
		if idx > 0 {
			m.parts = append(m.parts, messagePart{text: s[i : i+idx]})
		}
		start := i + idx + 3

		end := strings.Index(s[start:], "}}")
		if end == -1 {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "unclosed ${{ in message %q", s)
		}
		end += start

		ref := strings.TrimSpace(s[start:end])
		if strings.Contains(ref, "${{") {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"nested interpolation not allowed in message %q", s)
		}
		if ref == "" {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "empty reference ${{  }} in message %q", s)
		}
		if err := checkRef(ref); err != nil {
			return nil, err
		}
		m.parts = append(m.parts, messagePart{ref: ref})
		i = end + 2
	}
	return m, nil
}

func checkRef(ref string) error {
	namespace, rest, _ := strings.Cut(ref, ".")
	switch namespace {
	case "object":
		if rest == "" {
			return schema.NewErrorf(schema.ErrCodeValidation, "invalid reference %q: expected object.<path>", ref)
		}
	case "rule":
		if rest != "name" && rest != "expression" {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"invalid reference %q: expected rule.name or rule.expression", ref)
		}
	case "set":
		if rest != "name" {
			return schema.NewErrorf(schema.ErrCodeValidation, "invalid reference %q: expected set.name", ref)
		}
	default:
		return schema.NewErrorf(schema.ErrCodeValidation,
			"unknown namespace %q in ${{%s}}; available: %s", namespace, ref, strings.Join(messageNamespaces, ", ")).
			WithDetails(map[string]any{"available_namespaces": messageNamespaces})
	}
	return nil
}

// render substitutes every reference. Object paths missing from the scope
// fail with the keys that are available.
func (m *message) render(scope messageScope) (string, error) {
	var b strings.Builder
	for _, p := range m.parts {
		if p.ref == "" {
			b.WriteString(p.text)
			continue
		}
		val, err := scope.resolve(p.ref)
		if err != nil {
			return "", err
		}
		b.WriteString(inline(val))
	}
	return b.String(), nil
}

func (s messageScope) resolve(ref string) (any, error) {
	namespace, rest, _ := strings.Cut(ref, ".")
	switch namespace {
	case "rule":
		if rest == "expression" {
			return s.Rule.Expression, nil
		}
		return s.Rule.Name, nil
	case "set":
		return s.Set, nil
	}

	// Direct key lookup first (supports keys with dots).
	if val, ok := s.Object[rest]; ok {
		return val, nil
	}
	var current any = s.Object
	for _, seg := range strings.Split(rest, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
				"cannot traverse into non-object at %q in %q (type: %T)", seg, ref, current)
		}
		val, ok := obj[seg]
		if !ok {
			keys := slices.Sorted(maps.Keys(obj))
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
				"field %q not found in %q; available: [%s]", seg, ref, strings.Join(keys, ", ")).
				WithDetails(map[string]any{"available_fields": keys})
		}
		current = val
	}
	return current, nil
}

// inline renders a resolved value as message text.
func inline(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return "null"
	case bool, int, int64, float64:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
