package symbols

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// DynamicSchema describes map-shaped contexts (decoded JSON or YAML) by a
// declared set of property paths. A path "a.b" reads ctx["a.b"] when present
// and walks nested maps otherwise.
type DynamicSchema struct {
	fields map[string]*Field
	table  *Table
	digest string

	methodSet
}

// NewDynamicSchema declares the property paths and their types. Enum-typed
// paths must name an enum of the table.
func NewDynamicSchema(fields map[string]typing.Type, table *Table) (*DynamicSchema, error) {
	if table == nil {
		table = NewTable()
	}
	s := &DynamicSchema{fields: make(map[string]*Field, len(fields)), table: table}

	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var digest strings.Builder
	for _, path := range paths {
		typ := fields[path]
		if !validPath(path) {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "field %q: invalid property path", path)
		}
		var enum *Enum
		if typ.Kind == typing.Enum {
			e, ok := table.Enum(typ.Name)
			if !ok {
				return nil, schema.NewErrorf(schema.ErrCodeValidation, "field %q: enum %q not registered", path, typ.Name)
			}
			enum = e
		}
		s.fields[path] = &Field{Path: path, Type: typ, Get: dynamicGetter(path, typ, enum)}
		fmt.Fprintf(&digest, "%s=%s;", path, typ)
	}
	s.digest = digest.String()
	return s, nil
}

func (s *DynamicSchema) ID() string {
	return "dyn:" + s.identity(s.digest, s.table)
}

func (s *DynamicSchema) Symbols() *Table {
	return s.table
}

func (s *DynamicSchema) Field(path string) (*Field, bool) {
	f, ok := s.fields[path]
	return f, ok
}

func (s *DynamicSchema) Methods(name string) []*Function {
	return s.lookup(name)
}

func (s *DynamicSchema) AddMethod(name string, fn any) error {
	return s.add(name, fn, s.table.EnumName)
}

// Paths returns the declared property paths, sorted.
func (s *DynamicSchema) Paths() []string {
	paths := make([]string, 0, len(s.fields))
	for path := range s.fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func validPath(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			digit := r >= '0' && r <= '9'
			if !letter && !(digit && i > 0) {
				return false
			}
		}
	}
	return true
}

func dynamicGetter(path string, typ typing.Type, enum *Enum) func(ctx any) (any, error) {
	segments := strings.Split(path, ".")
	return func(ctx any) (any, error) {
		raw, found, err := lookupPath(ctx, path, segments)
		if err != nil {
			return nil, err
		}
		if !found || raw == nil {
			if typ.AcceptsNull() {
				return nil, nil
			}
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation, "field '%s' is missing or null", path).
				WithDetails(map[string]any{"path": path, "type": typ.String()})
		}
		v, err := coerceValue(raw, typ, enum)
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation, "field '%s': %v", path, err).
				WithCause(err).
				WithDetails(map[string]any{"path": path, "type": typ.String()})
		}
		return v, nil
	}
}

func lookupPath(ctx any, path string, segments []string) (any, bool, error) {
	m, ok := asMap(ctx)
	if !ok {
		return nil, false, schema.NewErrorf(schema.ErrCodeEvaluation, "context is %T, expected an object", ctx)
	}
	if v, ok := m[path]; ok {
		return v, true, nil
	}
	var cur any = m
	for _, seg := range segments {
		next, ok := asMap(cur)
		if !ok {
			return nil, false, nil
		}
		cur, ok = next[seg]
		if !ok {
			return nil, false, nil
		}
	}
	return cur, true, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// coerceValue converts a decoded document value into the runtime form of the
// declared type.
func coerceValue(raw any, typ typing.Type, enum *Enum) (any, error) {
	v, actual := typing.NormalizeAny(raw)

	switch typ.Kind {
	case typing.Any:
		return v, nil
	case typing.Object:
		if _, ok := asMap(raw); ok {
			return raw, nil
		}
	case typing.Int:
		switch actual.Kind {
		case typing.Int:
			return v, nil
		case typing.Float:
			f := v.(float64)
			if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
				return int64(f), nil
			}
		}
	case typing.Float:
		switch actual.Kind {
		case typing.Float:
			return v, nil
		case typing.Int:
			return float64(v.(int64)), nil
		}
	case typing.Bool, typing.String:
		if actual.Kind == typ.Kind {
			return v, nil
		}
	case typing.Time:
		switch actual.Kind {
		case typing.Time:
			return v, nil
		case typing.String:
			return parseTime(v.(string))
		}
	case typing.Duration:
		switch actual.Kind {
		case typing.Duration:
			return v, nil
		case typing.String:
			return time.ParseDuration(v.(string))
		}
	case typing.UUID:
		switch actual.Kind {
		case typing.UUID:
			return v, nil
		case typing.String:
			return uuid.Parse(v.(string))
		}
	case typing.Enum:
		if actual.Kind == typing.Float {
			f := v.(float64)
			if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
				return nil, fmt.Errorf("%v is not a member of %s", f, enum.Name)
			}
			v, actual = int64(f), typing.IntType
		}
		switch actual.Kind {
		case typing.Int:
			if _, ok := enum.MemberName(v.(int64)); ok {
				return v, nil
			}
			return nil, fmt.Errorf("%d is not a member of %s", v, enum.Name)
		case typing.String:
			if ord, ok := enum.Members[v.(string)]; ok {
				return ord, nil
			}
			return nil, fmt.Errorf("%q is not a member of %s", v, enum.Name)
		}
	}
	return nil, fmt.Errorf("holds %s, expected %s", actual, typ.Underlying())
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly}

func parseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
