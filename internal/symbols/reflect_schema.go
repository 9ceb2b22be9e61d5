package symbols

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// ReflectSchema describes contexts of one Go struct type. Exported fields,
// including promoted ones, are properties; exported methods are context
// methods.
type ReflectSchema struct {
	goType reflect.Type
	table  *Table

	methodSet

	fieldsMu sync.Mutex
	fields   map[string]*Field
}

// SchemaOf returns the schema of T.
func SchemaOf[T any](table *Table) *ReflectSchema {
	return NewReflectSchema(reflect.TypeFor[T](), table)
}

// NewReflectSchema returns the schema of a struct type or pointer to one.
func NewReflectSchema(t reflect.Type, table *Table) *ReflectSchema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if table == nil {
		table = NewTable()
	}
	return &ReflectSchema{goType: t, table: table, fields: make(map[string]*Field)}
}

// GoType returns the described struct type.
func (s *ReflectSchema) GoType() reflect.Type {
	return s.goType
}

func (s *ReflectSchema) ID() string {
	name := s.goType.String()
	if s.goType.PkgPath() != "" {
		name = s.goType.PkgPath() + "." + s.goType.Name()
	}
	return "go:" + name + "#" + s.identity(name, s.table)
}

func (s *ReflectSchema) Symbols() *Table {
	return s.table
}

func (s *ReflectSchema) AddMethod(name string, fn any) error {
	return s.add(name, fn, s.table.EnumName)
}

// Field resolves path segment by segment through struct fields and
// string-keyed maps. Reading a path through a nil pointer yields nil when the
// target type accepts null and fails otherwise.
func (s *ReflectSchema) Field(path string) (*Field, bool) {
	s.fieldsMu.Lock()
	defer s.fieldsMu.Unlock()

	if f, ok := s.fields[path]; ok {
		return f, true
	}

	segments := strings.Split(path, ".")
	steps := make([]step, 0, len(segments))
	cur := s.goType
	for i, seg := range segments {
		for cur.Kind() == reflect.Pointer {
			cur = cur.Elem()
		}
		switch cur.Kind() {
		case reflect.Struct:
			sf, ok := cur.FieldByName(seg)
			if !ok || !sf.IsExported() {
				return nil, false
			}
			steps = append(steps, step{name: seg, index: sf.Index})
			cur = sf.Type
		case reflect.Map:
			if cur.Key().Kind() != reflect.String {
				return nil, false
			}
			steps = append(steps, step{name: seg, key: reflect.ValueOf(seg).Convert(cur.Key()), isKey: true})
			cur = cur.Elem()
		default:
			return nil, false
		}
		if i < len(segments)-1 && !traversable(cur) {
			return nil, false
		}
	}

	typ, ok := typing.FromGo(cur, s.table.EnumName)
	if !ok {
		return nil, false
	}

	f := &Field{Path: path, Type: typ}
	root := s.goType
	f.Get = func(ctx any) (any, error) {
		v := reflect.ValueOf(ctx)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, nilPath(path, "")
			}
			v = v.Elem()
		}
		if !v.IsValid() || v.Type() != root {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
				"context is %T, expected %s", ctx, root).WithDetails(map[string]any{"path": path})
		}
		for _, st := range steps {
			next, ok := st.walk(v)
			if !ok {
				if typ.AcceptsNull() {
					return nil, nil
				}
				return nil, nilPath(path, st.name)
			}
			v = next
		}
		return typing.Normalize(v, typ), nil
	}
	s.fields[path] = f
	return f, true
}

// Methods returns the exported Go method named name, if any, followed by the
// methods attached with AddMethod.
func (s *ReflectSchema) Methods(name string) []*Function {
	var out []*Function
	if m, ok := reflect.PointerTo(s.goType).MethodByName(name); ok {
		if f, err := describe(name, m.Type, 1, s.table.EnumName); err == nil {
			f.target = s.receiver(name)
			out = append(out, f)
		}
	}
	return append(out, s.lookup(name)...)
}

func (s *ReflectSchema) receiver(name string) func(ctx any) (reflect.Value, error) {
	return func(ctx any) (reflect.Value, error) {
		v := reflect.ValueOf(ctx)
		if !v.IsValid() {
			return reflect.Value{}, schema.NewErrorf(schema.ErrCodeEvaluation, "method '%s' called on nil context", name)
		}
		if v.Kind() != reflect.Pointer {
			ptr := reflect.New(v.Type())
			ptr.Elem().Set(v)
			v = ptr
		}
		m := v.MethodByName(name)
		if !m.IsValid() {
			return reflect.Value{}, schema.NewErrorf(schema.ErrCodeEvaluation, "context %T has no method '%s'", ctx, name)
		}
		return m, nil
	}
}

type step struct {
	name  string
	index []int
	key   reflect.Value
	isKey bool
}

// walk moves one segment down, reporting false on a nil pointer, nil map or
// missing key along the way.
func (st step) walk(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if st.isKey {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		out := v.MapIndex(st.key)
		return out, out.IsValid()
	}
	out, err := v.FieldByIndexErr(st.index)
	if err != nil {
		return reflect.Value{}, false
	}
	return out, true
}

func traversable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct || (t.Kind() == reflect.Map && t.Key().Kind() == reflect.String)
}

func nilPath(path, segment string) *schema.ExprError {
	msg := fmt.Sprintf("cannot read '%s': nil value", path)
	if segment != "" {
		msg = fmt.Sprintf("cannot read '%s': nil value at '%s'", path, segment)
	}
	return schema.NewError(schema.ErrCodeEvaluation, msg).WithDetails(map[string]any{"path": path})
}
