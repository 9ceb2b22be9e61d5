// Package symbols holds the registries the compiler resolves identifiers
// against: context schema descriptors, the caller-supplied table of known
// enums and constants, and the library function registry.
package symbols

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// Enum is a named set of integral members.
type Enum struct {
	Name    string
	Members map[string]int64
	Go      reflect.Type
}

// Type returns the expression type of the enum's members.
func (e *Enum) Type() typing.Type {
	return typing.EnumOf(e.Name, e.Go)
}

// MemberName returns the member holding the ordinal, if any.
func (e *Enum) MemberName(value int64) (string, bool) {
	for name, v := range e.Members {
		if v == value {
			return name, true
		}
	}
	return "", false
}

// Constant is a named literal value.
type Constant struct {
	Name  string
	Value any
	Type  typing.Type
}

// Literal is a resolved enum member or constant.
type Literal struct {
	Name  string
	Value any
	Type  typing.Type
}

// Table is the set of enums and constants visible to expressions. It replaces
// any implicit scan of loaded types: only what is added here resolves.
type Table struct {
	mu     sync.RWMutex
	enums  map[string]*Enum
	byGo   map[reflect.Type]string
	consts map[string]Constant
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		enums:  make(map[string]*Enum),
		byGo:   make(map[reflect.Type]string),
		consts: make(map[string]Constant),
	}
}

// AddEnum registers an enum under its qualified name, e.g. "Model.Stability".
func (t *Table) AddEnum(qualified string, members map[string]int64) error {
	return t.addEnum(qualified, members, nil)
}

// BindEnum registers an enum backed by a defined Go integer type. Fields of
// that type are typed as the enum.
func BindEnum[E ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32](t *Table, qualified string, members map[string]E) error {
	converted := make(map[string]int64, len(members))
	for name, v := range members {
		converted[name] = int64(v)
	}
	return t.addEnum(qualified, converted, reflect.TypeFor[E]())
}

func (t *Table) addEnum(qualified string, members map[string]int64, goType reflect.Type) error {
	if qualified == "" {
		return schema.NewError(schema.ErrCodeValidation, "enum name is empty")
	}
	if len(members) == 0 {
		return schema.NewErrorf(schema.ErrCodeValidation, "enum %q has no members", qualified)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.enums[qualified]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "enum %q already registered", qualified)
	}
	copied := make(map[string]int64, len(members))
	for name, v := range members {
		copied[name] = v
	}
	t.enums[qualified] = &Enum{Name: qualified, Members: copied, Go: goType}
	if goType != nil {
		t.byGo[goType] = qualified
	}
	return nil
}

// AddConst registers a constant under its qualified name, e.g. "Limits.MaxAge".
func (t *Table) AddConst(qualified string, value any) error {
	if qualified == "" {
		return schema.NewError(schema.ErrCodeValidation, "constant name is empty")
	}
	v, typ := typing.NormalizeAny(value)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.consts[qualified]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "constant %q already registered", qualified)
	}
	t.consts[qualified] = Constant{Name: qualified, Value: v, Type: typ}
	return nil
}

// Enum returns the enum registered under the exact qualified name.
func (t *Table) Enum(qualified string) (*Enum, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.enums[qualified]
	return e, ok
}

// EnumName reports the qualified enum name bound to a Go type. It satisfies
// typing.EnumLookup.
func (t *Table) EnumName(goType reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.byGo[goType]
	return name, ok
}

// LookupEnum finds the enum members matching a dotted reference such as
// "Stability.High": the enum's qualified name must equal or end with the
// given prefix. Candidates are sorted by qualified member name.
func (t *Table) LookupEnum(ref string) []Literal {
	if t == nil {
		return nil
	}
	idx := strings.LastIndexByte(ref, '.')
	if idx <= 0 {
		return nil
	}
	prefix, member := ref[:idx], ref[idx+1:]

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Literal
	for name, e := range t.enums {
		if !matches(name, prefix) {
			continue
		}
		if v, ok := e.Members[member]; ok {
			out = append(out, Literal{Name: name + "." + member, Value: v, Type: e.Type()})
		}
	}
	sortLiterals(out)
	return out
}

// LookupConst finds the constants whose qualified name equals or ends with
// the reference. Candidates are sorted by qualified name.
func (t *Table) LookupConst(ref string) []Literal {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Literal
	for name, c := range t.consts {
		if matches(name, ref) {
			out = append(out, Literal{Name: name, Value: c.Value, Type: c.Type})
		}
	}
	sortLiterals(out)
	return out
}

// Enums returns the registered enum names, sorted.
func (t *Table) Enums() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.enums))
	for name := range t.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func matches(qualified, ref string) bool {
	return qualified == ref || strings.HasSuffix(qualified, "."+ref)
}

func sortLiterals(lits []Literal) {
	sort.Slice(lits, func(i, j int) bool { return lits[i].Name < lits[j].Name })
}

// Digest renders the table contents in a stable order. Tables holding the
// same enums and constants have equal digests.
func (t *Table) Digest() string {
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	for _, name := range sortedKeys(t.enums) {
		e := t.enums[name]
		fmt.Fprintf(&b, "enum %s{", name)
		for _, member := range sortedKeys(e.Members) {
			fmt.Fprintf(&b, "%s=%d,", member, e.Members[member])
		}
		b.WriteString("};")
	}
	for _, name := range sortedKeys(t.consts) {
		c := t.consts[name]
		fmt.Fprintf(&b, "const %s %s=%#v;", name, c.Type, c.Value)
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
