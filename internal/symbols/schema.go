package symbols

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rendis/expressive/internal/typing"
)

// schemaNamespace roots the name-based UUIDs identifying schemas.
var schemaNamespace = uuid.MustParse("6f1c3f0e-9a51-4b7e-8d62-0f3a2c9b7e41")

// Field is a resolved property path of a context.
type Field struct {
	Path string
	Type typing.Type
	// Get reads the runtime value of the path from a context.
	Get func(ctx any) (any, error)
}

// Schema describes the shape of the contexts an expression is compiled for.
type Schema interface {
	// ID identifies the schema shape, its symbol table contents and its
	// attached methods; equal IDs compile identically.
	ID() string
	// Field resolves a dotted property path.
	Field(path string) (*Field, bool)
	// Methods returns the context methods registered under name.
	Methods(name string) []*Function
	// AddMethod attaches a callable to the context under name.
	AddMethod(name string, fn any) error
	// Symbols returns the table enum-typed fields were resolved against.
	Symbols() *Table
}

// methodSet holds methods attached with AddMethod. Attached callables carry
// no comparable identity, so a set with methods is identified by an instance
// token minted on the first add.
type methodSet struct {
	mu       sync.RWMutex
	added    map[string][]*Function
	revision int
	token    uuid.UUID
}

func (m *methodSet) add(name string, fn any, enums typing.EnumLookup) error {
	f, err := NewFunction(name, fn, enums)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.added == nil {
		m.added = make(map[string][]*Function)
	}
	if m.token == uuid.Nil {
		m.token = uuid.New()
	}
	m.added[name] = append(m.added[name], f)
	m.revision++
	return nil
}

func (m *methodSet) lookup(name string) []*Function {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Function(nil), m.added[name]...)
}

// identity digests the shape description together with the table contents
// and the attached methods.
func (m *methodSet) identity(shape string, table *Table) string {
	m.mu.RLock()
	methods := ""
	if m.revision > 0 {
		methods = fmt.Sprintf("%s/%d", m.token, m.revision)
	}
	m.mu.RUnlock()

	data := shape + "\x00" + table.Digest() + "\x00" + methods
	return uuid.NewSHA1(schemaNamespace, []byte(data)).String()
}

var (
	_ Schema = (*ReflectSchema)(nil)
	_ Schema = (*DynamicSchema)(nil)
)
