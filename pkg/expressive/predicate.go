package expressive

import (
	"maps"

	"github.com/rendis/expressive/internal/compiler"
	"github.com/rendis/expressive/internal/typing"
)

// Predicate is a compiled expression. It is safe for concurrent use.
type Predicate struct {
	program  *compiler.Program
	schemaID string
}

// Eval evaluates the predicate against a context matching its schema.
func (p *Predicate) Eval(ctx any) (bool, error) {
	return p.program.Eval(ctx)
}

// Expression returns the source text.
func (p *Predicate) Expression() string {
	return p.program.Expression
}

// SchemaID returns the identity of the schema the predicate was compiled for.
func (p *Predicate) SchemaID() string {
	return p.schemaID
}

// Fields returns the property paths the predicate reads.
func (p *Predicate) Fields() map[string]typing.Type {
	return maps.Clone(p.program.Fields)
}

// Constants returns the enum members and constants the predicate binds.
func (p *Predicate) Constants() map[string]any {
	return maps.Clone(p.program.Constants)
}
