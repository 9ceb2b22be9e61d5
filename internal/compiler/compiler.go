// Package compiler turns expression text into typed evaluator closures. A
// recursive-descent parser walks the token stream, binding identifiers and
// calls through the resolver and building every operation through the
// coerce package.
package compiler

import (
	"errors"
	"fmt"
	"maps"

	"github.com/rendis/expressive/internal/lexer"
	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// Compiler parses expressions against context schemas. It is not safe for
// concurrent use; the Programs it returns are.
type Compiler struct {
	lexer     *lexer.Lexer
	ternary   bool
	table     *symbols.Table
	functions *symbols.Registry
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithConditional enables the "cond ? a : b" construct.
func WithConditional() Option {
	return func(c *Compiler) { c.ternary = true }
}

// WithSymbols sets the table enums and constants resolve against. Without
// one, the schema's own table is used.
func WithSymbols(table *symbols.Table) Option {
	return func(c *Compiler) { c.table = table }
}

// WithFunctions sets the library function registry.
func WithFunctions(registry *symbols.Registry) Option {
	return func(c *Compiler) { c.functions = registry }
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if c.functions == nil {
		c.functions = symbols.NewRegistry()
	}
	var lexOpts []lexer.Option
	if c.ternary {
		lexOpts = append(lexOpts, lexer.WithConditional())
	}
	c.lexer = lexer.New(lexOpts...)
	return c
}

// Functions returns the library function registry.
func (c *Compiler) Functions() *symbols.Registry {
	return c.functions
}

// Program is a compiled boolean expression.
type Program struct {
	Expression string
	// Fields maps each property path read by the expression to its type.
	Fields map[string]typing.Type
	// Constants maps each enum member or constant bound as a literal to its value.
	Constants map[string]any

	eval evaluator
}

// Eval runs the program against a context. Failures are EVALUATION_ERRORs.
func (p *Program) Eval(ctx any) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = schema.NewErrorf(schema.ErrCodeEvaluation, "evaluation panicked: %v", r).
				WithExpression(p.Expression).
				WithCause(fmt.Errorf("%v", r))
		}
	}()

	v, err := p.eval(ctx)
	if err != nil {
		return false, p.evaluationError(err)
	}
	b, ok := v.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeEvaluation, "expression produced %T, expected bool", v).
			WithExpression(p.Expression)
	}
	return b, nil
}

func (p *Program) evaluationError(err error) error {
	var exprErr *schema.ExprError
	if errors.As(err, &exprErr) {
		if exprErr.Expression == "" {
			exprErr.Expression = p.Expression
		}
		return exprErr
	}
	return schema.NewError(schema.ErrCodeEvaluation, err.Error()).WithExpression(p.Expression).WithCause(err)
}

// Compile parses text against the schema. The function registry is closed
// by the first call.
func (c *Compiler) Compile(s symbols.Schema, text string) (*Program, error) {
	c.functions.Close()

	tokens, err := c.lexer.Analyze(text)
	if err != nil {
		return nil, err
	}

	table := c.table
	if table == nil {
		table = s.Symbols()
	}
	st := &state{
		tokens:    tokens,
		text:      text,
		schema:    s,
		table:     table,
		functions: c.functions,
		ternary:   c.ternary,
		fields:    make(map[string]typing.Type),
		constants: make(map[string]any),
	}

	root, err := st.parse()
	if err != nil {
		var exprErr *schema.ExprError
		if errors.As(err, &exprErr) && exprErr.Expression == "" {
			exprErr.Expression = text
		}
		return nil, err
	}

	return &Program{
		Expression: text,
		Fields:     maps.Clone(st.fields),
		Constants:  maps.Clone(st.constants),
		eval:       root.eval,
	}, nil
}
