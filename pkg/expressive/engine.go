// Package expressive compiles validation expressions such as
//
//	GoAbroad == true && (Age > 24 && Age <= 55)
//
// into predicates evaluated against Go values or decoded documents.
package expressive

import (
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/rendis/expressive/internal/compiler"
	"github.com/rendis/expressive/internal/compose"
	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/internal/toolchain"
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// Engine compiles expressions. It is not safe for concurrent Parse calls;
// use a Cache or one Engine per goroutine. Library functions must be
// registered before the first Parse.
type Engine struct {
	compiler *compiler.Compiler
	logger   *slog.Logger
	table    *symbols.Table

	fields    map[string]typing.Type
	constants map[string]any
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	table       *symbols.Table
	conditional bool
}

// WithLogger sets the logger compile outcomes are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSymbols sets the enums and constants expressions may reference.
// Without it each schema's own table is used.
func WithSymbols(table *symbols.Table) Option {
	return func(o *options) { o.table = table }
}

// WithConditional enables the "cond ? a : b" construct.
func WithConditional() Option {
	return func(o *options) { o.conditional = true }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var copts []compiler.Option
	if o.table != nil {
		copts = append(copts, compiler.WithSymbols(o.table))
	}
	if o.conditional {
		copts = append(copts, compiler.WithConditional())
	}

	return &Engine{
		compiler:  compiler.New(copts...),
		logger:    o.logger,
		table:     o.table,
		fields:    map[string]typing.Type{},
		constants: map[string]any{},
	}
}

// RegisterFunction adds a library function callable from expressions by
// name and parameter count. Fails with CONFLICT once the engine has parsed.
func (e *Engine) RegisterFunction(name string, fn any) error {
	return e.compiler.Functions().Register(name, fn)
}

// RegisterToolchain adds the standard functions: Now, Today, Date, Length,
// IsEmail and the rest of the toolchain.
func (e *Engine) RegisterToolchain() error {
	return toolchain.Register(e)
}

// Functions returns the names of the registered library functions.
func (e *Engine) Functions() []string {
	return e.compiler.Functions().Names()
}

// Parse compiles text for contexts described by s.
func (e *Engine) Parse(s symbols.Schema, text string) (*Predicate, error) {
	clear(e.fields)
	clear(e.constants)

	prog, err := e.compiler.Compile(s, text)
	if err != nil {
		e.logFailure(text, err)
		return nil, err
	}

	e.fields = maps.Clone(prog.Fields)
	e.constants = maps.Clone(prog.Constants)

	e.logger.Debug("expression compiled",
		slog.String("expression", text),
		slog.Any("fields", slices.Sorted(maps.Keys(prog.Fields))),
		slog.Any("constants", slices.Sorted(maps.Keys(prog.Constants))),
	)
	return &Predicate{program: prog, schemaID: s.ID()}, nil
}

func (e *Engine) logFailure(text string, err error) {
	attrs := []any{slog.String("expression", text), slog.String("error", err.Error())}
	var exprErr *schema.ExprError
	if errors.As(err, &exprErr) {
		attrs = append(attrs,
			slog.String("code", exprErr.Code),
			slog.Int("line", exprErr.Location.Line),
			slog.Int("column", exprErr.Location.Column),
		)
	}
	e.logger.Debug("expression rejected", attrs...)
}

// FieldsUsed returns the property paths read by the last successful Parse
// and their types. The map is a copy.
func (e *Engine) FieldsUsed() map[string]typing.Type {
	return maps.Clone(e.fields)
}

// ConstantsUsed returns the enum members and constants bound by the last
// successful Parse. The map is a copy.
func (e *Engine) ConstantsUsed() map[string]any {
	return maps.Clone(e.constants)
}

// Compile parses text for contexts of type T, typing enum fields with the
// engine's symbols.
func Compile[T any](e *Engine, text string) (*Predicate, error) {
	return e.Parse(symbols.SchemaOf[T](e.table), text)
}

// EvaluateComposition substitutes results into a "{0} && !{1}" style
// template and evaluates it.
func EvaluateComposition(template string, results []bool) (bool, error) {
	return compose.Evaluate(template, results)
}
