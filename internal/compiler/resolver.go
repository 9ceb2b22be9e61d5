package compiler

import (
	"fmt"
	"strings"

	"github.com/rendis/expressive/internal/lexer"
	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// identifier binds a dotted name to a context property, or failing that to
// an enum member or constant of the symbol table.
func (st *state) identifier(tok lexer.Token) (*node, error) {
	path := tok.Value.(string)

	if f, ok := st.schema.Field(path); ok {
		st.fields[path] = f.Type
		get := f.Get
		return &node{typ: f.Type, loc: tok.Location, eval: get}, nil
	}

	unknown := schema.NewErrorf(schema.ErrCodeSemantic,
		"Only public properties, constants and enums are accepted. Identifier '%s' not known.", path).
		At(tok.Location).
		WithExpression(st.text)

	lit, err := st.literal("Enum", path, st.table.LookupEnum(path), tok)
	if err != nil || lit != nil {
		return lit, err
	}
	lit, err = st.literal("Constant", path, st.table.LookupConst(path), tok)
	if err != nil || lit != nil {
		return lit, err
	}
	return nil, unknown
}

func (st *state) literal(class, ref string, candidates []symbols.Literal, tok lexer.Token) (*node, error) {
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		c := candidates[0]
		st.constants[c.Name] = c.Value
		return literalNode(c.Type, c.Value, tok.Location), nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return nil, schema.NewErrorf(schema.ErrCodeSemantic,
		"%s '%s' is ambiguous, found following:\n%s.", class, ref, strings.Join(names, ",\n")).
		At(tok.Location).
		WithExpression(st.text).
		WithDetails(map[string]any{"candidates": names})
}

// function binds a call by name and arity: context methods first, then the
// library registry. Argument types never disambiguate.
func (st *state) function(name lexer.Token, args []*node, starts []lexer.Token) (*node, error) {
	fname := name.Value.(string)
	arity := len(args)

	methods := st.schema.Methods(fname)
	library := st.functions.Lookup(fname)

	var fn *symbols.Function
	for _, candidates := range [][]*symbols.Function{symbols.WithArity(methods, arity), symbols.WithArity(library, arity)} {
		if len(candidates) == 0 {
			continue
		}
		if len(candidates) > 1 {
			return nil, schema.NewErrorf(schema.ErrCodeSemantic,
				"Function '%s' accepting %s is ambiguous.", fname, arguments(arity)).
				At(name.Location).
				WithExpression(st.text)
		}
		fn = candidates[0]
		break
	}

	if fn == nil {
		if len(methods) == 0 && len(library) == 0 {
			return nil, schema.NewErrorf(schema.ErrCodeSemantic, "Function '%s' not known.", fname).
				At(name.Location).
				WithExpression(st.text)
		}
		return nil, schema.NewErrorf(schema.ErrCodeSemantic,
			"Function '%s' accepting %s not found.", fname, arguments(arity)).
			At(name.Location).
			WithExpression(st.text)
	}

	evals := make([]evaluator, arity)
	for i, arg := range args {
		param := fn.Params[i]
		if !typing.Convertible(arg.typ, param) {
			return nil, schema.NewErrorf(schema.ErrCodeConversion,
				"Function '%s' %s argument implicit conversion from '%s' to expected '%s' failed.",
				fname, Ordinal(i+1), arg.typ, param).
				At(starts[i].Location).
				WithExpression(st.text)
		}
		evals[i] = arg.converted(param)
	}

	return &node{typ: fn.Result, loc: name.Location, eval: func(ctx any) (any, error) {
		values := make([]any, len(evals))
		for i, eval := range evals {
			v, err := eval(ctx)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return fn.Invoke(ctx, values)
	}}, nil
}

func arguments(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", n)
}

// Ordinal renders n with its English ordinal suffix: 1st, 2nd, 3rd, 4th,
// 11th, 12th, 13th, 21st.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
