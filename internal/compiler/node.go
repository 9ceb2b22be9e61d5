package compiler

import (
	"github.com/rendis/expressive/internal/coerce"
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// evaluator computes a node's runtime value against a context.
type evaluator func(ctx any) (any, error)

// node is a typed, compiled subexpression.
type node struct {
	typ  typing.Type
	eval evaluator
	loc  schema.Location

	// literal nodes carry their value and may be folded.
	literal bool
	value   any
}

func literalNode(typ typing.Type, value any, loc schema.Location) *node {
	return &node{
		typ:     typ,
		loc:     loc,
		literal: true,
		value:   value,
		eval:    func(any) (any, error) { return value, nil },
	}
}

// converted returns an evaluator yielding the node's value in type to.
func (n *node) converted(to typing.Type) evaluator {
	from, eval := n.typ, n.eval
	if from.Kind != typing.Int || to.Kind != typing.Float {
		return eval
	}
	return func(ctx any) (any, error) {
		v, err := eval(ctx)
		if err != nil {
			return nil, err
		}
		return typing.Convert(v, from, to), nil
	}
}

// binary builds the node of a constructed binary operation. Literal operands
// fold at compile time; a folding failure is deferred to evaluation.
func binary(op coerce.Operation, left, right *node, loc schema.Location) *node {
	l, r := left.converted(op.Left), right.converted(op.Right)
	apply := op.Apply

	if left.literal && right.literal {
		v, err := apply(typing.Convert(left.value, left.typ, op.Left), typing.Convert(right.value, right.typ, op.Right))
		if err == nil {
			return literalNode(op.Result, v, left.loc)
		}
	}

	return &node{typ: op.Result, loc: left.loc, eval: func(ctx any) (any, error) {
		a, err := l(ctx)
		if err != nil {
			return nil, err
		}
		b, err := r(ctx)
		if err != nil {
			return nil, err
		}
		v, err := apply(a, b)
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation, "%v", err).
				WithCause(err).
				WithDetails(map[string]any{"location": loc.String()})
		}
		return v, nil
	}}
}

// logical builds a short-circuiting conjunction or disjunction. The right
// operand runs only when the left one does not decide the result.
func logical(op coerce.Operator, left, right *node) *node {
	decides := op == coerce.OrElse

	if left.literal && right.literal {
		a, b := left.value.(bool), right.value.(bool)
		if decides {
			return literalNode(typing.BoolType, a || b, left.loc)
		}
		return literalNode(typing.BoolType, a && b, left.loc)
	}
	if left.literal && left.value.(bool) == decides {
		return literalNode(typing.BoolType, decides, left.loc)
	}

	l, r := left.eval, right.eval
	return &node{typ: typing.BoolType, loc: left.loc, eval: func(ctx any) (any, error) {
		a, err := l(ctx)
		if err != nil {
			return nil, err
		}
		if a.(bool) == decides {
			return decides, nil
		}
		return r(ctx)
	}}
}

func unary(op coerce.UnaryOperation, operand *node, loc schema.Location) *node {
	apply := op.Apply
	if operand.literal {
		if v, err := apply(operand.value); err == nil {
			return literalNode(op.Result, v, loc)
		}
	}
	eval := operand.eval
	return &node{typ: op.Result, loc: loc, eval: func(ctx any) (any, error) {
		v, err := eval(ctx)
		if err != nil {
			return nil, err
		}
		return apply(v)
	}}
}

func conditional(cond, then, otherwise *node) *node {
	if cond.literal {
		if cond.value.(bool) {
			return then
		}
		return otherwise
	}
	c, t, o := cond.eval, then.eval, otherwise.eval
	return &node{typ: then.typ, loc: cond.loc, eval: func(ctx any) (any, error) {
		v, err := c(ctx)
		if err != nil {
			return nil, err
		}
		if v.(bool) {
			return t(ctx)
		}
		return o(ctx)
	}}
}
