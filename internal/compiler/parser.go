package compiler

import (
	"github.com/rendis/expressive/internal/coerce"
	"github.com/rendis/expressive/internal/lexer"
	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// state is the cursor and symbol output of a single parse.
type state struct {
	tokens []lexer.Token
	pos    int
	text   string

	schema    symbols.Schema
	table     *symbols.Table
	functions *symbols.Registry
	ternary   bool

	fields    map[string]typing.Type
	constants map[string]any
}

var relational = map[lexer.Kind]coerce.Operator{
	lexer.EQ:  coerce.Equal,
	lexer.NEQ: coerce.NotEqual,
	lexer.LT:  coerce.Less,
	lexer.LE:  coerce.LessOrEqual,
	lexer.GT:  coerce.Greater,
	lexer.GE:  coerce.GreaterOrEqual,
}

func (st *state) peek() lexer.Token {
	return st.tokens[st.pos]
}

func (st *state) next() lexer.Token {
	tok := st.tokens[st.pos]
	if tok.Kind != lexer.EOF {
		st.pos++
	}
	return tok
}

func (st *state) syntaxError(msg string, tok lexer.Token) *schema.ExprError {
	return schema.NewError(schema.ErrCodeSyntax, msg).At(tok.Location).WithExpression(st.text)
}

// parse consumes the whole token stream and checks the result is a bool.
func (st *state) parse() (*node, error) {
	first := st.peek()
	root, err := st.expr()
	if err != nil {
		return nil, err
	}
	if tok := st.peek(); tok.Kind != lexer.EOF {
		return nil, st.syntaxError("Unexpected token: "+tok.Text()+".", tok)
	}
	if !root.typ.Same(typing.BoolType) {
		return nil, schema.NewErrorf(schema.ErrCodeSemantic,
			"Parse fatal error: expression must evaluate to 'bool', found '%s'.", root.typ).
			At(first.Location).
			WithExpression(st.text)
	}
	return root, nil
}

// expr := or ( "?" expr ":" expr )?
func (st *state) expr() (*node, error) {
	cond, err := st.or()
	if err != nil || !st.ternary || st.peek().Kind != lexer.QMARK {
		return cond, err
	}
	st.next()

	thenTok := st.peek()
	then, err := st.expr()
	if err != nil {
		return nil, err
	}
	if tok := st.peek(); tok.Kind != lexer.COLON {
		return nil, st.syntaxError("Expected colon of the conditional expression.", tok)
	}
	st.next()
	otherwise, err := st.expr()
	if err != nil {
		return nil, err
	}

	if err := coerce.Conditional(cond.typ, then.typ, otherwise.typ, cond.loc, thenTok.Location); err != nil {
		return nil, err
	}
	return conditional(cond, then, otherwise), nil
}

// or := and ( "||" or )?
func (st *state) or() (*node, error) {
	return st.logical(lexer.OR, coerce.OrElse, st.and, st.or)
}

// and := not ( "&&" and )?
func (st *state) and() (*node, error) {
	return st.logical(lexer.AND, coerce.AndAlso, st.not, st.and)
}

func (st *state) logical(kind lexer.Kind, op coerce.Operator, operand, rest func() (*node, error)) (*node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	tok := st.peek()
	if tok.Kind != kind {
		return left, nil
	}
	st.next()

	right, err := rest()
	if err != nil {
		return nil, err
	}
	if _, err := coerce.Binary(op, left.typ, right.typ, tok.Location); err != nil {
		return nil, err
	}
	return logical(op, left, right), nil
}

// not := "!" not | rel
func (st *state) not() (*node, error) {
	tok := st.peek()
	if tok.Kind != lexer.NOT {
		return st.rel()
	}
	st.next()

	operand, err := st.not()
	if err != nil {
		return nil, err
	}
	op, err := coerce.Unary(coerce.Not, operand.typ, tok.Location)
	if err != nil {
		return nil, err
	}
	return unary(op, operand, tok.Location), nil
}

// rel := add ( rel-op add )?
func (st *state) rel() (*node, error) {
	left, err := st.add()
	if err != nil {
		return nil, err
	}
	tok := st.peek()
	op, ok := relational[tok.Kind]
	if !ok {
		return left, nil
	}
	st.next()

	right, err := st.add()
	if err != nil {
		return nil, err
	}
	return st.binary(op, left, right, tok)
}

// add := mul ( ("+" | "-") mul )*, folded left to right.
func (st *state) add() (*node, error) {
	return st.fold(st.mul, map[lexer.Kind]coerce.Operator{lexer.ADD: coerce.Add, lexer.SUB: coerce.Subtract})
}

// mul := unary ( ("*" | "/") unary )*, folded left to right.
func (st *state) mul() (*node, error) {
	return st.fold(st.unary, map[lexer.Kind]coerce.Operator{lexer.MUL: coerce.Multiply, lexer.DIV: coerce.Divide})
}

func (st *state) fold(operand func() (*node, error), ops map[lexer.Kind]coerce.Operator) (*node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := st.peek()
		op, ok := ops[tok.Kind]
		if !ok {
			return left, nil
		}
		st.next()

		right, err := operand()
		if err != nil {
			return nil, err
		}
		if left, err = st.binary(op, left, right, tok); err != nil {
			return nil, err
		}
	}
}

func (st *state) binary(op coerce.Operator, left, right *node, tok lexer.Token) (*node, error) {
	operation, err := coerce.Binary(op, left.typ, right.typ, tok.Location)
	if err != nil {
		return nil, err
	}
	return binary(operation, left, right, tok.Location), nil
}

// unary := ("+" | "-")? primary
func (st *state) unary() (*node, error) {
	tok := st.peek()
	var op coerce.Operator
	switch tok.Kind {
	case lexer.ADD:
		op = coerce.UnaryPlus
	case lexer.SUB:
		op = coerce.Negate
	default:
		return st.primary()
	}
	st.next()

	operand, err := st.primary()
	if err != nil {
		return nil, err
	}
	operation, err := coerce.Unary(op, operand.typ, tok.Location)
	if err != nil {
		return nil, err
	}
	return unary(operation, operand, tok.Location), nil
}

// primary := "null" | INT | FLOAT | BOOL | STRING | funcOrIdent | "(" or ")"
func (st *state) primary() (*node, error) {
	tok := st.next()
	switch tok.Kind {
	case lexer.NULL:
		return literalNode(typing.NullType, nil, tok.Location), nil
	case lexer.INT:
		return literalNode(typing.IntType, tok.Value, tok.Location), nil
	case lexer.FLOAT:
		return literalNode(typing.FloatType, tok.Value, tok.Location), nil
	case lexer.BOOL:
		return literalNode(typing.BoolType, tok.Value, tok.Location), nil
	case lexer.STRING:
		return literalNode(typing.StringType, tok.Value, tok.Location), nil
	case lexer.FUNC:
		if st.peek().Kind == lexer.LeftBracket {
			return st.call(tok)
		}
		return st.identifier(tok)
	case lexer.LeftBracket:
		inner, err := st.expr()
		if err != nil {
			return nil, err
		}
		if closing := st.peek(); closing.Kind != lexer.RightBracket {
			return nil, st.syntaxError("Expected closing bracket.", closing)
		}
		st.next()
		return inner, nil
	}
	return nil, st.syntaxError(`Expected "null", int, float, bool, string or func. Unexpected `+tok.Text()+".", tok)
}

// call parses the argument list of a function call and binds it.
func (st *state) call(name lexer.Token) (*node, error) {
	st.next() // (

	var args []*node
	var starts []lexer.Token
	if st.peek().Kind == lexer.RightBracket {
		st.next()
		return st.function(name, args, starts)
	}
	for {
		starts = append(starts, st.peek())
		arg, err := st.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := st.peek()
		switch tok.Kind {
		case lexer.COMMA:
			st.next()
		case lexer.RightBracket:
			st.next()
			return st.function(name, args, starts)
		default:
			return nil, st.syntaxError("Expected comma or closing bracket.", tok)
		}
	}
}
