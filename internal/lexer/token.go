package lexer

import (
	"fmt"

	"github.com/rendis/expressive/pkg/schema"
)

// Kind identifies the lexical class of a token.
type Kind uint8

const (
	EOF Kind = iota

	// Logical
	AND // &&
	OR  // ||
	NOT // !

	// Relational
	EQ  // ==
	NEQ // !=
	LT  // <
	LE  // <=
	GT  // >
	GE  // >=

	// Arithmetic
	ADD // +
	SUB // -
	MUL // *
	DIV // /

	LeftBracket  // (
	RightBracket // )
	COMMA        // ,

	// Literals
	NULL
	INT
	FLOAT
	BOOL
	STRING
	FUNC // identifier, dotted property path or function name

	// Conditional extension
	QMARK // ?
	COLON // :
)

// String returns the spelling of operator kinds and a class name for literals.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case AND:
		return "&&"
	case OR:
		return "||"
	case NOT:
		return "!"
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case ADD:
		return "+"
	case SUB:
		return "-"
	case MUL:
		return "*"
	case DIV:
		return "/"
	case LeftBracket:
		return "("
	case RightBracket:
		return ")"
	case COMMA:
		return ","
	case NULL:
		return "null"
	case INT:
		return "int"
	case FLOAT:
		return "float"
	case BOOL:
		return "bool"
	case STRING:
		return "string"
	case FUNC:
		return "func"
	case QMARK:
		return "?"
	case COLON:
		return ":"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Token is a located lexical token. Value holds int64 for INT, float64 for
// FLOAT, bool for BOOL, the unescaped text for STRING, the identifier for FUNC,
// nil for NULL and the spelling for everything else.
type Token struct {
	Kind     Kind
	Value    any
	Location schema.Location
}

// Text returns the token as it should appear inside error messages.
func (t Token) Text() string {
	switch t.Kind {
	case EOF:
		return "end of expression"
	case STRING:
		return fmt.Sprintf("'%v'", t.Value)
	case NULL:
		return `"null"`
	default:
		return fmt.Sprintf(`"%v"`, t.Value)
	}
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%v)@%d:%d", t.Kind, t.Value, t.Location.Line, t.Location.Column)
}
