// Package coerce reconciles operand types for expression operators.
//
// The Type Wall rejects structurally nonsensical combinations (a null literal
// under "<", for instance) before anything is built. The Type Adapter then
// promotes numerics and lifts nullable operands, and Binary/Unary construct the
// runtime operation for the adapted types.
package coerce

import "fmt"

// Operator is a unary or binary expression operator.
type Operator uint8

const (
	// Unary
	Negate Operator = iota
	UnaryPlus
	Not
	OnesComplement

	// Arithmetic
	Add
	Subtract
	Multiply
	Divide
	Modulo

	// Equality and relational
	Equal
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual

	// Logical
	AndAlso
	OrElse

	// Bitwise
	LeftShift
	RightShift
	BitAnd
	BitOr
	ExclusiveOr
)

var symbols = [...]string{
	Negate:         "-",
	UnaryPlus:      "+",
	Not:            "!",
	OnesComplement: "~",
	Add:            "+",
	Subtract:       "-",
	Multiply:       "*",
	Divide:         "/",
	Modulo:         "%",
	Equal:          "==",
	NotEqual:       "!=",
	Less:           "<",
	LessOrEqual:    "<=",
	Greater:        ">",
	GreaterOrEqual: ">=",
	AndAlso:        "&&",
	OrElse:         "||",
	LeftShift:      "<<",
	RightShift:     ">>",
	BitAnd:         "&",
	BitOr:          "|",
	ExclusiveOr:    "^",
}

// String returns the operator spelling.
func (o Operator) String() string {
	if int(o) < len(symbols) {
		return symbols[o]
	}
	return fmt.Sprintf("Operator(%d)", uint8(o))
}

func (o Operator) IsUnary() bool {
	return o <= OnesComplement
}

func (o Operator) IsArithmetic() bool {
	return o >= Add && o <= Modulo
}

func (o Operator) IsEquality() bool {
	return o == Equal || o == NotEqual
}

func (o Operator) IsRelational() bool {
	return o >= Less && o <= GreaterOrEqual
}

func (o Operator) IsLogical() bool {
	return o == AndAlso || o == OrElse
}

func (o Operator) IsBitwise() bool {
	return o >= LeftShift && o <= ExclusiveOr
}
