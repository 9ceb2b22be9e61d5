package coerce

import "github.com/rendis/expressive/internal/typing"

// Adapt returns the types both operands must be converted to before the
// operation is built.
//
// Two non-floating numerics keep their type unless the operator divides;
// division or any floating side promotes both to float64. A value type met by
// its own nullable form is lifted, and so are time/duration pairings.
func Adapt(op Operator, left, right typing.Type) (typing.Type, typing.Type) {
	nullable := left.Nullable || right.Nullable

	switch {
	case left.IsNumeric() && right.IsNumeric():
		kind := typing.Int
		if op == Divide || left.Kind == typing.Float || right.Kind == typing.Float {
			kind = typing.Float
		}
		t := typing.Type{Kind: kind, Nullable: nullable}
		return t, t

	case left.IsTemporal() && right.IsTemporal():
		if nullable {
			return left.Lift(), right.Lift()
		}
		return left, right

	case left.IsValueType() && left.Underlying().Same(right.Underlying()):
		if nullable {
			return left.Lift(), right.Lift()
		}
		return left, right
	}

	return left, right
}

// AdaptUnary returns the operand type a unary operator works on.
func AdaptUnary(op Operator, operand typing.Type) typing.Type {
	if operand.IsNumeric() {
		return typing.Type{Kind: operand.Kind, Nullable: operand.Nullable}
	}
	return operand
}
