package coerce

import (
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// CheckUnary rejects a unary operator applied to the null literal.
func CheckUnary(op Operator, operand typing.Type, loc schema.Location) error {
	if operand.Kind == typing.Null {
		return unaryMismatch(op, operand, loc)
	}
	return nil
}

// CheckBinary rejects operand combinations that can never form an operation.
// Every operator but equality refuses a null literal on either side; equality
// refuses null only against a non-nullable value type.
func CheckBinary(op Operator, left, right typing.Type, loc schema.Location) error {
	leftNull := left.Kind == typing.Null
	rightNull := right.Kind == typing.Null
	if !leftNull && !rightNull {
		return nil
	}

	if !op.IsEquality() {
		return binaryMismatch(op, left, right, loc)
	}
	if leftNull && !right.AcceptsNull() {
		return binaryMismatch(op, left, right, loc)
	}
	if rightNull && !left.AcceptsNull() {
		return binaryMismatch(op, left, right, loc)
	}
	return nil
}

// Conditional checks the condition and branch types of a ternary construct.
func Conditional(cond, then, otherwise typing.Type, condLoc, branchLoc schema.Location) error {
	if !cond.Same(typing.BoolType) {
		return schema.NewErrorf(schema.ErrCodeSemantic,
			"Argument of the conditional expression must be of type 'bool', found '%s'.", cond).
			At(condLoc)
	}
	if !then.Same(otherwise) {
		return schema.NewErrorf(schema.ErrCodeSemantic,
			"Types of the conditional expression branches must match: '%s' and '%s'.", then, otherwise).
			At(branchLoc)
	}
	return nil
}

func unaryMismatch(op Operator, operand typing.Type, loc schema.Location) *schema.ExprError {
	return schema.NewErrorf(schema.ErrCodeSemantic,
		"Operator '%s' cannot be applied to operand of type '%s'.", op, operand).
		At(loc).
		WithDetails(map[string]any{"operator": op.String(), "operand": operand.String()})
}

func binaryMismatch(op Operator, left, right typing.Type, loc schema.Location) *schema.ExprError {
	return schema.NewErrorf(schema.ErrCodeSemantic,
		"Operator '%s' cannot be applied to operands of type '%s' and '%s'.", op, left, right).
		At(loc).
		WithDetails(map[string]any{"operator": op.String(), "left": left.String(), "right": right.String()})
}
