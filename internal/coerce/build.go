package coerce

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

// ErrDivideByZero is returned by integer modulo with a zero divisor.
var ErrDivideByZero = errors.New("integer divide by zero")

// Operation is a constructed binary operation. Apply expects values already
// converted to Left and Right.
type Operation struct {
	Left   typing.Type
	Right  typing.Type
	Result typing.Type
	Apply  func(a, b any) (any, error)
}

// UnaryOperation is a constructed unary operation.
type UnaryOperation struct {
	Operand typing.Type
	Result  typing.Type
	Apply   func(v any) (any, error)
}

// Binary validates, adapts and constructs a binary operation. A "+" with a
// textual operand lowers to concatenation, where null reads as empty text;
// this is decided before the null-literal guard.
func Binary(op Operator, left, right typing.Type, loc schema.Location) (Operation, error) {
	if op == Add && (left.Kind == typing.String || right.Kind == typing.String) {
		return Operation{Left: left, Right: right, Result: typing.StringType, Apply: concat}, nil
	}

	if err := CheckBinary(op, left, right, loc); err != nil {
		return Operation{}, err
	}

	l, r := Adapt(op, left, right)
	operation, ok := construct(op, l, r)
	if !ok {
		return Operation{}, binaryMismatch(op, left, right, loc)
	}
	operation.Left, operation.Right = l, r
	return operation, nil
}

// Unary validates and constructs a unary operation.
func Unary(op Operator, operand typing.Type, loc schema.Location) (UnaryOperation, error) {
	if err := CheckUnary(op, operand, loc); err != nil {
		return UnaryOperation{}, err
	}
	t := AdaptUnary(op, operand)

	switch {
	case op == Not && t.Same(typing.BoolType):
		return UnaryOperation{Operand: t, Result: t, Apply: func(v any) (any, error) {
			return !v.(bool), nil
		}}, nil

	case op == UnaryPlus && (t.IsNumeric() || t.Kind == typing.Duration):
		return UnaryOperation{Operand: t, Result: t, Apply: func(v any) (any, error) { return v, nil }}, nil

	case op == Negate && (t.IsNumeric() || t.Kind == typing.Duration):
		return UnaryOperation{Operand: t, Result: t, Apply: lifted1(func(v any) any {
			switch n := v.(type) {
			case int64:
				return -n
			case float64:
				return -n
			case time.Duration:
				return -n
			}
			return nil
		})}, nil

	case op == OnesComplement && t.Kind == typing.Int:
		return UnaryOperation{Operand: t, Result: t, Apply: lifted1(func(v any) any {
			return ^v.(int64)
		})}, nil
	}

	return UnaryOperation{}, unaryMismatch(op, operand, loc)
}

func construct(op Operator, l, r typing.Type) (Operation, bool) {
	switch {
	case op.IsLogical():
		return logical(op, l, r)
	case op.IsEquality():
		return equality(op, l, r)
	case op.IsRelational():
		return relational(op, l, r)
	case op.IsArithmetic():
		return arithmetic(op, l, r)
	case op.IsBitwise():
		return bitwise(op, l, r)
	}
	return Operation{}, false
}

func logical(op Operator, l, r typing.Type) (Operation, bool) {
	if !l.Same(typing.BoolType) || !r.Same(typing.BoolType) {
		return Operation{}, false
	}
	apply := func(a, b any) (any, error) { return a.(bool) && b.(bool), nil }
	if op == OrElse {
		apply = func(a, b any) (any, error) { return a.(bool) || b.(bool), nil }
	}
	return Operation{Result: typing.BoolType, Apply: apply}, true
}

func equality(op Operator, l, r typing.Type) (Operation, bool) {
	ok := l.Kind == typing.Null || r.Kind == typing.Null ||
		l.Kind == typing.Any || r.Kind == typing.Any ||
		l.Underlying().Same(r.Underlying())
	if !ok {
		return Operation{}, false
	}
	apply := func(a, b any) (any, error) { return equal(a, b), nil }
	if op == NotEqual {
		apply = func(a, b any) (any, error) { return !equal(a, b), nil }
	}
	return Operation{Result: typing.BoolType, Apply: apply}, true
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case int64:
		if y, ok := b.(float64); ok {
			return float64(x) == y
		}
	case float64:
		if y, ok := b.(int64); ok {
			return x == float64(y)
		}
	}
	return reflect.DeepEqual(a, b)
}

func relational(op Operator, l, r typing.Type) (Operation, bool) {
	ordered := l.IsNumeric() || l.IsTemporal() || l.Kind == typing.Enum
	if !ordered || !l.Underlying().Same(r.Underlying()) {
		return Operation{}, false
	}
	return Operation{
		Result: typing.BoolType,
		Apply: func(a, b any) (any, error) {
			if a == nil || b == nil {
				return false, nil
			}
			return holds(op, compare(a, b)), nil
		},
	}, true
}

// compare orders two adapted operands. Unordered floats (NaN) report 2 so
// that no relational operator holds.
func compare(a, b any) int {
	switch x := a.(type) {
	case int64:
		return cmp.Compare(x, b.(int64))
	case float64:
		y := b.(float64)
		if math.IsNaN(x) || math.IsNaN(y) {
			return 2
		}
		return cmp.Compare(x, y)
	case time.Duration:
		return cmp.Compare(x, b.(time.Duration))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

func holds(op Operator, c int) bool {
	if c == 2 {
		return false
	}
	switch op {
	case Less:
		return c < 0
	case LessOrEqual:
		return c <= 0
	case Greater:
		return c > 0
	case GreaterOrEqual:
		return c >= 0
	}
	return false
}

func arithmetic(op Operator, l, r typing.Type) (Operation, bool) {
	nullable := l.Nullable || r.Nullable

	switch {
	case l.Kind == typing.Int && r.Kind == typing.Int:
		return Operation{Result: typing.Type{Kind: typing.Int, Nullable: nullable}, Apply: lifted2(func(a, b any) (any, error) {
			x, y := a.(int64), b.(int64)
			switch op {
			case Add:
				return x + y, nil
			case Subtract:
				return x - y, nil
			case Multiply:
				return x * y, nil
			case Modulo:
				if y == 0 {
					return nil, ErrDivideByZero
				}
				return x % y, nil
			}
			return nil, fmt.Errorf("unsupported integer operator %s", op)
		})}, op != Divide

	case l.Kind == typing.Float && r.Kind == typing.Float:
		return Operation{Result: typing.Type{Kind: typing.Float, Nullable: nullable}, Apply: lifted2(func(a, b any) (any, error) {
			x, y := a.(float64), b.(float64)
			switch op {
			case Add:
				return x + y, nil
			case Subtract:
				return x - y, nil
			case Multiply:
				return x * y, nil
			case Divide:
				return x / y, nil
			case Modulo:
				return math.Mod(x, y), nil
			}
			return nil, fmt.Errorf("unsupported float operator %s", op)
		})}, true
	}

	return temporal(op, l, r, nullable)
}

func temporal(op Operator, l, r typing.Type, nullable bool) (Operation, bool) {
	result := func(k typing.Kind) typing.Type { return typing.Type{Kind: k, Nullable: nullable} }

	switch {
	case l.Kind == typing.Time && r.Kind == typing.Time && op == Subtract:
		return Operation{Result: result(typing.Duration), Apply: lifted2(func(a, b any) (any, error) {
			return a.(time.Time).Sub(b.(time.Time)), nil
		})}, true

	case l.Kind == typing.Time && r.Kind == typing.Duration && (op == Add || op == Subtract):
		return Operation{Result: result(typing.Time), Apply: lifted2(func(a, b any) (any, error) {
			d := b.(time.Duration)
			if op == Subtract {
				d = -d
			}
			return a.(time.Time).Add(d), nil
		})}, true

	case l.Kind == typing.Duration && r.Kind == typing.Time && op == Add:
		return Operation{Result: result(typing.Time), Apply: lifted2(func(a, b any) (any, error) {
			return b.(time.Time).Add(a.(time.Duration)), nil
		})}, true

	case l.Kind == typing.Duration && r.Kind == typing.Duration && (op == Add || op == Subtract):
		return Operation{Result: result(typing.Duration), Apply: lifted2(func(a, b any) (any, error) {
			if op == Subtract {
				return a.(time.Duration) - b.(time.Duration), nil
			}
			return a.(time.Duration) + b.(time.Duration), nil
		})}, true
	}
	return Operation{}, false
}

func bitwise(op Operator, l, r typing.Type) (Operation, bool) {
	if l.Kind != typing.Int || r.Kind != typing.Int {
		return Operation{}, false
	}
	return Operation{Result: typing.Type{Kind: typing.Int, Nullable: l.Nullable || r.Nullable}, Apply: lifted2(func(a, b any) (any, error) {
		x, y := a.(int64), b.(int64)
		switch op {
		case LeftShift:
			return x << uint64(y&63), nil
		case RightShift:
			return x >> uint64(y&63), nil
		case BitAnd:
			return x & y, nil
		case BitOr:
			return x | y, nil
		case ExclusiveOr:
			return x ^ y, nil
		}
		return nil, fmt.Errorf("unsupported bitwise operator %s", op)
	})}, true
}

// lifted2 yields nil when either operand is nil.
func lifted2(f func(a, b any) (any, error)) func(a, b any) (any, error) {
	return func(a, b any) (any, error) {
		if a == nil || b == nil {
			return nil, nil
		}
		return f(a, b)
	}
}

func lifted1(f func(v any) any) func(v any) (any, error) {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		return f(v), nil
	}
}

func concat(a, b any) (any, error) {
	return Text(a) + Text(b), nil
}

// Text renders a runtime value for string concatenation. Nil is empty text.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
