package compose

import "fmt"

// Eval evaluates postfix tokens. Every token must be consumed.
func Eval(postfix []string) (bool, error) {
	stack := append([]string(nil), postfix...)
	result, err := pop(&stack)
	if err != nil {
		return false, err
	}
	if len(stack) > 0 {
		return false, ErrIncorrectNesting
	}
	return result, nil
}

// pop evaluates the operation on top of the stack: the right operand of a
// binary operator sits above its left one.
func pop(stack *[]string) (bool, error) {
	s := *stack
	if len(s) == 0 {
		return false, ErrStackEmpty
	}
	top := s[len(s)-1]
	*stack = s[:len(s)-1]

	switch top {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "!":
		v, err := pop(stack)
		return !v, err
	case "&&", "||":
		right, err := pop(stack)
		if err != nil {
			return false, err
		}
		left, err := pop(stack)
		if err != nil {
			return false, err
		}
		if top == "&&" {
			return left && right, nil
		}
		return left || right, nil
	}
	return false, fmt.Errorf("%w started at '%s'", ErrUnexpectedToken, top)
}
