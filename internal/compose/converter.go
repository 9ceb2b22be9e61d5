package compose

// precedence ranks the operators; brackets and operands are absent.
var precedence = map[string]int{
	"!":  3,
	"&&": 2,
	"||": 1,
}

// Postfix reorders infix tokens into postfix order with the shunting-yard
// algorithm. "!" binds tighter than "&&", which binds tighter than "||".
func Postfix(tokens []string) ([]string, error) {
	out := make([]string, 0, len(tokens))
	var ops []string

	for _, tok := range tokens {
		switch tok {
		case "(":
			ops = append(ops, tok)

		case ")":
			for len(ops) > 0 && ops[len(ops)-1] != "(" {
				out = append(out, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return nil, ErrIncorrectNesting
			}
			ops = ops[:len(ops)-1]
			// A negation applied to the bracket closes with it.
			for len(ops) > 0 && ops[len(ops)-1] == "!" {
				out = append(out, "!")
				ops = ops[:len(ops)-1]
			}

		case "!":
			ops = append(ops, tok)

		case "&&", "||":
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top == "(" || precedence[top] < precedence[tok] {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)

		default:
			out = append(out, tok)
		}
	}

	for len(ops) > 0 {
		top := ops[len(ops)-1]
		if top == "(" {
			return nil, ErrIncorrectNesting
		}
		out = append(out, top)
		ops = ops[:len(ops)-1]
	}
	return out, nil
}
