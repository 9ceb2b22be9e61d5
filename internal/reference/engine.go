// Package reference evaluates expressions with third-party engines so the
// native compiler's results can be cross-checked.
package reference

import "context"

// Engine evaluates an expression against a decoded context object.
// Two implementations: Expr (expr-lang) and CEL.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// New returns the engine registered under name: "expr" or "cel".
func New(name string) (Engine, bool) {
	switch name {
	case "expr":
		return NewExprEngine(), true
	case "cel":
		return NewCELEngine(), true
	default:
		return nil, false
	}
}
