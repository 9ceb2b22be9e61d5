package reference

import (
	"context"
	"fmt"
)

// Divergence records a reference engine disagreeing with a native result.
type Divergence struct {
	Engine     string `json:"engine"`
	Expression string `json:"expression"`
	Native     bool   `json:"native"`
	Reference  any    `json:"reference,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (d *Divergence) String() string {
	if d.Error != "" {
		return fmt.Sprintf("%s failed on %q: %s", d.Engine, d.Expression, d.Error)
	}
	return fmt.Sprintf("%s returned %v for %q, native returned %v", d.Engine, d.Reference, d.Expression, d.Native)
}

// CrossCheck evaluates expression with ref and returns a Divergence when the
// reference fails or its result differs from native. Agreement returns nil.
func CrossCheck(ctx context.Context, ref Engine, expression string, data map[string]any, native bool) *Divergence {
	out, err := ref.Evaluate(ctx, expression, data)
	if err != nil {
		return &Divergence{Engine: ref.Name(), Expression: expression, Native: native, Error: err.Error()}
	}
	if b, ok := out.(bool); ok && b == native {
		return nil
	}
	return &Divergence{Engine: ref.Name(), Expression: expression, Native: native, Reference: out}
}
