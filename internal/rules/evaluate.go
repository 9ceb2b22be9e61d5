package rules

import (
	"context"
	"log/slog"

	"github.com/rendis/expressive/internal/compose"
	"github.com/rendis/expressive/internal/logging"
	"github.com/rendis/expressive/internal/reference"
)

// Outcome is the result of one rule on one context object.
type Outcome struct {
	Rule   string `json:"rule"`
	Passed bool   `json:"passed"`
	// Message is the rendered rule message, set when the rule did not pass.
	Message    string                `json:"message,omitempty"`
	Error      string                `json:"error,omitempty"`
	Divergence *reference.Divergence `json:"divergence,omitempty"`
}

// Report collects the outcomes for one selected context object.
type Report struct {
	Object   int       `json:"object"`
	Passed   bool      `json:"passed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the outcomes that did not pass.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Passed {
			out = append(out, o)
		}
	}
	return out
}

// Evaluate selects the context objects from doc and runs every rule on each.
// A rule that fails to evaluate counts as not passed and carries the error.
func (c *Compiled) Evaluate(ctx context.Context, doc any) ([]Report, error) {
	ctx = logging.WithRuleSet(ctx, c.set.Name)

	objects, err := c.selector.Objects(ctx, c.set.Select, doc)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(objects))
	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := c.evaluateObject(logging.WithObject(ctx, i), i, obj)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (c *Compiled) evaluateObject(ctx context.Context, index int, obj map[string]any) (Report, error) {
	report := Report{Object: index, Outcomes: make([]Outcome, len(c.predicates))}
	results := make([]bool, len(c.predicates))

	for i, pred := range c.predicates {
		rule := c.set.Rules[i]
		rctx := logging.WithRule(ctx, rule.Name)
		out := Outcome{Rule: rule.Name}

		passed, err := pred.Eval(obj)
		switch {
		case err != nil:
			out.Error = err.Error()
			c.logger.WarnContext(rctx, "rule evaluation failed", slog.String("error", out.Error))
		default:
			out.Passed = passed
			c.logger.DebugContext(rctx, "rule evaluated", slog.Bool("passed", passed))
		}
		if !out.Passed && rule.Message != "" {
			out.Message = c.message(rctx, i, obj)
		}

		// Reference engines cannot see the symbol table.
		if c.ref != nil && err == nil && len(pred.Constants()) == 0 {
			if d := reference.CrossCheck(rctx, c.ref, rule.Expression, obj, passed); d != nil {
				out.Divergence = d
				c.logger.WarnContext(rctx, "reference engine diverged", slog.String("divergence", d.String()))
			}
		}

		report.Outcomes[i] = out
		results[i] = out.Passed
	}

	if c.set.Verdict == "" {
		report.Passed = len(report.Failed()) == 0
		return report, nil
	}
	verdict, err := compose.Evaluate(c.set.Verdict, results)
	if err != nil {
		return report, err
	}
	report.Passed = verdict
	return report, nil
}

// message renders the message of rule i for obj, falling back to the raw
// text when a reference cannot be resolved.
func (c *Compiled) message(ctx context.Context, i int, obj map[string]any) string {
	rule := c.set.Rules[i]
	text, err := c.messages[i].render(messageScope{Object: obj, Rule: rule, Set: c.set.Name})
	if err != nil {
		c.logger.WarnContext(ctx, "rule message not rendered", slog.String("error", err.Error()))
		return rule.Message
	}
	return text
}
