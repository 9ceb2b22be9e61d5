package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/rendis/expressive/internal/compose"
	"github.com/rendis/expressive/internal/document"
	"github.com/rendis/expressive/internal/reference"
	"github.com/rendis/expressive/pkg/expressive"
	"github.com/rendis/expressive/pkg/schema"
)

// RuleError ties a compile failure to the rule that caused it.
type RuleError struct {
	Index int
	Rule  string
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d %q: %v", e.Index, e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Compiled is a rule set ready for evaluation. Safe for concurrent Evaluate calls.
type Compiled struct {
	set        *RuleSet
	schema     *expressive.DynamicSchema
	predicates []*expressive.Predicate
	messages   []*message
	selector   *document.Selector
	ref        reference.Engine
	logger     *slog.Logger
	warnings   schema.ValidationResult
}

// CompileOption configures a Compiled rule set.
type CompileOption func(*Compiled)

// WithReference cross-checks every rule outcome against ref.
func WithReference(ref reference.Engine) CompileOption {
	return func(c *Compiled) { c.ref = ref }
}

// WithLogger sets the logger evaluation is reported to.
func WithLogger(logger *slog.Logger) CompileOption {
	return func(c *Compiled) { c.logger = logger }
}

// Compile builds the set's symbol table and schema and compiles every rule
// with engine. Enums and constants come from the set unless engine was
// created with its own symbols. Every failing rule is reported as a
// *RuleError joined into the returned error.
func (rs *RuleSet) Compile(engine *expressive.Engine, opts ...CompileOption) (*Compiled, error) {
	s, err := rs.Context.Schema()
	if err != nil {
		return nil, err
	}

	c := &Compiled{
		set:      rs,
		schema:   s,
		selector: document.NewSelector(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var errs []error
	seen := make(map[string]struct{}, len(rs.Rules))
	for i, rule := range rs.Rules {
		if _, dup := seen[rule.Name]; dup {
			errs = append(errs, &RuleError{Index: i, Rule: rule.Name,
				Err: schema.NewErrorf(schema.ErrCodeConflict, "duplicate rule name %q", rule.Name)})
			continue
		}
		seen[rule.Name] = struct{}{}

		pred, err := engine.Parse(s, rule.Expression)
		if err != nil {
			errs = append(errs, &RuleError{Index: i, Rule: rule.Name, Err: err})
			continue
		}
		msg, err := parseMessage(rule.Message)
		if err != nil {
			errs = append(errs, &RuleError{Index: i, Rule: rule.Name, Err: err})
			continue
		}
		c.predicates = append(c.predicates, pred)
		c.messages = append(c.messages, msg)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if rs.Verdict != "" {
		if _, err := compose.Evaluate(rs.Verdict, make([]bool, len(rs.Rules))); err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "verdict %q: %v", rs.Verdict, err).WithCause(err)
		}
	}
	c.lint()
	return c, nil
}

// lint records rules the verdict ignores and declared fields no rule reads.
func (c *Compiled) lint() {
	if c.set.Verdict != "" {
		for i, rule := range c.set.Rules {
			if !strings.Contains(c.set.Verdict, "{"+strconv.Itoa(i)+"}") {
				c.warnings.AddWarning(fmt.Sprintf("rules[%d]", i), schema.ErrCodeValidation,
					fmt.Sprintf("rule %q is not referenced by the verdict", rule.Name))
			}
		}
	}

	used := make(map[string]struct{})
	for _, pred := range c.predicates {
		for path := range pred.Fields() {
			used[path] = struct{}{}
		}
	}
	for _, path := range slices.Sorted(maps.Keys(c.set.Context.Fields)) {
		if _, ok := used[path]; !ok {
			c.warnings.AddWarning("context.fields."+path, schema.ErrCodeValidation,
				fmt.Sprintf("field %q is not read by any rule", path))
		}
	}
}

// Validate compiles the set and reports every problem as an issue, plus the
// warnings of a successful compile.
func (rs *RuleSet) Validate(engine *expressive.Engine) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	c, err := rs.Compile(engine)
	if err == nil {
		result.Merge(&c.warnings)
		return result
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var ruleErr *RuleError
		if errors.As(e, &ruleErr) {
			result.AddCause(fmt.Sprintf("rules[%d]", ruleErr.Index), ruleErr.Err)
			continue
		}
		result.AddCause(rs.Name, e)
	}
	return result
}

// Schema builds the symbol table and dynamic schema the context declares.
func (c Context) Schema() (*expressive.DynamicSchema, error) {
	table := expressive.NewTable()
	for _, name := range slices.Sorted(maps.Keys(c.Enums)) {
		if err := table.AddEnum(name, c.Enums[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Constants)) {
		if err := table.AddConst(name, c.Constants[name]); err != nil {
			return nil, err
		}
	}

	fields := make(map[string]expressive.Type, len(c.Fields))
	for path, spelling := range c.Fields {
		t, ok := expressive.ParseType(spelling)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "field %q: unknown type %q", path, spelling)
		}
		fields[path] = t
	}
	return expressive.NewDynamicSchema(fields, table)
}

// Set returns the rule set the program was compiled from.
func (c *Compiled) Set() *RuleSet {
	return c.set
}

// Warnings returns the non-fatal issues found while compiling.
func (c *Compiled) Warnings() []schema.ValidationIssue {
	return slices.Clone(c.warnings.Warnings)
}

// Predicates returns the compiled rules in declaration order.
func (c *Compiled) Predicates() []*expressive.Predicate {
	return slices.Clone(c.predicates)
}
