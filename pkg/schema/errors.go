package schema

import (
	"fmt"
	"strings"
)

// Error codes for structured error reporting.
const (
	// Parse-time classes: the first failure aborts compilation.
	ErrCodeLexical    = "LEXICAL_ERROR"
	ErrCodeSyntax     = "SYNTAX_ERROR"
	ErrCodeSemantic   = "SEMANTIC_ERROR"
	ErrCodeConversion = "CONVERSION_ERROR"

	ErrCodeEvaluation = "EVALUATION_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeNotFound   = "NOT_FOUND"
)

// ExprError is the structured error type produced by every stage of the engine.
type ExprError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Expression string         `json:"expression,omitempty"`
	Location   Location       `json:"location,omitzero"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *ExprError) Error() string {
	if !e.Location.IsZero() {
		return fmt.Sprintf("[%s] parse error on %s: %s", e.Code, e.Location, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ExprError) Unwrap() error {
	return e.Cause
}

// IsParseError reports whether the error was raised while compiling an expression.
func (e *ExprError) IsParseError() bool {
	switch e.Code {
	case ErrCodeLexical, ErrCodeSyntax, ErrCodeSemantic, ErrCodeConversion:
		return true
	default:
		return false
	}
}

// Excerpt renders the offending source line followed by a caret marker under
// the error column. Returns the plain message when no location or source is known.
func (e *ExprError) Excerpt() string {
	if e.Location.IsZero() || e.Expression == "" {
		return e.Message
	}
	lines := strings.Split(e.Expression, "\n")
	idx := e.Location.Line - 1
	if idx < 0 || idx >= len(lines) {
		return e.Message
	}
	line := strings.TrimRight(lines[idx], "\r")
	col := e.Location.Column - 1
	if col < 0 {
		col = 0
	}
	var b strings.Builder
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", col))
	b.WriteString("^--- ")
	b.WriteString(e.Message)
	return b.String()
}

// NewError creates a new ExprError.
func NewError(code, message string) *ExprError {
	return &ExprError{Code: code, Message: message}
}

// NewErrorf creates a new ExprError with a formatted message.
func NewErrorf(code, format string, args ...any) *ExprError {
	return &ExprError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// At attaches the source location of the offending token.
func (e *ExprError) At(loc Location) *ExprError {
	e.Location = loc
	return e
}

// WithExpression attaches the full expression text.
func (e *ExprError) WithExpression(expr string) *ExprError {
	e.Expression = expr
	return e
}

// WithCause attaches an underlying cause.
func (e *ExprError) WithCause(err error) *ExprError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ExprError) WithDetails(details map[string]any) *ExprError {
	e.Details = details
	return e
}
