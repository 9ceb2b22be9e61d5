// Package compose evaluates composition templates: boolean formulas over
// precomputed results such as "({0} || {1}) && !{2}".
package compose

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrUnexpectedToken reports input no token pattern recognizes.
	ErrUnexpectedToken = errors.New("unexpected token")
	// ErrIncorrectNesting reports unbalanced brackets or operands left over
	// after evaluation.
	ErrIncorrectNesting = errors.New("incorrect nesting")
	// ErrStackEmpty reports an operator missing an operand.
	ErrStackEmpty = errors.New("stack empty")
	// ErrPlaceholder reports a placeholder without a matching result.
	ErrPlaceholder = errors.New("placeholder without result")
)

// DefaultPatterns are the token patterns of the composition language, tried
// in order.
var DefaultPatterns = []string{`true`, `false`, `&&`, `\|\|`, `!`, `\(`, `\)`}

// Tokenizer splits a formula into tokens by an ordered pattern list.
type Tokenizer struct {
	patterns []*regexp.Regexp
}

// NewTokenizer compiles the patterns, anchoring each at the read position.
// Without patterns it uses DefaultPatterns.
func NewTokenizer(patterns ...string) (*Tokenizer, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	t := &Tokenizer{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("compile token pattern %q: %w", p, err)
		}
		t.patterns = append(t.patterns, re)
	}
	return t, nil
}

// Tokenize returns the tokens of text, skipping whitespace.
func (t *Tokenizer) Tokenize(text string) ([]string, error) {
	var tokens []string
	rest := strings.TrimLeftFunc(text, unicode.IsSpace)
	for rest != "" {
		matched := ""
		for _, re := range t.patterns {
			if m := re.FindString(rest); m != "" {
				matched = m
				break
			}
		}
		if matched == "" {
			return nil, fmt.Errorf("%w started at '%s'", ErrUnexpectedToken, rest)
		}
		tokens = append(tokens, matched)
		rest = strings.TrimLeftFunc(rest[len(matched):], unicode.IsSpace)
	}
	return tokens, nil
}
