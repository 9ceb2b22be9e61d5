package compose

import (
	"fmt"
	"regexp"
	"strconv"
)

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

var defaultTokenizer, _ = NewTokenizer()

// Substitute replaces each {N} placeholder with the literal of results[N].
func Substitute(template string, results []bool) (string, error) {
	var missing error
	out := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(results) {
			if missing == nil {
				missing = fmt.Errorf("%w: %s of %d results", ErrPlaceholder, m, len(results))
			}
			return m
		}
		return strconv.FormatBool(results[n])
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

// Formula evaluates a composition formula of boolean literals.
func Formula(text string) (bool, error) {
	return defaultTokenizer.Formula(text)
}

// Formula evaluates text with the tokenizer's patterns.
func (t *Tokenizer) Formula(text string) (bool, error) {
	tokens, err := t.Tokenize(text)
	if err != nil {
		return false, err
	}
	postfix, err := Postfix(tokens)
	if err != nil {
		return false, err
	}
	return Eval(postfix)
}

// Evaluate substitutes results into the template and evaluates the formula.
func Evaluate(template string, results []bool) (bool, error) {
	formula, err := Substitute(template, results)
	if err != nil {
		return false, err
	}
	return Formula(formula)
}
