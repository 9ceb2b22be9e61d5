// Package lexer turns expression source text into a sequence of located tokens.
//
// Tokens are recognized with an ordered table of anchored patterns: the first
// pattern matching at the cursor wins, so multi-character operators precede
// their single-character prefixes and the boolean/null keywords precede
// generic identifiers.
package lexer

import (
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/rendis/expressive/pkg/schema"
)

// Newline replaces the \n escape inside string literals.
var Newline = hostNewline()

func hostNewline() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// rule pairs a token kind with the anchored pattern recognizing it.
// Skip rules only advance the cursor.
type rule struct {
	kind    Kind
	pattern *regexp.Regexp
	skip    bool
}

func newRule(kind Kind, pattern string) rule {
	return rule{kind: kind, pattern: regexp.MustCompile(`^(?:` + pattern + `)`)}
}

var baseRules = []rule{
	{pattern: regexp.MustCompile(`^\s+`), skip: true},
	newRule(AND, `&&`),
	newRule(OR, `\|\|`),
	newRule(EQ, `==`),
	newRule(NEQ, `!=`),
	newRule(GE, `>=`),
	newRule(LE, `<=`),
	newRule(NOT, `!`),
	newRule(GT, `>`),
	newRule(LT, `<`),
	newRule(ADD, `\+`),
	newRule(SUB, `-`),
	newRule(MUL, `\*`),
	newRule(DIV, `/`),
	newRule(LeftBracket, `\(`),
	newRule(RightBracket, `\)`),
	newRule(COMMA, `,`),
	newRule(BOOL, `(?:true|false)\b`),
	newRule(NULL, `null\b`),
	newRule(FLOAT, `(?:[0-9]+\.[0-9]+|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`),
	newRule(INT, `[0-9]+`),
	newRule(STRING, `'(?s:\\.|[^'\\])*'`),
	newRule(FUNC, `[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`),
}

var conditionalRules = []rule{
	newRule(QMARK, `\?`),
	newRule(COLON, `:`),
}

// Lexer holds the ordered pattern table. It is stateless between calls and
// safe for concurrent use.
type Lexer struct {
	rules []rule
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithConditional enables the "?" and ":" tokens of the conditional extension.
func WithConditional() Option {
	return func(l *Lexer) {
		l.rules = append(l.rules, conditionalRules...)
	}
}

// New creates a Lexer recognizing the base grammar plus any enabled extension.
func New(opts ...Option) *Lexer {
	l := &Lexer{rules: append([]rule(nil), baseRules...)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var defaultLexer = New()

// Analyze tokenizes text with the base grammar.
func Analyze(text string) ([]Token, error) {
	return defaultLexer.Analyze(text)
}

// Analyze tokenizes text. The returned slice always ends with an EOF token.
// It fails at the first character span no pattern recognizes.
func (l *Lexer) Analyze(text string) ([]Token, error) {
	var tokens []Token
	loc := schema.Start
	rest := text

	for rest != "" {
		matched := false
		for _, r := range l.rules {
			span := r.pattern.FindString(rest)
			if span == "" {
				continue
			}
			matched = true
			if !r.skip {
				tok, err := newToken(r.kind, span, loc)
				if err != nil {
					return nil, err.WithExpression(text)
				}
				tokens = append(tokens, tok)
			}
			loc = loc.Advance(span)
			rest = rest[len(span):]
			break
		}
		if !matched {
			return nil, schema.NewError(schema.ErrCodeLexical, "Invalid token.").
				At(loc).
				WithExpression(text)
		}
	}

	return append(tokens, Token{Kind: EOF, Value: "", Location: loc}), nil
}

func newToken(kind Kind, span string, loc schema.Location) (Token, *schema.ExprError) {
	tok := Token{Kind: kind, Location: loc}
	switch kind {
	case INT:
		v, err := strconv.ParseInt(span, 10, 64)
		if err != nil {
			return tok, schema.NewError(schema.ErrCodeLexical, "Integral constant is too large.").At(loc).WithCause(err)
		}
		tok.Value = v
	case FLOAT:
		v, err := strconv.ParseFloat(span, 64)
		if err != nil {
			return tok, schema.NewError(schema.ErrCodeLexical, "Floating-point constant is out of range.").At(loc).WithCause(err)
		}
		tok.Value = v
	case BOOL:
		tok.Value = span == "true"
	case NULL:
		tok.Value = nil
	case STRING:
		tok.Value = unescape(span[1 : len(span)-1])
	default:
		tok.Value = span
	}
	return tok, nil
}

// unescape resolves \' \\ and \n. Any other backslash pair is kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteString(Newline)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i+1])
		}
		i++
	}
	return b.String()
}
