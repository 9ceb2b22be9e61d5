package toolchain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/expressive/internal/compiler"
	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/pkg/schema"
)

type registrar struct{ *symbols.Registry }

func (r registrar) RegisterFunction(name string, fn any) error { return r.Register(name, fn) }

type profile struct {
	Name     *string
	Email    string
	Born     time.Time
	Deadline *time.Time
	ID       uuid.UUID
}

var fixedNow = time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)

func newCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	r := symbols.NewRegistry()
	require.NoError(t, Register(registrar{r}, WithClock(func() time.Time { return fixedNow })))
	return compiler.New(compiler.WithFunctions(r))
}

func run(t *testing.T, text string, ctx profile) (bool, error) {
	t.Helper()
	prog, err := newCompiler(t).Compile(symbols.SchemaOf[profile](nil), text)
	require.NoError(t, err, text)
	return prog.Eval(ctx)
}

func TestRegister(t *testing.T) {
	r := symbols.NewRegistry()
	require.NoError(t, Register(registrar{r}))
	assert.Equal(t, len(Names()), r.Count())
	assert.Len(t, symbols.WithArity(r.Lookup("Date"), 3), 1)
	assert.Len(t, symbols.WithArity(r.Lookup("Date"), 6), 1)
	assert.Len(t, symbols.WithArity(r.Lookup("Concat"), 2), 1)
	assert.Len(t, symbols.WithArity(r.Lookup("Concat"), 3), 1)

	r.Close()
	assert.Error(t, Register(registrar{r}))
}

// --- Dates ---

func TestDates(t *testing.T) {
	ctx := profile{Born: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)}
	tests := []string{
		"Now() == Date(2024, 3, 15, 13, 45, 0)",
		"Today() == Date(2024, 3, 15)",
		"Born < Today()",
		"Born == ToDate('1990-05-01')",
		"ToDate('2024-03-15T13:45:00Z') == Now()",
		"Today() - Born > TimeSpan(365, 0, 0, 0)",
		"Born + TimeSpan(1, 0, 0, 0) == Date(1990, 5, 2)",
		"Now() - TimeSpan(0, 13, 45, 0) == Today()",
		"Deadline == null",
		"!(Deadline < Now())",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			out, err := run(t, text, ctx)
			require.NoError(t, err)
			assert.True(t, out)
		})
	}
}

func TestDates_Invalid(t *testing.T) {
	for _, text := range []string{"Date(2024, 2, 30) == Now()", "ToDate('yesterday') == Now()", "ToDate(Name) == Now()"} {
		t.Run(text, func(t *testing.T) {
			_, err := run(t, text, profile{})
			var exprErr *schema.ExprError
			require.True(t, errors.As(err, &exprErr))
			assert.Equal(t, schema.ErrCodeEvaluation, exprErr.Code)
		})
	}
}

// --- Strings ---

func TestStrings(t *testing.T) {
	name := "  Ann  "
	tests := []struct {
		text string
		name *string
		want bool
	}{
		{"Length(Name) == 7", &name, true},
		{"Length(Name) == 0", nil, true},
		{"Length('żółw') == 4", nil, true},
		{"Trim(Name) == 'Ann'", &name, true},
		{"Trim(Name) == null", nil, true},
		{"Concat('a', Name) == 'a'", nil, true},
		{"Concat('a', 'b', 'c') == 'abc'", nil, true},
		{"CompareOrdinal('a', 'b') == -1", nil, true},
		{"CompareOrdinal('B', 'a') < 0", nil, true},
		{"CompareOrdinalIgnoreCase('B', 'a') == 1", nil, true},
		{"CompareOrdinal(Name, 'a') == -1", nil, true},
		{"CompareOrdinal(null, null) == 0", nil, true},
		{"StartsWith('hello', 'he')", nil, true},
		{"StartsWith('hello', 'HE')", nil, false},
		{"StartsWithIgnoreCase('hello', 'HE')", nil, true},
		{"EndsWith('hello', 'lo')", nil, true},
		{"EndsWithIgnoreCase('hello', 'LO')", nil, true},
		{"Contains('hello', 'ell')", nil, true},
		{"ContainsIgnoreCase('hello', 'ELL')", nil, true},
		{"Contains(Name, 'a')", nil, false},
		{"IsNullOrWhiteSpace(Name)", nil, true},
		{"IsNullOrWhiteSpace('  ')", nil, true},
		{"IsNullOrWhiteSpace(Name)", &name, false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			out, err := run(t, tc.text, profile{Name: tc.name})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

// --- Checks ---

func TestChecks(t *testing.T) {
	tests := []struct {
		fn    string
		input string
		want  bool
	}{
		{"IsDigitChain", "0123", true},
		{"IsDigitChain", "12a", false},
		{"IsDigitChain", "", false},
		{"IsNumber", "-1.5e3", true},
		{"IsNumber", ".5", true},
		{"IsNumber", "+7", true},
		{"IsNumber", "1.", false},
		{"IsNumber", "abc", false},
		{"IsEmail", "ann@example.com", true},
		{"IsEmail", "ann.smith+tag@mail.example.org", true},
		{"IsEmail", "ann@", false},
		{"IsEmail", "@example.com", false},
		{"IsPhone", "+48 123 456 789", true},
		{"IsPhone", "(22) 555-0100 ext. 12", true},
		{"IsPhone", "phone", false},
		{"IsUrl", "https://example.com/path?q=1", true},
		{"IsUrl", "ftp://files.example.com", true},
		{"IsUrl", "example.com", false},
		{"IsUrl", "mailto:ann@example.com", false},
	}
	for _, tc := range tests {
		t.Run(tc.fn+"/"+tc.input, func(t *testing.T) {
			out, err := run(t, tc.fn+"('"+tc.input+"')", profile{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}

	for _, fn := range []string{"IsDigitChain", "IsNumber", "IsEmail", "IsPhone", "IsUrl"} {
		out, err := run(t, fn+"(Name)", profile{})
		require.NoError(t, err)
		assert.False(t, out, fn)
	}
}

func TestIsRegexMatch(t *testing.T) {
	for range 2 {
		out, err := run(t, "IsRegexMatch(Email, '^[a-z]+@corp\\\\.io$')", profile{Email: "ann@corp.io"})
		require.NoError(t, err)
		assert.True(t, out)
	}

	out, err := run(t, "IsRegexMatch(Name, '.*')", profile{})
	require.NoError(t, err)
	assert.False(t, out)

	_, err = run(t, "IsRegexMatch('a', '(')", profile{})
	var exprErr *schema.ExprError
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, schema.ErrCodeEvaluation, exprErr.Code)
}

func TestGuid(t *testing.T) {
	id := uuid.New()
	out, err := run(t, "ID == Guid('"+id.String()+"')", profile{ID: id})
	require.NoError(t, err)
	assert.True(t, out)

	out, err = run(t, "ID != Guid('"+uuid.NewString()+"')", profile{ID: id})
	require.NoError(t, err)
	assert.True(t, out)

	_, err = run(t, "ID == Guid('nope')", profile{ID: id})
	assert.Error(t, err)
}
