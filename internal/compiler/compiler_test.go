package compiler

import (
	"errors"
	"testing"

	"github.com/expr-lang/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

type stability int

const (
	low stability = iota
	high
)

type address struct {
	City   string
	Number int
	Zip    *int
}

type applicant struct {
	GoAbroad    bool
	Age         int
	NullableAge *int
	Flag        bool
	Name        string
	Score       float64
	Level       stability
	Address     *address
}

func (a applicant) Older(years int) bool { return a.Age > years }

func (a applicant) Shout(s string) string { return s + "!" }

func newTable(t *testing.T) *symbols.Table {
	t.Helper()
	tbl := symbols.NewTable()
	require.NoError(t, symbols.BindEnum(tbl, "Model.Stability", map[string]stability{"Low": low, "High": high}))
	require.NoError(t, tbl.AddEnum("Legacy.Stability", map[string]int64{"High": 9}))
	require.NoError(t, tbl.AddConst("Limits.MaxAge", 55))
	require.NoError(t, tbl.AddConst("Limits.Country", "NO"))
	require.NoError(t, tbl.AddConst("Limits.Other.MaxAge", 60))
	return tbl
}

func compile(t *testing.T, text string, opts ...Option) *Program {
	t.Helper()
	prog, err := New(opts...).Compile(symbols.SchemaOf[applicant](newTable(t)), text)
	require.NoError(t, err, text)
	return prog
}

func eval(t *testing.T, text string, ctx any, opts ...Option) bool {
	t.Helper()
	out, err := compile(t, text, opts...).Eval(ctx)
	require.NoError(t, err, text)
	return out
}

func compileErr(t *testing.T, c *Compiler, text string) *schema.ExprError {
	t.Helper()
	_, err := c.Compile(symbols.SchemaOf[applicant](newTable(t)), text)
	require.Error(t, err, text)
	var exprErr *schema.ExprError
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, text, exprErr.Expression)
	return exprErr
}

// --- Literals and arithmetic ---

func TestCompile_Literals(t *testing.T) {
	tests := []string{
		"1/2 == 0.5",
		"4/2*2 == 4",
		"1 + 2 * 3 == 7",
		"(1 + 2) * 3 == 9",
		"10 - 2 - 3 == 5",
		"8 / 2 / 2 == 2",
		"-1 < 0",
		"+1 == 1",
		"-(2 - 3) == 1",
		"1.5e1 == 15",
		".5 == 0.5",
		"!false",
		"!!true",
		"!(1 > 2)",
		"!1 > 2",
		"'a' + 0 + 'ab' + null + 'abc' == 'a0ababc'",
		"'x' + 1.5 + true == 'x1.5true'",
		"null == null",
		"'a' != null",
		"'it\\'s' == 'it' + '\\'' + 's'",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			assert.True(t, eval(t, text, applicant{}))
		})
	}
}

func TestCompile_ArithmeticMatchesExpr(t *testing.T) {
	tests := []string{
		"1/2 == 0.5",
		"4/2*2 == 4",
		"7 - 2 - 3 == 2",
		"2 * 3 + 4 == 10",
		"1.5 + 1 == 2.5",
		"10 / 4 == 2.5",
		"3 - 5 < 0",
		"2 * (3 + 4) >= 14",
		"9 / 3 / 3 == 1",
		"0.1 + 0.2 == 0.3",
		"1 + 2 * 3 - 4 / 2 == 5",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			want, err := expr.Eval(text, nil)
			require.NoError(t, err)
			assert.Equal(t, want, eval(t, text, applicant{}))
		})
	}
}

func TestCompile_FoldsLiterals(t *testing.T) {
	prog := compile(t, "1 + 2 == 3 && !false")
	assert.Empty(t, prog.Fields)

	out, err := prog.Eval(nil)
	require.NoError(t, err)
	assert.True(t, out)
}

// --- Fields ---

func TestCompile_GoAbroad(t *testing.T) {
	text := "GoAbroad == true && (Age > 24 && Age <= 55)"
	prog := compile(t, text)

	require.Len(t, prog.Fields, 2)
	assert.True(t, prog.Fields["GoAbroad"].Same(typing.BoolType))
	assert.True(t, prog.Fields["Age"].Same(typing.IntType))

	tests := []struct {
		ctx  applicant
		want bool
	}{
		{applicant{GoAbroad: true, Age: 30}, true},
		{applicant{GoAbroad: true, Age: 24}, false},
		{applicant{GoAbroad: true, Age: 55}, true},
		{applicant{GoAbroad: true, Age: 56}, false},
		{applicant{GoAbroad: false, Age: 30}, false},
	}
	for _, tc := range tests {
		out, err := prog.Eval(tc.ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out, "%+v", tc.ctx)

		out, err = prog.Eval(&tc.ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.want, out)
	}
}

func TestCompile_NullableFields(t *testing.T) {
	age := 40
	assert.True(t, eval(t, "NullableAge == null", applicant{}))
	assert.False(t, eval(t, "NullableAge == null", applicant{NullableAge: &age}))
	assert.True(t, eval(t, "NullableAge > 30", applicant{NullableAge: &age}))
	assert.False(t, eval(t, "NullableAge > 30", applicant{}))
	assert.True(t, eval(t, "NullableAge == Age", applicant{NullableAge: &age, Age: 40}))
	assert.True(t, eval(t, "NullableAge + 1 == null", applicant{}))
	assert.True(t, eval(t, "Address.City == null", applicant{}))
	assert.True(t, eval(t, "Address == null", applicant{}))
	assert.True(t, eval(t, "Address.City == 'Oslo'", applicant{Address: &address{City: "Oslo"}}))
}

func TestCompile_NullAgainstValueFields(t *testing.T) {
	c := New()
	tests := []struct {
		text string
		msg  string
		col  int
	}{
		{"Age == null", "Operator '==' cannot be applied to operands of type 'int' and 'null'.", 5},
		{"null != Flag", "Operator '!=' cannot be applied to operands of type 'null' and 'bool'.", 6},
		{"Score == null", "Operator '==' cannot be applied to operands of type 'float64' and 'null'.", 7},
		{"Level == null", "Operator '==' cannot be applied to operands of type 'Model.Stability' and 'null'.", 7},
		{"null < 1", "Operator '<' cannot be applied to operands of type 'null' and 'int'.", 6},
		{"-null == 1", "Operator '-' cannot be applied to operand of type 'null'.", 1},
		{"!null", "Operator '!' cannot be applied to operand of type 'null'.", 1},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			err := compileErr(t, c, tc.text)
			assert.Equal(t, schema.ErrCodeSemantic, err.Code)
			assert.Equal(t, tc.msg, err.Message)
			assert.Equal(t, schema.Location{Line: 1, Column: tc.col}, err.Location)
		})
	}
}

func TestCompile_TypeMismatch(t *testing.T) {
	c := New()
	tests := []struct {
		text string
		msg  string
	}{
		{"Name < 'b'", "Operator '<' cannot be applied to operands of type 'string' and 'string'."},
		{"Age && true", "Operator '&&' cannot be applied to operands of type 'int' and 'bool'."},
		{"Level == Legacy.Stability.High", "Operator '==' cannot be applied to operands of type 'Model.Stability' and 'Legacy.Stability'."},
		{"Flag == 1", "Operator '==' cannot be applied to operands of type 'bool' and 'int'."},
		{"!Age", "Operator '!' cannot be applied to operand of type 'int'."},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			err := compileErr(t, c, tc.text)
			assert.Equal(t, schema.ErrCodeSemantic, err.Code)
			assert.Equal(t, tc.msg, err.Message)
		})
	}
}

func TestCompile_UnknownIdentifier(t *testing.T) {
	err := compileErr(t, New(), "true &&\n  Missing.Path == 1")
	assert.Equal(t, schema.ErrCodeSemantic, err.Code)
	assert.Equal(t, "Only public properties, constants and enums are accepted. Identifier 'Missing.Path' not known.", err.Message)
	assert.Equal(t, schema.Location{Line: 2, Column: 3}, err.Location)
	assert.Equal(t, "  Missing.Path == 1\n  ^--- "+err.Message, err.Excerpt())
}

// --- Enums and constants ---

func TestCompile_EnumsAndConstants(t *testing.T) {
	prog := compile(t, "Level == Model.Stability.High && Age < Limits.MaxAge")
	assert.Equal(t, map[string]any{"Model.Stability.High": int64(1), "Limits.MaxAge": int64(55)}, prog.Constants)

	out, err := prog.Eval(applicant{Level: high, Age: 30})
	require.NoError(t, err)
	assert.True(t, out)

	out, err = prog.Eval(applicant{Level: low, Age: 30})
	require.NoError(t, err)
	assert.False(t, out)

	assert.True(t, eval(t, "Level < Model.Stability.High", applicant{Level: low}))
	assert.True(t, eval(t, "Limits.Country == 'NO'", applicant{}))
	assert.True(t, eval(t, "Other.MaxAge == 60", applicant{}))
}

func TestCompile_Ambiguity(t *testing.T) {
	err := compileErr(t, New(), "Level == Stability.High")
	assert.Equal(t, schema.ErrCodeSemantic, err.Code)
	assert.Equal(t, "Enum 'Stability.High' is ambiguous, found following:\nLegacy.Stability.High,\nModel.Stability.High.", err.Message)
	assert.Equal(t, schema.Location{Line: 1, Column: 10}, err.Location)

	err = compileErr(t, New(), "Age < MaxAge")
	assert.Equal(t, "Constant 'MaxAge' is ambiguous, found following:\nLimits.MaxAge,\nLimits.Other.MaxAge.", err.Message)
}

func TestCompile_FieldBeatsConstant(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, tbl.AddConst("Consts.Age", 1))
	prog, err := New().Compile(symbols.SchemaOf[applicant](tbl), "Age == 30")
	require.NoError(t, err)
	assert.Empty(t, prog.Constants)
	assert.Contains(t, prog.Fields, "Age")
}

func TestCompile_RegistriesAreCopies(t *testing.T) {
	prog := compile(t, "Age < Limits.MaxAge")
	prog.Fields["Injected"] = typing.IntType
	prog.Constants["Injected"] = 1

	next := compile(t, "Flag")
	assert.Equal(t, []string{"Flag"}, keys(next.Fields))
	assert.Empty(t, next.Constants)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// --- Syntax ---

func TestCompile_SyntaxErrors(t *testing.T) {
	c := New()
	tests := []struct {
		text string
		msg  string
		col  int
	}{
		{"", `Expected "null", int, float, bool, string or func. Unexpected end of expression.`, 1},
		{"1 +", `Expected "null", int, float, bool, string or func. Unexpected end of expression.`, 4},
		{"&& true", `Expected "null", int, float, bool, string or func. Unexpected "&&".`, 1},
		{"(true", "Expected closing bracket.", 6},
		{"(1 + 2 == 3", "Expected closing bracket.", 12},
		{"1 < 2 < 3", `Unexpected token: "<".`, 7},
		{"true true", `Unexpected token: "true".`, 6},
		{"true)", `Unexpected token: ")".`, 5},
		{"Older(1 2)", "Expected comma or closing bracket.", 9},
		{"Older(1,)", `Expected "null", int, float, bool, string or func. Unexpected ")".`, 9},
		{"--1 == 1", `Expected "null", int, float, bool, string or func. Unexpected "-".`, 2},
		{"true == !false", `Expected "null", int, float, bool, string or func. Unexpected "!".`, 9},
		{"Address.1 == 1", `Unexpected token: "0.1".`, 8},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			err := compileErr(t, c, tc.text)
			assert.Equal(t, schema.ErrCodeSyntax, err.Code)
			assert.Equal(t, tc.msg, err.Message)
			assert.Equal(t, schema.Location{Line: 1, Column: tc.col}, err.Location)
		})
	}
}

func TestCompile_LexicalError(t *testing.T) {
	err := compileErr(t, New(), "Age > 1 # 2")
	assert.Equal(t, schema.ErrCodeLexical, err.Code)
	assert.Equal(t, schema.Location{Line: 1, Column: 9}, err.Location)
}

func TestCompile_NonBoolean(t *testing.T) {
	c := New()
	for text, typ := range map[string]string{"1": "int", "  Age + 1": "int", "'a'": "string", "NullableAge": "*int"} {
		t.Run(text, func(t *testing.T) {
			err := compileErr(t, c, text)
			assert.Equal(t, schema.ErrCodeSemantic, err.Code)
			assert.Equal(t, "Parse fatal error: expression must evaluate to 'bool', found '"+typ+"'.", err.Message)
			assert.Equal(t, 1, err.Location.Line)
		})
	}

	err := compileErr(t, c, "  Age + 1")
	assert.Equal(t, schema.Location{Line: 1, Column: 3}, err.Location)
}

// --- Functions ---

type counter struct{ calls int }

func (c *counter) register(t *testing.T, r *symbols.Registry) {
	t.Helper()
	require.NoError(t, r.Register("Count", func() bool {
		c.calls++
		return true
	}))
}

func TestCompile_ShortCircuit(t *testing.T) {
	tests := []struct {
		text  string
		want  bool
		calls int
	}{
		{"false && Count()", false, 0},
		{"true || Count()", true, 0},
		{"Flag && Count()", false, 0},
		{"!Flag || Count()", true, 0},
		{"Count()", true, 1},
		{"true && Count()", true, 1},
		{"false || Count()", true, 1},
		{"Count() && Count()", true, 2},
		{"Count() || Count()", true, 1},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			c := &counter{}
			r := symbols.NewRegistry()
			c.register(t, r)

			prog, err := New(WithFunctions(r)).Compile(symbols.SchemaOf[applicant](nil), tc.text)
			require.NoError(t, err)
			assert.Equal(t, 0, c.calls, "compiling must not call functions")

			out, err := prog.Eval(applicant{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
			assert.Equal(t, tc.calls, c.calls)
		})
	}
}

func TestCompile_Functions(t *testing.T) {
	r := symbols.NewRegistry()
	require.NoError(t, r.Register("Half", func(n float64) float64 { return n / 2 }))
	require.NoError(t, r.Register("Len", func(s string) int { return len(s) }))
	require.NoError(t, r.Register("Older", func(a, b int) bool { return a > b }))
	c := New(WithFunctions(r))
	s := symbols.SchemaOf[applicant](nil)

	prog, err := c.Compile(s, "Half(3) == 1.5 && Len(Name) == 3 && Older(40) && Older(2, 1) && Shout('a') == 'a!'")
	require.NoError(t, err)
	out, err := prog.Eval(applicant{Name: "Ann", Age: 41})
	require.NoError(t, err)
	assert.True(t, out)

	assert.ErrorContains(t, r.Register("Late", func() bool { return true }), "closed")
}

func TestCompile_FunctionErrors(t *testing.T) {
	r := symbols.NewRegistry()
	require.NoError(t, r.Register("Inc", func(n int) int { return n + 1 }))
	require.NoError(t, r.Register("Inc", func(n float64) float64 { return n + 1 }))
	require.NoError(t, r.Register("Len", func(s string) int { return len(s) }))
	require.NoError(t, r.Register("Pick", func(a string, b int, c bool) bool { return c }))
	c := New(WithFunctions(r))

	tests := []struct {
		text string
		code string
		msg  string
		col  int
	}{
		{"Missing()", schema.ErrCodeSemantic, "Function 'Missing' not known.", 1},
		{"Len() == 0", schema.ErrCodeSemantic, "Function 'Len' accepting 0 arguments not found.", 1},
		{"Len('a', 'b') == 0", schema.ErrCodeSemantic, "Function 'Len' accepting 2 arguments not found.", 1},
		{"Older() ", schema.ErrCodeSemantic, "Function 'Older' accepting 0 arguments not found.", 1},
		{"Inc(1) == 2", schema.ErrCodeSemantic, "Function 'Inc' accepting 1 argument is ambiguous.", 1},
		{"Len(1) == 1", schema.ErrCodeConversion, "Function 'Len' 1st argument implicit conversion from 'int' to expected 'string' failed.", 5},
		{"Pick('a', 1.5, true)", schema.ErrCodeConversion, "Function 'Pick' 2nd argument implicit conversion from 'float64' to expected 'int' failed.", 11},
		{"Pick('a', 1, NullableAge)", schema.ErrCodeConversion, "Function 'Pick' 3rd argument implicit conversion from '*int' to expected 'bool' failed.", 14},
		{"Pick(null, 1, null)", schema.ErrCodeConversion, "Function 'Pick' 3rd argument implicit conversion from 'null' to expected 'bool' failed.", 15},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			err := compileErr(t, c, tc.text)
			assert.Equal(t, tc.code, err.Code)
			assert.Equal(t, tc.msg, err.Message)
			assert.Equal(t, schema.Location{Line: 1, Column: tc.col}, err.Location)
		})
	}
}

func TestCompile_MethodAmbiguity(t *testing.T) {
	s := symbols.SchemaOf[applicant](nil)
	require.NoError(t, s.AddMethod("Older", func(n float64) bool { return n > 0 }))

	_, err := New().Compile(s, "Older(1)")
	var exprErr *schema.ExprError
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, "Function 'Older' accepting 1 argument is ambiguous.", exprErr.Message)
}

func TestCompile_MethodsBeforeLibrary(t *testing.T) {
	r := symbols.NewRegistry()
	require.NoError(t, r.Register("Shout", func(s string) string { return "library" }))

	assert.True(t, eval(t, "Shout('x') == 'x!'", applicant{}, WithFunctions(r)))
}

func TestOrdinal(t *testing.T) {
	want := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 10: "10th", 11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd", 101: "101st", 111: "111th", 112: "112th",
	}
	for n, s := range want {
		assert.Equal(t, s, Ordinal(n))
	}
}

// --- Evaluation ---

func TestProgram_EvaluationErrors(t *testing.T) {
	r := symbols.NewRegistry()
	require.NoError(t, r.Register("Boom", func() (bool, error) { return false, errors.New("boom") }))
	c := New(WithFunctions(r))
	s := symbols.SchemaOf[applicant](nil)

	prog, err := c.Compile(s, "Address.Number > 1")
	require.NoError(t, err)
	_, err = prog.Eval(applicant{})
	var exprErr *schema.ExprError
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, schema.ErrCodeEvaluation, exprErr.Code)
	assert.Equal(t, "Address.Number > 1", exprErr.Expression)

	prog, err = c.Compile(s, "Boom()")
	require.NoError(t, err)
	_, err = prog.Eval(applicant{})
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, schema.ErrCodeEvaluation, exprErr.Code)
	assert.Contains(t, exprErr.Message, "boom")

	prog, err = c.Compile(s, "Flag")
	require.NoError(t, err)
	_, err = prog.Eval("not an applicant")
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, schema.ErrCodeEvaluation, exprErr.Code)
}

// --- Conditional extension ---

func TestCompile_Conditional(t *testing.T) {
	opt := WithConditional()
	assert.True(t, eval(t, "(Age > 30 ? 1 : 2) == 1", applicant{Age: 31}, opt))
	assert.True(t, eval(t, "(Age > 30 ? 1 : 2) == 2", applicant{Age: 3}, opt))
	assert.True(t, eval(t, "Flag ? Age > 1 : Name == 'x'", applicant{Name: "x"}, opt))

	c := New(opt)
	err := compileErr(t, c, "(Age ? 1 : 2) == 1")
	assert.Equal(t, "Argument of the conditional expression must be of type 'bool', found 'int'.", err.Message)
	assert.Equal(t, schema.Location{Line: 1, Column: 2}, err.Location)

	err = compileErr(t, c, "(Flag ? 1 : 'a') == 1")
	assert.Equal(t, "Types of the conditional expression branches must match: 'int' and 'string'.", err.Message)

	err = compileErr(t, c, "(Flag ? 1 2) == 1")
	assert.Equal(t, schema.ErrCodeSyntax, err.Code)

	err = compileErr(t, New(), "Flag ? true : false")
	assert.Equal(t, schema.ErrCodeLexical, err.Code)
}
