package reference

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/expressive/pkg/schema"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"expr", "cel"} {
		e, ok := New(name)
		require.True(t, ok, name)
		assert.Equal(t, name, e.Name())
	}
	_, ok := New("jq")
	assert.False(t, ok)
}

func TestExpr_Evaluate(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"Age": 30, "Name": "Ann", "Middle": nil}

	cases := map[string]bool{
		"Age > 18 && Name == 'Ann'": true,
		"Age % 7 == 2":              true,
		"1 / 2 == 0.5":              true,
		"Middle == null":            true,
		"!(Age >= 40) || false":     true,
		"Name + 'x' == 'Annx'":      true,
	}
	for expression, want := range cases {
		out, err := e.Evaluate(context.Background(), expression, data)
		require.NoError(t, err, expression)
		assert.Equal(t, want, out, expression)
	}
}

func TestExpr_Errors(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), "", nil)
	var exprErr *schema.ExprError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, schema.ErrCodeValidation, exprErr.Code)

	_, err = e.Evaluate(context.Background(), "1 +", nil)
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, schema.ErrCodeValidation, exprErr.Code)
	assert.Equal(t, "expr", exprErr.Details["engine"])
}

func TestCEL_Evaluate(t *testing.T) {
	e := NewCELEngine()
	data := map[string]any{"Age": int64(30), "Name": "Ann"}

	out, err := e.Evaluate(context.Background(), "Age > 18 && Name == 'Ann'", data)
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate(context.Background(), "!(Age < 18) || Name.startsWith('B')", data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_CachesPerKeySet(t *testing.T) {
	e := NewCELEngine()
	ctx := context.Background()

	_, err := e.Evaluate(ctx, "a == 1", map[string]any{"a": int64(1)})
	require.NoError(t, err)
	_, err = e.Evaluate(ctx, "a == 1", map[string]any{"a": int64(1), "b": int64(2)})
	require.NoError(t, err)

	assert.Len(t, e.envs, 2)
	assert.Len(t, e.cache, 2)
}

func TestCEL_CompileError(t *testing.T) {
	e := NewCELEngine()

	_, err := e.Evaluate(context.Background(), "unknown > 1", map[string]any{})
	var exprErr *schema.ExprError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, schema.ErrCodeValidation, exprErr.Code)
}

func TestCEL_Concurrent(t *testing.T) {
	e := NewCELEngine()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := e.Evaluate(context.Background(), "x >= 0", map[string]any{"x": int64(i)})
			assert.NoError(t, err)
			assert.Equal(t, true, out)
		}(i)
	}
	wg.Wait()
}

func TestCrossCheck(t *testing.T) {
	ctx := context.Background()
	ref := NewExprEngine()
	data := map[string]any{"Age": 30}

	assert.Nil(t, CrossCheck(ctx, ref, "Age > 18", data, true))

	d := CrossCheck(ctx, ref, "Age > 18", data, false)
	require.NotNil(t, d)
	assert.Equal(t, true, d.Reference)
	assert.Equal(t, `expr returned true for "Age > 18", native returned false`, d.String())

	d = CrossCheck(ctx, ref, "Age >", data, true)
	require.NotNil(t, d)
	assert.NotEmpty(t, d.Error)
	assert.Contains(t, d.String(), "expr failed on")
}
