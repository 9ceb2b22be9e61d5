package symbols

import (
	"fmt"
	"reflect"

	"github.com/rendis/expressive/internal/typing"
	"github.com/rendis/expressive/pkg/schema"
)

var errorType = reflect.TypeFor[error]()

// Function is a callable bound by name and arity. Library functions ignore
// the context handed to Invoke; context methods use it as their receiver.
type Function struct {
	Name   string
	Params []typing.Type
	Result typing.Type

	goParams []reflect.Type
	fails    bool
	target   func(ctx any) (reflect.Value, error)
}

// Arity returns the number of parameters.
func (f *Function) Arity() int {
	return len(f.Params)
}

// Signature renders the function the way diagnostics cite it.
func (f *Function) Signature() string {
	s := f.Name + "("
	for i, p := range f.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ") " + f.Result.String()
}

// NewFunction wraps a Go func. It must not be variadic and must return one
// value, optionally followed by an error.
func NewFunction(name string, fn any, enums typing.EnumLookup) (*Function, error) {
	if name == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "function name is empty")
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "function %q: %T is not a func", name, fn)
	}
	f, err := describe(name, rv.Type(), 0, enums)
	if err != nil {
		return nil, err
	}
	f.target = func(any) (reflect.Value, error) { return rv, nil }
	return f, nil
}

// describe builds the signature of a func type, skipping the first skip
// parameters (a method receiver).
func describe(name string, ft reflect.Type, skip int, enums typing.EnumLookup) (*Function, error) {
	if ft.IsVariadic() {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "function %q: variadic functions are not supported", name)
	}

	f := &Function{Name: name}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "function %q: second result must be error", name)
		}
		f.fails = true
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "function %q: must return one value, optionally followed by error", name)
	}

	result, ok := typing.FromGo(ft.Out(0), enums)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "function %q: unsupported result type %s", name, ft.Out(0))
	}
	f.Result = result

	for i := skip; i < ft.NumIn(); i++ {
		in := ft.In(i)
		pt, ok := typing.FromGo(in, enums)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "function %q: unsupported parameter type %s", name, in)
		}
		f.Params = append(f.Params, pt)
		f.goParams = append(f.goParams, in)
	}
	return f, nil
}

// Invoke calls the function with runtime argument values and returns the
// normalized result. Errors and panics surface as EVALUATION_ERROR.
func (f *Function) Invoke(ctx any, args []any) (out any, err error) {
	if len(args) != len(f.Params) {
		return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
			"function '%s' called with %d arguments, expects %d", f.Name, len(args), len(f.Params))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, convErr := typing.ToGo(a, f.goParams[i])
		if convErr != nil {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
				"function '%s' argument %d: %v", f.Name, i+1, convErr).WithCause(convErr)
		}
		in[i] = v
	}

	target, err := f.target(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = schema.NewErrorf(schema.ErrCodeEvaluation, "function '%s' panicked: %v", f.Name, r).
				WithCause(fmt.Errorf("%v", r))
		}
	}()

	results := target.Call(in)
	if f.fails {
		if e, _ := results[1].Interface().(error); e != nil {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation, "function '%s' failed: %v", f.Name, e).WithCause(e)
		}
	}
	return typing.Normalize(results[0], f.Result), nil
}
