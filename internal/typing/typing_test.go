package typing

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stability int

const (
	stabilityLow stability = iota
	stabilityHigh
)

type address struct {
	City string
}

func enumLookup(t reflect.Type) (string, bool) {
	if t == reflect.TypeFor[stability]() {
		return "Model.Stability", true
	}
	return "", false
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name   string
		goType reflect.Type
		want   string
		kind   Kind
	}{
		{"int", reflect.TypeFor[int](), "int", Int},
		{"int32", reflect.TypeFor[int32](), "int32", Int},
		{"uint8", reflect.TypeFor[uint8](), "uint8", Int},
		{"float32", reflect.TypeFor[float32](), "float32", Float},
		{"string", reflect.TypeFor[string](), "string", String},
		{"bool", reflect.TypeFor[bool](), "bool", Bool},
		{"time", reflect.TypeFor[time.Time](), "time.Time", Time},
		{"duration", reflect.TypeFor[time.Duration](), "time.Duration", Duration},
		{"uuid", reflect.TypeFor[uuid.UUID](), "uuid.UUID", UUID},
		{"nullable int", reflect.TypeFor[*int](), "*int", Int},
		{"nullable time", reflect.TypeFor[*time.Time](), "*time.Time", Time},
		{"nullable string stays reference", reflect.TypeFor[*string](), "string", String},
		{"enum", reflect.TypeFor[stability](), "Model.Stability", Enum},
		{"nullable enum", reflect.TypeFor[*stability](), "*Model.Stability", Enum},
		{"struct", reflect.TypeFor[address](), "typing.address", Object},
		{"interface", reflect.TypeFor[any](), "any", Any},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromGo(tc.goType, enumLookup)
			require.True(t, ok)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestFromGo_Unsupported(t *testing.T) {
	for _, goType := range []reflect.Type{
		reflect.TypeFor[[]int](),
		reflect.TypeFor[chan int](),
		reflect.TypeFor[func()](),
		reflect.TypeFor[**int](),
		nil,
	} {
		_, ok := FromGo(goType, nil)
		assert.False(t, ok, "%v", goType)
	}
}

func TestType_NullSemantics(t *testing.T) {
	assert.False(t, IntType.AcceptsNull())
	assert.True(t, IntType.Lift().AcceptsNull())
	assert.True(t, StringType.AcceptsNull())
	assert.True(t, NullType.AcceptsNull())
	assert.False(t, EnumOf("E", nil).AcceptsNull())
	assert.Equal(t, StringType, StringType.Lift())
	assert.True(t, IntType.Lift().Underlying().Same(IntType))
}

func TestParse(t *testing.T) {
	tests := []struct {
		spelling string
		want     Type
	}{
		{"int", IntType},
		{"*int", IntType.Lift()},
		{"int?", IntType.Lift()},
		{"float", FloatType},
		{"string", StringType},
		{"*string", StringType},
		{"string?", StringType},
		{"bool", BoolType},
		{"time", TimeType},
		{"*duration", DurationType.Lift()},
		{"uuid", UUIDType},
		{"any", AnyType},
		{"enum:Model.Stability", EnumOf("Model.Stability", nil)},
	}
	for _, tc := range tests {
		t.Run(tc.spelling, func(t *testing.T) {
			got, ok := Parse(tc.spelling)
			require.True(t, ok)
			assert.True(t, tc.want.Same(got), "got %s", got)
		})
	}

	_, ok := Parse("list")
	assert.False(t, ok)
	_, ok = Parse("enum:")
	assert.False(t, ok)
}

// --- Runtime values ---

func TestNormalize(t *testing.T) {
	n := 7
	var nilPtr *int
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(7), Normalize(reflect.ValueOf(int8(7)), IntType))
	assert.Equal(t, int64(7), Normalize(reflect.ValueOf(uint16(7)), IntType))
	assert.Equal(t, 1.5, Normalize(reflect.ValueOf(float32(1.5)), FloatType))
	assert.Equal(t, int64(7), Normalize(reflect.ValueOf(&n), IntType.Lift()))
	assert.Nil(t, Normalize(reflect.ValueOf(nilPtr), IntType.Lift()))
	assert.Equal(t, now, Normalize(reflect.ValueOf(now), TimeType))
	assert.Equal(t, time.Minute, Normalize(reflect.ValueOf(time.Minute), DurationType))
	assert.Equal(t, int64(1), Normalize(reflect.ValueOf(stabilityHigh), EnumOf("Model.Stability", nil)))
}

func TestNormalizeAny(t *testing.T) {
	v, typ := NormalizeAny(42)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, Int, typ.Kind)

	v, typ = NormalizeAny(float32(0.5))
	assert.Equal(t, 0.5, v)
	assert.Equal(t, Float, typ.Kind)

	v, typ = NormalizeAny(nil)
	assert.Nil(t, v)
	assert.Equal(t, Null, typ.Kind)

	_, typ = NormalizeAny([]int{1})
	assert.Equal(t, Any, typ.Kind)
}

func TestToGo(t *testing.T) {
	v, err := ToGo(int64(3), reflect.TypeFor[int32]())
	require.NoError(t, err)
	assert.Equal(t, int32(3), v.Interface())

	v, err = ToGo(int64(1), reflect.TypeFor[stability]())
	require.NoError(t, err)
	assert.Equal(t, stabilityHigh, v.Interface())

	v, err = ToGo(int64(5), reflect.TypeFor[*int]())
	require.NoError(t, err)
	assert.Equal(t, 5, *(v.Interface().(*int)))

	v, err = ToGo(nil, reflect.TypeFor[*int]())
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	v, err = ToGo("x", reflect.TypeFor[any]())
	require.NoError(t, err)
	assert.Equal(t, "x", v.Interface())

	_, err = ToGo(nil, reflect.TypeFor[int]())
	assert.Error(t, err)

	_, err = ToGo(int64(65), reflect.TypeFor[string]())
	assert.Error(t, err, "ints never become rune strings")
}

// --- Implicit conversions ---

func TestConvertible(t *testing.T) {
	tests := []struct {
		name     string
		from, to Type
		want     bool
	}{
		{"identity", IntType, IntType, true},
		{"int to float", IntType, FloatType, true},
		{"int to nullable float", IntType, FloatType.Lift(), true},
		{"lift", TimeType, TimeType.Lift(), true},
		{"null to nullable", NullType, IntType.Lift(), true},
		{"null to string", NullType, StringType, true},
		{"null to int", NullType, IntType, false},
		{"nullable to value", IntType.Lift(), IntType, false},
		{"float to int", FloatType, IntType, false},
		{"string to int", StringType, IntType, false},
		{"anything to any", TimeType, AnyType, true},
		{"enum to other enum", EnumOf("A", nil), EnumOf("B", nil), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Convertible(tc.from, tc.to))
		})
	}
}

func TestConvert(t *testing.T) {
	assert.Equal(t, 2.0, Convert(int64(2), IntType, FloatType))
	assert.Nil(t, Convert(nil, IntType.Lift(), FloatType.Lift()))
	assert.Equal(t, "a", Convert("a", StringType, AnyType))
}
