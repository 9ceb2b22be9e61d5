package typing

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

var (
	timeGoType     = reflect.TypeFor[time.Time]()
	durationGoType = reflect.TypeFor[time.Duration]()
	uuidGoType     = reflect.TypeFor[uuid.UUID]()
)

// EnumLookup reports the qualified enum name registered for a Go type.
type EnumLookup func(reflect.Type) (string, bool)

// FromGo maps a Go type onto an expression type. Reports false for types the
// engine cannot represent (slices, maps, channels, funcs, double pointers).
func FromGo(t reflect.Type, enums EnumLookup) (Type, bool) {
	if t == nil {
		return Type{}, false
	}
	if t.Kind() == reflect.Pointer {
		inner, ok := fromGoValue(t.Elem(), enums)
		if !ok {
			return Type{}, false
		}
		return inner.Lift(), true
	}
	return fromGoValue(t, enums)
}

func fromGoValue(t reflect.Type, enums EnumLookup) (Type, bool) {
	switch t {
	case timeGoType:
		return TimeType, true
	case durationGoType:
		return DurationType, true
	case uuidGoType:
		return UUIDType, true
	}
	if enums != nil {
		if name, ok := enums(t); ok {
			return EnumOf(name, t), true
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		return Type{Kind: Bool, Go: t}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Type{Kind: Int, Go: t}, true
	case reflect.Float32, reflect.Float64:
		return Type{Kind: Float, Go: t}, true
	case reflect.String:
		return Type{Kind: String, Go: t}, true
	case reflect.Struct:
		return ObjectOf(t.String(), t), true
	case reflect.Interface:
		return Type{Kind: Any, Go: t}, true
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return ObjectOf(t.String(), t), true
		}
	}
	return Type{}, false
}

// Normalize converts a Go value of the given expression type into its runtime
// form: int64, float64, string, bool, time.Time, time.Duration, uuid.UUID, the
// enum ordinal as int64, the raw value for objects, or nil.
func Normalize(v reflect.Value, t Type) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	switch t.Kind {
	case Bool:
		return v.Bool()
	case Int, Enum:
		return toInt64(v)
	case Float:
		if v.CanFloat() {
			return v.Float()
		}
		return float64(toInt64(v))
	case String:
		return v.String()
	case Duration:
		return time.Duration(v.Int())
	case Any:
		out, _ := NormalizeAny(v.Interface())
		return out
	default:
		return v.Interface()
	}
}

func toInt64(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	if v.CanUint() {
		return int64(v.Uint())
	}
	return 0
}

// NormalizeAny converts a dynamically typed value (decoded JSON/YAML, an
// interface-typed field) into its runtime form and reports its type.
func NormalizeAny(v any) (any, Type) {
	switch val := v.(type) {
	case nil:
		return nil, NullType
	case bool:
		return val, BoolType
	case string:
		return val, StringType
	case int:
		return int64(val), IntType
	case int8:
		return int64(val), IntType
	case int16:
		return int64(val), IntType
	case int32:
		return int64(val), IntType
	case int64:
		return val, IntType
	case uint:
		return int64(val), IntType
	case uint8:
		return int64(val), IntType
	case uint16:
		return int64(val), IntType
	case uint32:
		return int64(val), IntType
	case uint64:
		return int64(val), IntType
	case float32:
		return float64(val), FloatType
	case float64:
		return val, FloatType
	case time.Time:
		return val, TimeType
	case time.Duration:
		return val, DurationType
	case uuid.UUID:
		return val, UUIDType
	default:
		return v, AnyType
	}
}

// ToGo converts a runtime value back into a value assignable to the Go type.
func ToGo(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(target), nil
		case reflect.String:
			return reflect.Zero(target), nil
		default:
			return reflect.Value{}, fmt.Errorf("cannot pass nil as %s", target)
		}
	}

	if target.Kind() == reflect.Pointer {
		inner, err := ToGo(v, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(rv)
		return out, nil
	}
	if rv.Type().ConvertibleTo(target) && convertibleKinds(rv.Kind(), target.Kind()) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot pass %s as %s", rv.Type(), target)
}

// convertibleKinds keeps reflect conversions numeric-to-numeric or
// string-to-string; reflect would otherwise turn an int into a rune string.
func convertibleKinds(from, to reflect.Kind) bool {
	isNum := func(k reflect.Kind) bool {
		return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
	}
	switch {
	case isNum(from) && isNum(to):
		return true
	case from == reflect.String && to == reflect.String:
		return true
	case from == reflect.Bool && to == reflect.Bool:
		return true
	case from == to:
		return true
	default:
		return false
	}
}
