// Package typing models the static types flowing through compiled expressions
// and maps Go types and values onto them.
//
// Every Go integer kind collapses to Int (runtime int64) and every float kind
// to Float (runtime float64). A pointer to a supported type is the nullable
// form of that type; a nil pointer evaluates to a nil value.
package typing

import (
	"reflect"
	"strings"
)

// Kind is the type class of a value.
type Kind uint8

const (
	Invalid Kind = iota
	Null
	Bool
	Int
	Float
	String
	Time
	Duration
	UUID
	Enum
	Object
	Any
)

var kindNames = [...]string{
	Invalid:  "invalid",
	Null:     "null",
	Bool:     "bool",
	Int:      "int",
	Float:    "float64",
	String:   "string",
	Time:     "time.Time",
	Duration: "time.Duration",
	UUID:     "uuid.UUID",
	Enum:     "enum",
	Object:   "object",
	Any:      "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Type is a static expression type.
type Type struct {
	Kind     Kind
	Nullable bool
	// Name is the qualified name of enum and object types.
	Name string
	// Go is the originating non-pointer Go type, when known.
	Go reflect.Type
}

var (
	NullType     = Type{Kind: Null}
	BoolType     = Type{Kind: Bool}
	IntType      = Type{Kind: Int}
	FloatType    = Type{Kind: Float}
	StringType   = Type{Kind: String}
	TimeType     = Type{Kind: Time}
	DurationType = Type{Kind: Duration}
	UUIDType     = Type{Kind: UUID}
	AnyType      = Type{Kind: Any}
)

// EnumOf returns the enum type registered under the qualified name.
func EnumOf(name string, goType reflect.Type) Type {
	return Type{Kind: Enum, Name: name, Go: goType}
}

// ObjectOf returns an object type named after its Go type.
func ObjectOf(name string, goType reflect.Type) Type {
	return Type{Kind: Object, Name: name, Go: goType}
}

// String renders the type the way error messages cite it.
func (t Type) String() string {
	var name string
	switch t.Kind {
	case Enum, Object:
		name = t.Name
		if name == "" && t.Go != nil {
			name = t.Go.String()
		}
	case Int, Float:
		if t.Go != nil && t.Go.PkgPath() == "" {
			name = t.Go.String()
		} else {
			name = t.Kind.String()
		}
	default:
		name = t.Kind.String()
	}
	if t.Nullable {
		return "*" + name
	}
	return name
}

// Same reports whether both types denote the same expression type. The
// originating Go type is ignored: int32 and int64 fields are both Int.
func (t Type) Same(o Type) bool {
	return t.Kind == o.Kind && t.Nullable == o.Nullable && t.Name == o.Name
}

// IsNumeric reports whether the type is Int or Float, nullable or not.
func (t Type) IsNumeric() bool {
	return t.Kind == Int || t.Kind == Float
}

// IsTemporal reports whether the type is Time or Duration, nullable or not.
func (t Type) IsTemporal() bool {
	return t.Kind == Time || t.Kind == Duration
}

// IsValueType reports whether the kind has no null state unless lifted.
func (t Type) IsValueType() bool {
	switch t.Kind {
	case Bool, Int, Float, Time, Duration, UUID, Enum:
		return true
	default:
		return false
	}
}

// AcceptsNull reports whether nil is a valid value of the type.
func (t Type) AcceptsNull() bool {
	return t.Nullable || !t.IsValueType()
}

// Lift returns the nullable form of a value type. Reference-like types are
// returned unchanged.
func (t Type) Lift() Type {
	if t.IsValueType() {
		t.Nullable = true
	}
	return t
}

// Underlying returns the non-nullable form of the type.
func (t Type) Underlying() Type {
	t.Nullable = false
	return t
}

// WithKind returns a copy converted to another kind, keeping nullability.
func (t Type) WithKind(k Kind) Type {
	return Type{Kind: k, Nullable: t.Nullable}
}

// Parse reads a type spelling used by declarative schemas: int, float, string,
// bool, time, duration, uuid, any, enum:<Name>, each optionally prefixed with
// "*" or suffixed with "?" for the nullable form. Reference-like types already
// accept null, so "*string" reads as string.
func Parse(spelling string) (Type, bool) {
	s := strings.TrimSpace(spelling)
	nullable := false
	if strings.HasPrefix(s, "*") {
		nullable, s = true, s[1:]
	} else if strings.HasSuffix(s, "?") {
		nullable, s = true, s[:len(s)-1]
	}

	var t Type
	switch strings.ToLower(s) {
	case "int", "integer", "long":
		t = IntType
	case "float", "float64", "double", "number", "decimal":
		t = FloatType
	case "string", "text":
		t = StringType
	case "bool", "boolean":
		t = BoolType
	case "time", "date", "datetime", "time.time":
		t = TimeType
	case "duration", "timespan", "time.duration":
		t = DurationType
	case "uuid", "guid":
		t = UUIDType
	case "any":
		t = AnyType
	default:
		name, ok := strings.CutPrefix(s, "enum:")
		if !ok || name == "" {
			return Type{}, false
		}
		t = EnumOf(name, nil)
	}
	if nullable {
		t = t.Lift()
	}
	return t, true
}
