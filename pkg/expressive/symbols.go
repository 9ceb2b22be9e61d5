package expressive

import (
	"reflect"

	"github.com/rendis/expressive/internal/symbols"
	"github.com/rendis/expressive/internal/typing"
)

type (
	// Schema describes the contexts an expression is compiled for.
	Schema = symbols.Schema
	// Table holds the enums and constants expressions may reference.
	Table = symbols.Table
	// Type is the static type of a field or constant.
	Type = typing.Type
	// ReflectSchema describes contexts of one Go struct type.
	ReflectSchema = symbols.ReflectSchema
	// DynamicSchema describes map-shaped contexts by declared paths.
	DynamicSchema = symbols.DynamicSchema
)

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return symbols.NewTable()
}

// BindEnum registers an enum backed by a defined Go integer type.
func BindEnum[E ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32](t *Table, qualified string, members map[string]E) error {
	return symbols.BindEnum(t, qualified, members)
}

// SchemaOf returns the schema of the struct type T.
func SchemaOf[T any](table *Table) *ReflectSchema {
	return symbols.SchemaOf[T](table)
}

// NewReflectSchema returns the schema of a struct type.
func NewReflectSchema(t reflect.Type, table *Table) *ReflectSchema {
	return symbols.NewReflectSchema(t, table)
}

// NewDynamicSchema declares map-shaped contexts by property path.
func NewDynamicSchema(fields map[string]Type, table *Table) (*DynamicSchema, error) {
	return symbols.NewDynamicSchema(fields, table)
}

// ParseType reads a type spelling such as "int", "*float" or "enum:Model.Level".
func ParseType(spelling string) (Type, bool) {
	return typing.Parse(spelling)
}
