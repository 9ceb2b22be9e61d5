package typing

// Convertible reports whether a value of type from may be passed implicitly
// where type to is expected: identity, Int to Float, lifting to the nullable
// form, null to a type accepting null, and anything to Any.
func Convertible(from, to Type) bool {
	switch {
	case to.Kind == Any:
		return true
	case from.Kind == Null:
		return to.AcceptsNull()
	case from.Same(to):
		return true
	case from.Nullable && !to.Nullable:
		return false
	case from.Underlying().Same(to.Underlying()):
		return true
	case from.Kind == Int && to.Kind == Float:
		return true
	default:
		return false
	}
}

// Convert applies the runtime side of an implicit conversion accepted by
// Convertible. Nil stays nil.
func Convert(v any, from, to Type) any {
	if v == nil {
		return nil
	}
	if from.Kind == Int && to.Kind == Float {
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	}
	return v
}
