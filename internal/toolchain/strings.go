package toolchain

import (
	"strings"
)

func stringFunctions() []function {
	return []function{
		{"Length", func(s *string) int {
			if s == nil {
				return 0
			}
			return len([]rune(*s))
		}},
		{"Trim", func(s *string) *string {
			if s == nil {
				return nil
			}
			out := strings.TrimSpace(*s)
			return &out
		}},
		{"Concat", func(a, b *string) string { return text(a) + text(b) }},
		{"Concat", func(a, b, c *string) string { return text(a) + text(b) + text(c) }},
		{"CompareOrdinal", func(a, b *string) int { return compare(a, b, false) }},
		{"CompareOrdinalIgnoreCase", func(a, b *string) int { return compare(a, b, true) }},
		{"StartsWith", both(strings.HasPrefix, false)},
		{"StartsWithIgnoreCase", both(strings.HasPrefix, true)},
		{"EndsWith", both(strings.HasSuffix, false)},
		{"EndsWithIgnoreCase", both(strings.HasSuffix, true)},
		{"Contains", both(strings.Contains, false)},
		{"ContainsIgnoreCase", both(strings.Contains, true)},
		{"IsNullOrWhiteSpace", func(s *string) bool {
			return s == nil || strings.TrimSpace(*s) == ""
		}},
	}
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compare orders null before any text and reports -1, 0 or 1.
func compare(a, b *string, fold bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	x, y := *a, *b
	if fold {
		x, y = strings.ToLower(x), strings.ToLower(y)
	}
	return strings.Compare(x, y)
}

func both(pred func(s, sub string) bool, fold bool) func(a, b *string) bool {
	return func(a, b *string) bool {
		if a == nil || b == nil {
			return false
		}
		x, y := *a, *b
		if fold {
			x, y = strings.ToLower(x), strings.ToLower(y)
		}
		return pred(x, y)
	}
}
