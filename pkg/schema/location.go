package schema

import "fmt"

// Location is a 1-based line/column position inside expression source text.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Start is the location of the first character of any source text.
var Start = Location{Line: 1, Column: 1}

func (l Location) String() string {
	return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.Line == 0 && l.Column == 0
}

// Advance returns the location reached after consuming text from l.
// A line feed moves to the first column of the next line; every other rune
// moves one column to the right.
func (l Location) Advance(text string) Location {
	for _, r := range text {
		if r == '\n' {
			l.Line++
			l.Column = 1
			continue
		}
		l.Column++
	}
	return l
}
