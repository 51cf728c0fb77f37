package errors

import "fmt"

// Position represents a specific location in a document.
type Position struct {
	File   string // Document path, empty for in-memory sources
	Line   int    // 1-based line number
	Column int    // 1-based column number
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}
