package errors

import (
	"fmt"
	"io"
	"strings"
)

// Diagnostic is the interface implemented by errors that point into a
// fixture or config document.
type Diagnostic interface {
	error // Embed the standard error interface
	Pos() Position
	Kind() string // e.g., "Fixture", "Mismatch", "Thrown"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// FixtureError reports a malformed fixture document.
type FixtureError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("Fixture Error at %s: %s", e.Position, e.Msg)
}
func (e *FixtureError) Pos() Position   { return e.Position }
func (e *FixtureError) Kind() string    { return "Fixture" }
func (e *FixtureError) Message() string { return e.Msg }
func (e *FixtureError) Unwrap() error   { return e.Cause }
func (e *FixtureError) CausedBy(cause error) *FixtureError {
	e.Cause = cause
	return e
}

// MismatchError reports a case whose observed outcome differs from the
// recorded one.
type MismatchError struct {
	Position
	Msg      string
	Field    string // "result" or "after"
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Mismatch at %s: %s", e.Position, e.Message())
}
func (e *MismatchError) Pos() Position { return e.Position }
func (e *MismatchError) Kind() string  { return "Mismatch" }
func (e *MismatchError) Message() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Msg, e.Field, e.Expected, e.Actual)
}
func (e *MismatchError) Unwrap() error { return nil }

// ThrownError reports a script value thrown out of a case that did not
// expect one.
type ThrownError struct {
	Position
	Msg   string
	Cause error // The thrown failure
}

func (e *ThrownError) Error() string {
	return fmt.Sprintf("Thrown at %s: %s", e.Position, e.Msg)
}
func (e *ThrownError) Pos() Position   { return e.Position }
func (e *ThrownError) Kind() string    { return "Thrown" }
func (e *ThrownError) Message() string { return e.Msg }
func (e *ThrownError) Unwrap() error   { return e.Cause }

// --- Error Reporting ---

// DisplayErrors prints diagnostics to w in a user-friendly format,
// including the source line and position marker.
func DisplayErrors(w io.Writer, source string, errors []Diagnostic) {
	if len(errors) == 0 {
		return
	}

	lines := strings.Split(source, "\n")

	for _, err := range errors {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		// Ensure line numbers are within bounds (1-based index)
		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s Error: %s\n", kind, msg)
			continue
		}

		sourceLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")

		// Format: <Kind> Error at <File>:<Line>:<Column>: <Message>
		fmt.Fprintf(w, "%s Error at %s: %s\n", kind, pos, msg)
		fmt.Fprintf(w, "  %s\n", sourceLine)

		marker := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"
		fmt.Fprintf(w, "  %s\n", marker)
		fmt.Fprintln(w)
	}
}
