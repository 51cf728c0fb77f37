package errors

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionString(t *testing.T) {
	assert.Equal(t, "3:5", Position{Line: 3, Column: 5}.String())
	assert.Equal(t, "a.yaml:3:5", Position{File: "a.yaml", Line: 3, Column: 5}.String())
}

func TestDiagnosticsUnwrap(t *testing.T) {
	cause := stderrors.New("bad scalar")
	err := (&FixtureError{Position: Position{Line: 1, Column: 1}, Msg: "decoding"}).CausedBy(cause)

	var d Diagnostic = err
	assert.Equal(t, "Fixture", d.Kind())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Fixture Error at 1:1: decoding", err.Error())

	mismatch := &MismatchError{Position: Position{Line: 2, Column: 3}, Msg: "splice", Field: "after", Expected: "[1]", Actual: "[2]"}
	assert.Equal(t, "splice: after: expected [1], got [2]", mismatch.Message())
	assert.Nil(t, mismatch.Unwrap())
}

func TestDisplayErrors(t *testing.T) {
	source := "cases:\n  - name: x\n    method: pop\n"
	var buf bytes.Buffer
	DisplayErrors(&buf, source, []Diagnostic{
		&FixtureError{Position: Position{Line: 3, Column: 13}, Msg: "unknown method"},
		&ThrownError{Position: Position{Line: 99, Column: 1}, Msg: "boom"},
	})

	out := buf.String()
	assert.Contains(t, out, "Fixture Error at 3:13: unknown method\n")
	assert.Contains(t, out, "    method: pop\n")
	assert.Contains(t, out, "  "+"            ^\n")
	assert.Contains(t, out, "Thrown Error: boom\n")
}
