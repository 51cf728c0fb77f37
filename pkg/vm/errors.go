package vm

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// ThrownError carries a script value thrown by user code. It is the only
// failure that crosses the object-model boundary; everything else is
// normalized to Undefined by the operation that observed it.
type ThrownError struct {
	Value Value
}

func (e *ThrownError) Error() string {
	return fmt.Sprintf("uncaught script value: %s", e.Value.Inspect())
}

// Throw wraps a script value as a thrown failure.
func Throw(value Value) error {
	return &ThrownError{Value: value}
}

// AsThrown extracts the thrown script value, if err is one.
func AsThrown(err error) (Value, bool) {
	var thrown *ThrownError
	if stderrors.As(err, &thrown) {
		return thrown.Value, true
	}
	return Undefined, false
}

// IsThrown reports whether err is a thrown script value.
func IsThrown(err error) bool {
	_, ok := AsThrown(err)
	return ok
}

// Internal failures. They never reach script code: the operation that sees
// one logs it and continues with Undefined.
var (
	ErrPrototypeRecursion = errors.New("prototype recursion limit reached")
	ErrNotCallable        = errors.New("value is not callable")
	ErrCallDepth          = errors.New("call depth limit reached")
)

// swallow classifies err the way every accessor-like invocation does: a
// thrown value propagates, anything else is logged and becomes Undefined.
func swallow(act *Activation, what, name string, err error) error {
	if err == nil || IsThrown(err) {
		return err
	}
	act.Logger().WithError(errors.WithMessagef(err, "%s %q", what, name)).Debug("ignoring non-script failure")
	return nil
}
