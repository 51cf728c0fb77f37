// Package builtins installs the standard library objects every realm
// starts with. Every builtin is written against the vm.Object contract
// only; none of them reach into object internals.
package builtins

import (
	"avmcore/pkg/vm"
)

// method declares one native function property.
type method struct {
	name string
	fn   vm.NativeFunction
}

// defineMethods installs methods on obj as function-valued properties.
func defineMethods(ctx *RuntimeContext, obj vm.Object, attributes vm.Attribute, methods []method) {
	for _, m := range methods {
		fn := ctx.Realm.NewFunction(ctx.Mutation, m.name, m.fn)
		obj.DefineValue(ctx.Mutation, m.name, vm.NewObjectValue(fn), attributes)
	}
}

// numberArg coerces args[i] to a number. A missing argument, or one whose
// conversion fails, reports false and the caller falls back to its
// default.
func numberArg(act *vm.Activation, args []vm.Value, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	f, err := act.ToNumber(args[i])
	if err != nil {
		ignored(act, "number argument", err)
		return 0, false
	}
	return f, true
}

// ignored logs a failure a builtin resolves to a fallback value.
func ignored(act *vm.Activation, what string, err error) {
	act.Logger().WithError(err).WithField("context", what).Debug("falling back after failed conversion")
}
