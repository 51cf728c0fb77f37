package builtins

import (
	"sort"

	"github.com/pkg/errors"

	"avmcore/pkg/vm"
)

// GetStandardInitializers returns all built-in initializers sorted by priority
func GetStandardInitializers() []BuiltinInitializer {
	var initializers []BuiltinInitializer

	initializers = append(initializers, &GlobalsInitializer{})
	initializers = append(initializers, &ObjectInitializer{})
	initializers = append(initializers, &FunctionInitializer{})
	initializers = append(initializers, &ArrayInitializer{})

	// Sort by priority (lower numbers first)
	sort.Slice(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})

	return initializers
}

// Initialize runs every standard initializer against the realm held by
// ctx and marks it initialized.
func Initialize(ctx *RuntimeContext) error {
	if ctx.DefineGlobal == nil {
		ctx.DefineGlobal = func(name string, value vm.Value) error {
			ctx.Realm.DefineGlobal(ctx.Mutation, name, value)
			return nil
		}
	}
	for _, init := range GetStandardInitializers() {
		if ctx.Logger != nil {
			ctx.Logger.WithField("builtin", init.Name()).Trace("initializing")
		}
		if err := init.InitRuntime(ctx); err != nil {
			return errors.Wrapf(err, "initializing %s", init.Name())
		}
	}
	ctx.Realm.MarkInitialized()
	return nil
}
