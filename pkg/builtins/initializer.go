package builtins

import (
	"github.com/sirupsen/logrus"

	"avmcore/pkg/gc"
	"avmcore/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Array", "Object")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime installs the module's objects into the realm
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	Realm    *vm.Realm
	Mutation *gc.Mutation
	Logger   logrus.FieldLogger

	// Define a global value
	DefineGlobal func(name string, value vm.Value) error
}

// Priority constants for initialization order
const (
	PriorityObject   = 0   // Object must be first (base prototype)
	PriorityFunction = 1   // Function second (inherits from Object)
	PriorityArray    = 3   // Array third (inherits from Object)
	PriorityGlobals  = 100 // Global functions
)
