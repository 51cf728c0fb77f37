package vm

import (
	"avmcore/pkg/gc"
)

// Executable is the one narrow signature every getter, setter, watcher,
// comparator and user function is invoked through.
type Executable interface {
	Exec(name string, act *Activation, this Object, baseProto Object, args []Value) (Value, error)
}

// NativeFunction is a Go-implemented callable.
type NativeFunction func(act *Activation, this Object, args []Value) (Value, error)

func (fn NativeFunction) Exec(name string, act *Activation, this Object, baseProto Object, args []Value) (Value, error) {
	return fn(act, this, args)
}

// FunctionObject is a script object that can also be called. Constructors
// may carry a separate executable for `new`.
type FunctionObject struct {
	*ScriptObject
	name        string
	function    Executable
	constructor Executable
}

var _ Object = (*FunctionObject)(nil)

// NewFunction allocates a callable object. fnProto is normally
// Function.prototype; prototype, when non-nil, is linked both ways through
// the `prototype` and `constructor` properties.
func NewFunction(mc *gc.Mutation, name string, function Executable, fnProto Object, prototype Object) *FunctionObject {
	return newFunctionObject(mc, name, function, nil, fnProto, prototype)
}

// NewConstructor is NewFunction with a distinct executable run by Construct.
func NewConstructor(mc *gc.Mutation, name string, constructor, function Executable, fnProto Object, prototype Object) *FunctionObject {
	return newFunctionObject(mc, name, function, constructor, fnProto, prototype)
}

func newFunctionObject(mc *gc.Mutation, name string, function, constructor Executable, fnProto Object, prototype Object) *FunctionObject {
	fn := gc.Allocate(mc, &FunctionObject{
		ScriptObject: newScriptObject(NewObjectValue(fnProto), PropertiesStorage(0)),
		name:         name,
		function:     function,
		constructor:  constructor,
	})
	if prototype != nil {
		fn.DefineValue(mc, "prototype", NewObjectValue(prototype), DontEnum)
		prototype.DefineValue(mc, "constructor", NewObjectValue(fn), DontEnum)
	}
	return fn
}

func (f *FunctionObject) Name() string { return f.name }

func (f *FunctionObject) AsExecutable() Executable {
	return f.function
}

// AsConstructor returns the executable run by Construct.
func (f *FunctionObject) AsConstructor() Executable {
	if f.constructor != nil {
		return f.constructor
	}
	return f.function
}

func (f *FunctionObject) Call(act *Activation, name string, this Object, baseProto Object, args []Value) (Value, error) {
	if f.function == nil {
		return Undefined, nil
	}
	return act.Exec(f.function, name, this, baseProto, args)
}

func (f *FunctionObject) Trace(tr *gc.Tracer) {
	f.ScriptObject.Trace(tr)
	if t, ok := f.function.(gc.Traceable); ok {
		tr.Visit(t)
	}
	if t, ok := f.constructor.(gc.Traceable); ok {
		tr.Visit(t)
	}
}
