package vm

import (
	"avmcore/pkg/gc"
)

// Realm holds one player's global object and system prototypes. Builtin
// initializers fill in the constructors.
type Realm struct {
	id int

	GlobalObject *ScriptObject

	ObjectPrototype   *ScriptObject
	FunctionPrototype *ScriptObject
	ArrayPrototype    *ScriptObject

	ObjectConstructor   *FunctionObject
	FunctionConstructor *FunctionObject
	ArrayConstructor    *FunctionObject

	initialized bool
}

// NewRealm creates a realm with its prototype chain in place: Function and
// Array prototypes inherit from Object.prototype, and Array.prototype is
// itself array-natured.
func NewRealm(mc *gc.Mutation, id int) *Realm {
	r := &Realm{id: id}
	r.ObjectPrototype = NewObject(mc, nil)
	r.FunctionPrototype = NewObject(mc, r.ObjectPrototype)
	r.ArrayPrototype = NewArrayObject(mc, r.ObjectPrototype)
	r.GlobalObject = NewObject(mc, r.ObjectPrototype)
	return r
}

func (r *Realm) ID() int {
	return r.id
}

// GetGlobal reads an own property of the global object. Globals are
// always stored, so no script code runs.
func (r *Realm) GetGlobal(name string) (Value, bool) {
	p, ok := r.GlobalObject.values.Get(name, true)
	if !ok || p.IsVirtual() {
		return Undefined, false
	}
	return p.Value(), true
}

// DefineGlobal installs a non-enumerable global.
func (r *Realm) DefineGlobal(mc *gc.Mutation, name string, value Value) {
	r.GlobalObject.DefineValue(mc, name, value, DontEnum)
}

// NewFunction allocates a native function whose prototype is this realm's
// Function.prototype.
func (r *Realm) NewFunction(mc *gc.Mutation, name string, fn NativeFunction) *FunctionObject {
	return NewFunction(mc, name, fn, r.FunctionPrototype, nil)
}

// NewArray allocates an array holding values.
func (r *Realm) NewArray(mc *gc.Mutation, values ...Value) *ScriptObject {
	arr := NewArrayObject(mc, r.ArrayPrototype)
	for i, v := range values {
		arr.SetArrayElement(mc, i, v)
	}
	return arr
}

func (r *Realm) NewObject(mc *gc.Mutation) *ScriptObject {
	return NewObject(mc, r.ObjectPrototype)
}

// Roots returns the objects that keep the realm's graph alive.
func (r *Realm) Roots() []gc.Traceable {
	roots := []gc.Traceable{r.GlobalObject, r.ObjectPrototype, r.FunctionPrototype, r.ArrayPrototype}
	for _, c := range []*FunctionObject{r.ObjectConstructor, r.FunctionConstructor, r.ArrayConstructor} {
		if c != nil {
			roots = append(roots, c)
		}
	}
	return roots
}

func (r *Realm) MarkInitialized() {
	r.initialized = true
}

func (r *Realm) IsInitialized() bool {
	return r.initialized
}
