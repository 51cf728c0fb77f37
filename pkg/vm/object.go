package vm

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"avmcore/pkg/gc"
)

// Object is the capability contract every script object kind implements.
// Name lookups follow the case policy of the activation they are given.
type Object interface {
	gc.Traceable

	// GetLocal reads an own property. found is false when the name is not
	// present on this object, which is distinct from an Undefined value.
	GetLocal(act *Activation, name string, this Object) (value Value, found bool, err error)
	// SetLocal writes an own property, running watchers and setters.
	SetLocal(act *Activation, name string, value Value, this Object, baseProto Object) error
	// Call invokes the object itself. Plain objects return Undefined.
	Call(act *Activation, name string, this Object, baseProto Object, args []Value) (Value, error)
	// CallSetter returns the setter of an own virtual property, if any.
	CallSetter(act *Activation, name string, value Value) Object
	// CreateBareObject spawns a child with the given prototype whose array
	// nature matches this object's.
	CreateBareObject(act *Activation, this Object) (Object, error)

	Delete(act *Activation, name string) bool
	AddProperty(mc *gc.Mutation, name string, get, set Object, attributes Attribute)
	AddPropertyWithCase(act *Activation, name string, get, set Object, attributes Attribute)
	SetWatcher(act *Activation, name string, callback Object, userData Value)
	RemoveWatcher(act *Activation, name string) bool
	DefineValue(mc *gc.Mutation, name string, value Value, attributes Attribute)
	SetAttributes(mc *gc.Mutation, name string, set, clear Attribute)
	SetAllAttributes(mc *gc.Mutation, set, clear Attribute)

	Proto() Value
	SetProto(mc *gc.Mutation, proto Value)
	HasProperty(act *Activation, name string) bool
	HasOwnProperty(act *Activation, name string) bool
	HasOwnVirtual(act *Activation, name string) bool
	IsPropertyEnumerable(act *Activation, name string) bool
	GetKeys(act *Activation) []string

	TypeOf() string
	Interfaces() []Object
	SetInterfaces(mc *gc.Mutation, interfaces []Object)

	Length() int
	SetLength(mc *gc.Mutation, length int)
	Array() []Value
	ArrayElement(index int) Value
	SetArrayElement(mc *gc.Mutation, index int, value Value) int
	DeleteArrayElement(mc *gc.Mutation, index int)

	AsScriptObject() *ScriptObject
	AsExecutable() Executable
}

// SearchPrototype looks name up on start and then along its prototype
// chain, passing this to any getter found. It also reports how many hops
// were taken to find the value.
func SearchPrototype(act *Activation, start Value, name string, this Object) (Value, int, error) {
	if name == "__proto__" {
		return this.Proto(), 0, nil
	}
	depth := 0
	for proto := start.AsObject(); proto != nil; proto = proto.Proto().AsObject() {
		if depth >= act.MaxPrototypeDepth() {
			return Undefined, depth, errors.WithMessagef(ErrPrototypeRecursion, "looking up %q", name)
		}
		value, found, err := proto.GetLocal(act, name, this)
		if found || err != nil {
			return value, depth, err
		}
		depth++
	}
	return Undefined, depth, nil
}

// GetMember reads name from obj or the first ancestor defining it.
func GetMember(act *Activation, obj Object, name string) (Value, error) {
	value, _, err := SearchPrototype(act, NewObjectValue(obj), name, obj)
	if errors.Is(err, ErrPrototypeRecursion) {
		act.Logger().WithField("property", name).Warn(err)
		return Undefined, nil
	}
	return value, err
}

// SetMember writes name on obj. A name not owned by obj is first offered
// to the nearest ancestor with a virtual property of that name; if one
// exists, its setter (if any) runs instead of creating an own slot.
func SetMember(act *Activation, obj Object, name string, value Value) error {
	if name == "" {
		return nil
	}
	if name == "__proto__" {
		obj.SetProto(act.Mutation(), value)
		return nil
	}
	if !obj.HasOwnProperty(act, name) {
		depth := 0
		for proto := obj; proto != nil; proto = proto.Proto().AsObject() {
			if depth >= act.MaxPrototypeDepth() {
				act.Logger().WithField("property", name).Warn(ErrPrototypeRecursion)
				return nil
			}
			depth++
			if !proto.HasOwnVirtual(act, name) {
				continue
			}
			if setter := proto.CallSetter(act, name, value); setter != nil {
				if exec := setter.AsExecutable(); exec != nil {
					// Inherited setters cannot fail the write.
					if _, err := act.Exec(exec, "[Setter]", obj, proto, []Value{value}); err != nil {
						act.Logger().WithError(err).WithField("property", name).Debug("inherited setter failed")
					}
				}
			}
			return nil
		}
	}
	return obj.SetLocal(act, name, value, obj, obj)
}

// CallMethod looks name up through obj's prototype chain and calls it with
// obj as the receiver. A missing or non-object member yields Undefined.
func CallMethod(act *Activation, obj Object, name string, args []Value) (Value, error) {
	method, depth, err := SearchPrototype(act, NewObjectValue(obj), name, obj)
	if err != nil {
		if err = swallow(act, "method", name, err); err != nil {
			return Undefined, err
		}
		return Undefined, nil
	}
	fn := method.AsObject()
	if fn == nil {
		return Undefined, nil
	}
	baseProto := obj
	for i := 0; i < depth && baseProto != nil; i++ {
		baseProto = baseProto.Proto().AsObject()
	}
	return fn.Call(act, name, obj, baseProto, args)
}

// IsPrototypeOf reports whether proto appears on obj's prototype chain.
func IsPrototypeOf(act *Activation, proto Object, obj Object) bool {
	depth := 0
	for p := obj.Proto().AsObject(); p != nil; p = p.Proto().AsObject() {
		if depth >= act.MaxPrototypeDepth() {
			return false
		}
		if p == proto {
			return true
		}
		depth++
	}
	return false
}

// IsInstanceOf implements instanceof. From version 7 on, interfaces
// declared on a prototype also count: both the interface constructor and
// its prototype chain are searched.
func IsInstanceOf(act *Activation, obj Object, constructor Object, prototype Object) (bool, error) {
	var stack []Object
	if p := obj.Proto().AsObject(); p != nil {
		stack = append(stack, p)
	}
	for visited := 0; len(stack) > 0; visited++ {
		if visited >= act.MaxPrototypeDepth() {
			act.Logger().WithFields(logrus.Fields{"visited": visited}).Warn(ErrPrototypeRecursion)
			return false, nil
		}
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == prototype {
			return true, nil
		}
		if next := p.Proto().AsObject(); next != nil {
			stack = append(stack, next)
		}
		if act.SwfVersion() < 7 {
			continue
		}
		for _, iface := range p.Interfaces() {
			if iface == constructor {
				return true, nil
			}
			ifaceProto, err := GetMember(act, iface, "prototype")
			if err != nil {
				return false, err
			}
			if o := ifaceProto.AsObject(); o != nil {
				stack = append(stack, o)
			}
		}
	}
	return false, nil
}

// Construct runs `new constructor(args...)`: a bare object is spawned from
// the constructor's prototype, tagged with its constructor, and handed to
// the constructor executable.
func Construct(act *Activation, constructor Object, args []Value) (Value, error) {
	protoValue, err := GetMember(act, constructor, "prototype")
	if err != nil {
		return Undefined, err
	}
	prototype := protoValue.AsObject()
	if prototype == nil {
		prototype = act.Realm().ObjectPrototype
	}
	this, err := prototype.CreateBareObject(act, prototype)
	if err != nil {
		return Undefined, err
	}
	mc := act.Mutation()
	this.DefineValue(mc, "__constructor__", NewObjectValue(constructor), DontEnum)
	if act.SwfVersion() < 7 {
		this.DefineValue(mc, "constructor", NewObjectValue(constructor), DontEnum)
	}

	var exec Executable
	if fn, ok := constructor.(*FunctionObject); ok {
		exec = fn.AsConstructor()
	} else {
		exec = constructor.AsExecutable()
	}
	if exec == nil {
		act.Logger().WithError(ErrNotCallable).Debug("constructing with a non-callable object")
		return NewObjectValue(this), nil
	}
	result, err := act.Exec(exec, "[ctor]", this, prototype, args)
	if err != nil {
		if err = swallow(act, "constructor", "[ctor]", err); err != nil {
			return Undefined, err
		}
		return NewObjectValue(this), nil
	}
	if result.IsObject() {
		return result, nil
	}
	return NewObjectValue(this), nil
}
