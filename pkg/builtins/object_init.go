package builtins

import (
	"avmcore/pkg/vm"
)

// ObjectInitializer implements the Object builtin
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject // Must be first (base prototype)
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	mc := ctx.Mutation
	objectProto := realm.ObjectPrototype

	defineMethods(ctx, objectProto, vm.DontEnum|vm.DontDelete, []method{
		{"addProperty", objectAddProperty},
		{"hasOwnProperty", objectHasOwnProperty},
		{"isPropertyEnumerable", objectIsPropertyEnumerable},
		{"isPrototypeOf", objectIsPrototypeOf},
		{"toString", objectToString},
		{"valueOf", objectValueOf},
		{"watch", objectWatch},
		{"unwatch", objectUnwatch},
	})

	ctor := vm.NewConstructor(mc, "Object",
		vm.NativeFunction(objectConstructor),
		vm.NativeFunction(objectFunction),
		realm.FunctionPrototype, objectProto)
	realm.ObjectConstructor = ctor
	return ctx.DefineGlobal("Object", vm.NewObjectValue(ctor))
}

// objectConstructor runs for `new Object(v)`: an object argument replaces
// the fresh receiver.
func objectConstructor(_ *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) > 0 && args[0].IsObject() {
		return args[0], nil
	}
	return vm.NewObjectValue(this), nil
}

// objectFunction runs for `Object(v)` and boxes its argument.
func objectFunction(act *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) > 0 {
		return vm.NewObjectValue(act.ToObject(args[0])), nil
	}
	return vm.NewObjectValue(act.Realm().NewObject(act.Mutation())), nil
}

// objectAddProperty defines a virtual property. The getter must be
// callable; the setter may be null for a read-only property.
func objectAddProperty(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) < 2 {
		return vm.False, nil
	}
	name, err := act.ToString(args[0])
	if err != nil {
		return vm.Undefined, err
	}
	if name == "" {
		return vm.False, nil
	}
	getter := args[1].AsObject()
	if getter == nil || getter.AsExecutable() == nil {
		return vm.False, nil
	}

	var setter vm.Object
	if len(args) > 2 {
		switch v := args[2]; {
		case v.IsObject():
			setter = v.AsObject()
		case v.IsNull():
		default:
			return vm.False, nil
		}
	}
	this.AddPropertyWithCase(act, name, getter, setter, 0)
	return vm.True, nil
}

// nameArg coerces the first argument to a property name.
func nameArg(act *vm.Activation, args []vm.Value) (string, bool, error) {
	if len(args) == 0 {
		return "", false, nil
	}
	name, err := act.ToString(args[0])
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func objectHasOwnProperty(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	name, ok, err := nameArg(act, args)
	if err != nil || !ok {
		return vm.False, err
	}
	return vm.BooleanValue(this.HasOwnProperty(act, name)), nil
}

func objectIsPropertyEnumerable(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	name, ok, err := nameArg(act, args)
	if err != nil || !ok {
		return vm.False, err
	}
	return vm.BooleanValue(this.IsPropertyEnumerable(act, name)), nil
}

func objectIsPrototypeOf(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) == 0 {
		return vm.False, nil
	}
	return vm.BooleanValue(vm.IsPrototypeOf(act, this, act.ToObject(args[0]))), nil
}

func objectToString(_ *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	if this.AsExecutable() != nil {
		return vm.NewString("[type Function]"), nil
	}
	return vm.NewString("[object Object]"), nil
}

func objectValueOf(_ *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	return vm.NewObjectValue(this), nil
}

// objectWatch registers callback(name, old, new, userData) on name.
func objectWatch(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	name, ok, err := nameArg(act, args)
	if err != nil || !ok {
		return vm.False, err
	}
	if len(args) < 2 {
		return vm.False, nil
	}
	callback := args[1].AsObject()
	if callback == nil || callback.AsExecutable() == nil {
		return vm.False, nil
	}
	userData := vm.Undefined
	if len(args) > 2 {
		userData = args[2]
	}
	this.SetWatcher(act, name, callback, userData)
	return vm.True, nil
}

func objectUnwatch(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	name, ok, err := nameArg(act, args)
	if err != nil || !ok {
		return vm.False, err
	}
	return vm.BooleanValue(this.RemoveWatcher(act, name)), nil
}
