package builtins

import (
	"strconv"

	"avmcore/pkg/coerce"
	"avmcore/pkg/vm"
)

// FunctionInitializer implements the Function builtin
type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction // Must be after Object but before others
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	functionProto := realm.FunctionPrototype

	defineMethods(ctx, functionProto, vm.DontEnum|vm.DontDelete, []method{
		{"call", functionCall},
		{"apply", functionApply},
	})

	ctor := vm.NewFunction(ctx.Mutation, "Function",
		vm.NativeFunction(functionConstructor), functionProto, functionProto)
	realm.FunctionConstructor = ctor
	return ctx.DefineGlobal("Function", vm.NewObjectValue(ctor))
}

func functionConstructor(_ *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	return vm.NewObjectValue(this), nil
}

// receiver resolves the explicit this argument of call/apply. Primitives
// and missing receivers fall back to the global object.
func receiver(act *vm.Activation, args []vm.Value) vm.Object {
	if len(args) > 0 {
		if obj := args[0].AsObject(); obj != nil {
			return obj
		}
	}
	return act.Realm().GlobalObject
}

func invoke(act *vm.Activation, fn vm.Object, label string, this vm.Object, args []vm.Value) (vm.Value, error) {
	exec := fn.AsExecutable()
	if exec == nil {
		return vm.Undefined, nil
	}
	return act.Exec(exec, label, this, nil, args)
}

func functionCall(act *vm.Activation, fn vm.Object, args []vm.Value) (vm.Value, error) {
	var rest []vm.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return invoke(act, fn, "[Function.call]", receiver(act, args), rest)
}

// functionApply spreads an array-like second argument, reading its
// elements through the member protocol.
func functionApply(act *vm.Activation, fn vm.Object, args []vm.Value) (vm.Value, error) {
	var rest []vm.Value
	if len(args) > 1 {
		if list := args[1].AsObject(); list != nil {
			lengthValue, err := vm.GetMember(act, list, "length")
			if err != nil {
				return vm.Undefined, err
			}
			n, err := act.ToNumber(lengthValue)
			if err != nil {
				return vm.Undefined, err
			}
			length := max(coerce.ClampInt(n), 0)
			rest = make([]vm.Value, length)
			for i := range length {
				v, err := vm.GetMember(act, list, strconv.Itoa(i))
				if err != nil {
					return vm.Undefined, err
				}
				rest[i] = v
			}
		}
	}
	return invoke(act, fn, "[Function.apply]", receiver(act, args), rest)
}
