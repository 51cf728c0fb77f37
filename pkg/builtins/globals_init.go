package builtins

import (
	"strings"

	"avmcore/pkg/coerce"
	"avmcore/pkg/vm"
)

// GlobalsInitializer installs the global helper functions.
type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string {
	return "Globals"
}

func (g *GlobalsInitializer) Priority() int {
	return PriorityGlobals
}

func (g *GlobalsInitializer) InitRuntime(ctx *RuntimeContext) error {
	fn := ctx.Realm.NewFunction(ctx.Mutation, "ASSetPropFlags", asSetPropFlags)
	return ctx.DefineGlobal("ASSetPropFlags", vm.NewObjectValue(fn))
}

// attributeArg reads a flag bit set, saturating to the eight attribute
// bits.
func attributeArg(act *vm.Activation, args []vm.Value, i int) vm.Attribute {
	f, ok := numberArg(act, args, i)
	if !ok {
		return 0
	}
	return vm.AttributeFromBits(int32(min(max(coerce.ClampInt(f), 0), 0xff)))
}

// asSetPropFlags(obj, props, set, clear) rewrites attribute bits. props is
// an array of names, a comma separated string, or null for every property.
func asSetPropFlags(act *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) < 2 {
		act.Logger().WithField("args", len(args)).Debug("ASSetPropFlags: too few arguments")
		return vm.Undefined, nil
	}
	target := args[0].AsObject()
	if target == nil {
		return vm.Undefined, nil
	}
	mc := act.Mutation()
	set := attributeArg(act, args, 2)
	clear := attributeArg(act, args, 3)

	var names []string
	switch props := args[1]; {
	case props.IsObject():
		for _, v := range props.AsObject().Array() {
			name, err := act.ToString(v)
			if err != nil {
				return vm.Undefined, err
			}
			names = append(names, name)
		}
	case props.IsString():
		names = strings.Split(props.AsString(), ",")
	default:
		target.SetAllAttributes(mc, set, clear)
		return vm.Undefined, nil
	}

	for _, name := range names {
		target.SetAttributes(mc, name, set, clear)
	}
	return vm.Undefined, nil
}
