package builtins

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avmcore/pkg/vm"
)

// recorder returns a function that captures its receiver and arguments.
func recorder(act *vm.Activation, this *vm.Object, args *[]vm.Value) vm.Object {
	return nativeFn(act, func(_ *vm.Activation, gotThis vm.Object, gotArgs []vm.Value) (vm.Value, error) {
		*this = gotThis
		*args = gotArgs
		return vm.NewString("done"), nil
	})
}

func TestFunctionCall(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		realm := act.Realm()
		var this vm.Object
		var args []vm.Value
		fn := recorder(act, &this, &args)
		receiverObj := realm.NewObject(act.Mutation())

		result := call(t, act, fn, "call", vm.NewObjectValue(receiverObj), vm.NumberValue(1), vm.NumberValue(2))
		assert.Equal(t, "done", result.AsString())
		assert.Same(t, receiverObj, this)
		require.Len(t, args, 2)
		assert.Equal(t, 2.0, args[1].AsFloat())

		call(t, act, fn, "call", vm.NumberValue(7))
		assert.Same(t, realm.GlobalObject, this)
		assert.Empty(t, args)

		call(t, act, fn, "call")
		assert.Same(t, realm.GlobalObject, this)
	})
}

func TestFunctionApply(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		realm := act.Realm()
		mc := act.Mutation()
		var this vm.Object
		var args []vm.Value
		fn := recorder(act, &this, &args)
		receiverObj := realm.NewObject(mc)

		list := realm.NewArray(mc, strs("a", "b", "c")...)
		call(t, act, fn, "apply", vm.NewObjectValue(receiverObj), vm.NewObjectValue(list))
		assert.Same(t, receiverObj, this)
		require.Len(t, args, 3)
		assert.Equal(t, "c", args[2].AsString())

		// Any object with a length works as an argument list.
		arrayLike := realm.NewObject(mc)
		arrayLike.DefineValue(mc, "length", vm.NumberValue(2), 0)
		arrayLike.DefineValue(mc, "0", vm.NewString("x"), 0)
		call(t, act, fn, "apply", vm.Null, vm.NewObjectValue(arrayLike))
		assert.Same(t, realm.GlobalObject, this)
		require.Len(t, args, 2)
		assert.Equal(t, "x", args[0].AsString())
		assert.True(t, args[1].IsUndefined())

		call(t, act, fn, "apply", vm.NewObjectValue(receiverObj))
		assert.Empty(t, args)
	})
}

func TestFunctionCallOnPlainObject(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		realm := act.Realm()
		callFn, err := vm.GetMember(act, realm.FunctionPrototype, "call")
		require.NoError(t, err)
		v, err := callFn.AsObject().Call(act, "call", realm.NewObject(act.Mutation()), nil, nil)
		require.NoError(t, err)
		assert.True(t, v.IsUndefined())
	})
}

func TestFunctionConstructorLinksPrototype(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		realm := act.Realm()
		ctor := global(t, act, "Function")
		proto, err := vm.GetMember(act, ctor, "prototype")
		require.NoError(t, err)
		assert.Same(t, realm.FunctionPrototype, proto.AsObject())

		fn := nativeFn(act, func(*vm.Activation, vm.Object, []vm.Value) (vm.Value, error) {
			return vm.Undefined, nil
		})
		ok, err := vm.IsInstanceOf(act, fn, ctor, realm.FunctionPrototype)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
