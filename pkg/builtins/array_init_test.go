package builtins

import (
	"math"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avmcore/pkg/vm"
)

func TestArrayConstructor(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		ctor := global(t, act, "Array")
		construct := func(args ...vm.Value) vm.Object {
			v, err := vm.Construct(act, ctor, args)
			require.NoError(t, err)
			require.NotNil(t, v.AsObject())
			return v.AsObject()
		}

		arr := construct(vm.NumberValue(5))
		assert.Equal(t, 5, arr.Length())
		assert.True(t, arr.ArrayElement(4).IsUndefined())
		assert.True(t, vm.IsPrototypeOf(act, act.Realm().ArrayPrototype, arr))

		assert.Equal(t, 0, construct(vm.NumberValue(-3)).Length())

		arr = construct(vm.NaN)
		assert.Equal(t, 1, arr.Length())
		assert.True(t, math.IsNaN(arr.ArrayElement(0).AsFloat()))

		arr = construct(strs("a", "b")...)
		assert.Equal(t, []string{"a", "b"}, elements(t, act, arr))

		assert.Equal(t, 0, construct().Length())
	})
}

func TestArrayFunctionWithoutNew(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		ctor := global(t, act, "Array").(*vm.FunctionObject)
		v, err := ctor.Call(act, "Array", nil, nil, nums(1, 2, 3))
		require.NoError(t, err)
		arr := v.AsObject()
		require.NotNil(t, arr)
		assert.Equal(t, []string{"1", "2", "3"}, elements(t, act, arr))

		v, err = ctor.Call(act, "Array", nil, nil, nums(2))
		require.NoError(t, err)
		assert.Equal(t, 2, v.AsObject().Length())
	})
}

func TestArrayConstants(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		ctor := global(t, act, "Array")
		for name, want := range map[string]float64{
			"CASEINSENSITIVE":    1,
			"DESCENDING":         2,
			"UNIQUESORT":         4,
			"RETURNINDEXEDARRAY": 8,
			"NUMERIC":            16,
		} {
			v, err := vm.GetMember(act, ctor, name)
			require.NoError(t, err)
			assert.Equal(t, want, v.AsFloat(), name)

			require.NoError(t, vm.SetMember(act, ctor, name, vm.NumberValue(99)))
			assert.False(t, ctor.Delete(act, name))
			v, err = vm.GetMember(act, ctor, name)
			require.NoError(t, err)
			assert.Equal(t, want, v.AsFloat(), "%s is read-only", name)
		}
		assert.Empty(t, ctor.GetKeys(act))
	})
}

func TestArrayPushPop(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(1)...)
		assert.Equal(t, 3.0, call(t, act, arr, "push", nums(2, 3)...).AsFloat())
		assert.Equal(t, []string{"1", "2", "3"}, elements(t, act, arr))
		assert.Equal(t, 3.0, call(t, act, arr, "push").AsFloat())

		assert.Equal(t, 3.0, call(t, act, arr, "pop").AsFloat())
		assert.Equal(t, 2, arr.Length())
		assert.False(t, arr.HasOwnProperty(act, "2"))

		empty := newArray(act)
		assert.True(t, call(t, act, empty, "pop").IsUndefined())
		assert.Equal(t, 0, empty.Length())
	})
}

func TestArrayShiftUnshift(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(3, 4)...)
		assert.Equal(t, 4.0, call(t, act, arr, "unshift", nums(1, 2)...).AsFloat())
		assert.Equal(t, []string{"1", "2", "3", "4"}, elements(t, act, arr))

		assert.Equal(t, 1.0, call(t, act, arr, "shift").AsFloat())
		assert.Equal(t, []string{"2", "3", "4"}, elements(t, act, arr))
		assert.False(t, arr.HasOwnProperty(act, "3"))

		empty := newArray(act)
		assert.True(t, call(t, act, empty, "shift").IsUndefined())
		assert.Equal(t, 2.0, call(t, act, empty, "unshift", strs("a", "b")...).AsFloat())
		assert.Equal(t, []string{"a", "b"}, elements(t, act, empty))
	})
}

func TestArrayReverse(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(1, 2, 3)...)
		assert.Same(t, arr, call(t, act, arr, "reverse").AsObject())
		assert.Equal(t, []string{"3", "2", "1"}, elements(t, act, arr))
	})
}

func TestArrayJoin(t *testing.T) {
	values := []vm.Value{vm.NumberValue(1), vm.NumberValue(2), vm.Undefined, vm.NumberValue(4)}
	withRuntime(t, 6, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, values...)
		assert.Equal(t, "1,2,,4", call(t, act, arr, "join").AsString())
		assert.Equal(t, "1,2,,4", call(t, act, arr, "toString").AsString())
		assert.Equal(t, "1 - 2 -  - 4", call(t, act, arr, "join", vm.NewString(" - ")).AsString())
	})
	withRuntime(t, 7, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, values...)
		assert.Equal(t, "1,2,undefined,4", call(t, act, arr, "join").AsString())
		assert.Equal(t, "1222", call(t, act, newArray(act, nums(1, 2)...), "join", vm.NumberValue(22)).AsString())
	})
}

func TestArrayJoinFallsBackOnThrowingElement(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, hook *logtest.Hook) {
		mc := act.Mutation()
		bad := act.Realm().NewObject(mc)
		bad.DefineValue(mc, "toString", vm.NewObjectValue(nativeFn(act,
			func(*vm.Activation, vm.Object, []vm.Value) (vm.Value, error) {
				return vm.Undefined, vm.Throw(vm.NewString("boom"))
			})), vm.DontEnum)
		arr := newArray(act, vm.NumberValue(1), vm.NewObjectValue(bad))
		assert.Equal(t, "1,undefined", call(t, act, arr, "join").AsString())
		require.NotNil(t, hook.LastEntry())
	})
}

func TestArraySlice(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(1, 2, 3, 4, 5)...)
		slice := func(args ...vm.Value) []string {
			return elements(t, act, call(t, act, arr, "slice", args...).AsObject())
		}
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, slice())
		assert.Equal(t, []string{"2", "3"}, slice(nums(1, 3)...))
		assert.Equal(t, []string{"4", "5"}, slice(nums(-2)...))
		assert.Equal(t, []string{"2", "3", "4"}, slice(nums(1, -1)...))
		assert.Empty(t, slice(nums(3, 1)...))
		assert.Empty(t, slice(nums(10)...))
		assert.Equal(t, []string{"1", "2"}, slice(vm.NewString("x"), vm.NumberValue(2)))
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, slice(nums(-1e20, 1e20)...))
		assert.Equal(t, 5, arr.Length(), "source is untouched")
	})
}

func TestArraySplice(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(1, 2, 3, 4, 5)...)
		args := append(nums(1, 2), strs("a", "b", "c")...)
		removed := call(t, act, arr, "splice", args...).AsObject()
		require.NotNil(t, removed)
		assert.Equal(t, []string{"2", "3"}, elements(t, act, removed))
		assert.Equal(t, []string{"1", "a", "b", "c", "4", "5"}, elements(t, act, arr))
	})
}

func TestArraySpliceShrinks(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(1, 2, 3, 4, 5)...)
		removed := call(t, act, arr, "splice", vm.NumberValue(1), vm.NumberValue(3), vm.NewString("x")).AsObject()
		assert.Equal(t, []string{"2", "3", "4"}, elements(t, act, removed))
		assert.Equal(t, []string{"1", "x", "5"}, elements(t, act, arr))
		assert.False(t, arr.HasOwnProperty(act, "3"))
		assert.False(t, arr.HasOwnProperty(act, "4"))

		removed = call(t, act, arr, "splice", vm.NumberValue(-1)).AsObject()
		assert.Equal(t, []string{"5"}, elements(t, act, removed))
		assert.Equal(t, []string{"1", "x"}, elements(t, act, arr))
	})
}

func TestArraySpliceDegenerateArguments(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		arr := newArray(act, nums(1, 2, 3)...)
		assert.True(t, call(t, act, arr, "splice").IsUndefined())
		assert.True(t, call(t, act, arr, "splice", nums(0, -1)...).IsUndefined())
		assert.Equal(t, 3, arr.Length())

		removed := call(t, act, arr, "splice", nums(10, 2)...).AsObject()
		assert.Equal(t, 0, removed.Length())
		assert.Equal(t, []string{"1", "2", "3"}, elements(t, act, arr))
	})
}

func TestArrayConcat(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		mc := act.Mutation()
		arr := newArray(act, nums(1, 2)...)
		nested := newArray(act, nums(4)...)
		inner := newArray(act, vm.NumberValue(5), vm.NewObjectValue(nested))
		plain := act.Realm().NewObject(mc)

		result := call(t, act, arr, "concat", vm.NumberValue(3), vm.NewObjectValue(inner), vm.NewObjectValue(plain)).AsObject()
		require.NotNil(t, result)
		assert.Equal(t, 6, result.Length())
		assert.Equal(t, 3.0, result.ArrayElement(2).AsFloat())
		assert.Equal(t, 5.0, result.ArrayElement(3).AsFloat())
		assert.Same(t, nested, result.ArrayElement(4).AsObject(), "nested arrays are flattened one level only")
		assert.Same(t, plain, result.ArrayElement(5).AsObject())
		assert.Equal(t, 2, arr.Length(), "receiver is untouched")

		result = call(t, act, arr, "concat", vm.NewObjectValue(plain)).AsObject()
		assert.Same(t, plain, result.ArrayElement(2).AsObject())
	})
}

func TestArrayMethodsOnPlainObjects(t *testing.T) {
	withRuntime(t, 8, func(act *vm.Activation, _ *logtest.Hook) {
		mc := act.Mutation()
		realm := act.Realm()
		obj := realm.NewObject(mc)
		push, err := vm.GetMember(act, realm.ArrayPrototype, "push")
		require.NoError(t, err)
		v, err := push.AsObject().Call(act, "push", obj, nil, nums(1))
		require.NoError(t, err)
		assert.Equal(t, 1.0, v.AsFloat())
	})
}
