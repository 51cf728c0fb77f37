package vm

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallMethodPassesReceiverAndBase(t *testing.T) {
	withActivation(t, 8, func(act *Activation, _ *logtest.Hook) {
		mc := act.Mutation()
		realm := act.Realm()
		proto := realm.NewObject(mc)
		obj := NewObject(mc, proto)

		var gotThis, gotBase Object
		method := NewFunction(mc, "m", executableFunc(func(act *Activation, this, base Object, args []Value) (Value, error) {
			gotThis, gotBase = this, base
			return args[0], nil
		}), realm.FunctionPrototype, nil)
		proto.DefineValue(mc, "m", NewObjectValue(method), DontEnum)

		v, err := CallMethod(act, obj, "m", []Value{NumberValue(3)})
		require.NoError(t, err)
		assert.Equal(t, 3.0, v.AsFloat())
		assert.Same(t, obj, gotThis)
		assert.Same(t, proto, gotBase)

		v, err = CallMethod(act, obj, "missing", nil)
		require.NoError(t, err)
		assert.True(t, v.IsUndefined())
	})
}

type executableFunc func(act *Activation, this, base Object, args []Value) (Value, error)

func (fn executableFunc) Exec(_ string, act *Activation, this Object, base Object, args []Value) (Value, error) {
	return fn(act, this, base, args)
}

func TestIsPrototypeOf(t *testing.T) {
	withActivation(t, 8, func(act *Activation, _ *logtest.Hook) {
		realm := act.Realm()
		arr := realm.NewArray(act.Mutation())
		assert.True(t, IsPrototypeOf(act, realm.ArrayPrototype, arr))
		assert.True(t, IsPrototypeOf(act, realm.ObjectPrototype, arr))
		assert.False(t, IsPrototypeOf(act, arr, arr))
		assert.False(t, IsPrototypeOf(act, realm.FunctionPrototype, arr))
	})
}

func TestIsInstanceOfInterfaces(t *testing.T) {
	for _, tc := range []struct {
		version uint8
		want    bool
	}{{6, false}, {7, true}} {
		withActivation(t, tc.version, func(act *Activation, _ *logtest.Hook) {
			mc := act.Mutation()
			realm := act.Realm()

			ifaceProto := realm.NewObject(mc)
			iface := NewFunction(mc, "I", nil, realm.FunctionPrototype, ifaceProto)
			classProto := realm.NewObject(mc)
			classProto.SetInterfaces(mc, []Object{iface})
			class := NewFunction(mc, "C", nil, realm.FunctionPrototype, classProto)
			obj := NewObject(mc, classProto)

			ok, err := IsInstanceOf(act, obj, class, classProto)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = IsInstanceOf(act, obj, iface, ifaceProto)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok, "version %d", tc.version)
		})
	}
}

func TestConstruct(t *testing.T) {
	withActivation(t, 6, func(act *Activation, _ *logtest.Hook) {
		assert := assert.New(t)
		mc := act.Mutation()
		realm := act.Realm()
		proto := realm.NewObject(mc)
		ctor := NewFunction(mc, "Point", NativeFunction(func(act *Activation, this Object, args []Value) (Value, error) {
			return Undefined, SetMember(act, this, "x", args[0])
		}), realm.FunctionPrototype, proto)

		v, err := Construct(act, ctor, []Value{NumberValue(4)})
		require.NoError(t, err)
		obj := v.AsObject()
		require.NotNil(t, obj)
		assert.Same(proto, obj.Proto().AsObject())
		assert.Equal(4.0, mustGet(t, act, obj, "x").AsFloat())
		assert.Same(ctor, mustGet(t, act, obj, "__constructor__").AsObject())
		assert.Same(ctor, mustGet(t, act, obj, "constructor").AsObject())
		assert.Equal([]string{"x"}, obj.GetKeys(act))
		assert.Equal("function", NewObjectValue(ctor).TypeName())
	})
}

func TestCallDepthLimit(t *testing.T) {
	withActivation(t, 8, func(act *Activation, _ *logtest.Hook) {
		act.maxCallDepth = 8
		var calls int
		var recurse NativeFunction
		recurse = func(act *Activation, this Object, args []Value) (Value, error) {
			calls++
			return act.Exec(recurse, "recurse", this, nil, nil)
		}
		_, err := act.Exec(recurse, "recurse", nil, nil, nil)
		assert.ErrorIs(t, err, ErrCallDepth)
		assert.Equal(t, 7, calls)
	})
}
