package coerce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avmcore/pkg/gc"
	"avmcore/pkg/vm"
)

func TestFormatNumber(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-42, "-42"},
		{1.5, "1.5"},
		{0.1 + 0.2, "0.3"},
		{0.00001, "0.00001"},
		{0.000001, "1e-6"},
		{123456789012345, "123456789012345"},
		{1e15, "1e+15"},
		{1.5e21, "1.5e+21"},
		{1.0 / 3, "0.333333333333333"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	} {
		assert.Equal(t, tc.want, FormatNumber(tc.in), "%v", tc.in)
	}
}

func TestParseNumber(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(12.0, ParseNumber(" 12 "))
	assert.Equal(-0.5, ParseNumber("-.5"))
	assert.Equal(255.0, ParseNumber("0xFF"))
	assert.Equal(-16.0, ParseNumber("-0x10"))
	assert.Equal(1e3, ParseNumber("1e3"))
	assert.True(math.IsNaN(ParseNumber("")))
	assert.True(math.IsNaN(ParseNumber("abc")))
	assert.True(math.IsNaN(ParseNumber("Infinity")))
	assert.True(math.IsNaN(ParseNumber("12px")))
}

func TestWrapInt32(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(int32(0), WrapInt32(math.NaN()))
	assert.Equal(int32(0), WrapInt32(math.Inf(1)))
	assert.Equal(int32(-1), WrapInt32(4294967295))
	assert.Equal(int32(math.MinInt32), WrapInt32(2147483648))
	assert.Equal(int32(3), WrapInt32(3.9))
	assert.Equal(int32(-3), WrapInt32(-3.9))
	assert.Equal(math.MaxInt32, ClampInt(1e20))
	assert.Equal(0, ClampInt(math.NaN()))
}

func withActivation(t *testing.T, version uint8, fn func(act *vm.Activation)) {
	t.Helper()
	require.NoError(t, gc.NewArena().Mutate(func(mc *gc.Mutation) error {
		realm := vm.NewRealm(mc, 1)
		fn(vm.NewActivation(mc, realm, vm.WithSwfVersion(version), vm.WithCoercer(Legacy{})))
		return nil
	}))
}

func TestPrimitiveConversionFollowsVersion(t *testing.T) {
	withActivation(t, 6, func(act *vm.Activation) {
		s, err := act.ToString(vm.Undefined)
		require.NoError(t, err)
		assert.Equal(t, "", s)
		n, err := act.ToNumber(vm.Null)
		require.NoError(t, err)
		assert.Equal(t, 0.0, n)
	})
	withActivation(t, 7, func(act *vm.Activation) {
		s, err := act.ToString(vm.Undefined)
		require.NoError(t, err)
		assert.Equal(t, "undefined", s)
		n, err := act.ToNumber(vm.Undefined)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(n))
	})
}

func TestObjectConversionCallsMethods(t *testing.T) {
	withActivation(t, 8, func(act *vm.Activation) {
		assert := assert.New(t)
		mc := act.Mutation()
		realm := act.Realm()
		obj := realm.NewObject(mc)

		s, err := act.ToString(vm.NewObjectValue(obj))
		require.NoError(t, err)
		assert.Equal("[type Object]", s)

		obj.DefineValue(mc, "toString", vm.NewObjectValue(realm.NewFunction(mc, "toString",
			func(*vm.Activation, vm.Object, []vm.Value) (vm.Value, error) {
				return vm.NewString("custom"), nil
			})), vm.DontEnum)
		obj.DefineValue(mc, "valueOf", vm.NewObjectValue(realm.NewFunction(mc, "valueOf",
			func(*vm.Activation, vm.Object, []vm.Value) (vm.Value, error) {
				return vm.NewString("7"), nil
			})), vm.DontEnum)

		s, err = act.ToString(vm.NewObjectValue(obj))
		require.NoError(t, err)
		assert.Equal("custom", s)
		n, err := act.ToNumber(vm.NewObjectValue(obj))
		require.NoError(t, err)
		assert.Equal(7.0, n)
		i, err := act.ToInt32(vm.NewObjectValue(obj))
		require.NoError(t, err)
		assert.Equal(int32(7), i)

		thrower := realm.NewObject(mc)
		thrower.DefineValue(mc, "toString", vm.NewObjectValue(realm.NewFunction(mc, "toString",
			func(*vm.Activation, vm.Object, []vm.Value) (vm.Value, error) {
				return vm.Undefined, vm.Throw(vm.NewString("nope"))
			})), vm.DontEnum)
		_, err = act.ToString(vm.NewObjectValue(thrower))
		assert.True(vm.IsThrown(err))
	})
}

func TestToObjectBoxesPrimitives(t *testing.T) {
	withActivation(t, 8, func(act *vm.Activation) {
		realm := act.Realm()
		boxed := act.ToObject(vm.NewString("abc"))
		assert.Same(t, realm.ObjectPrototype, boxed.Proto().AsObject())
		length, err := vm.GetMember(act, boxed, "length")
		require.NoError(t, err)
		assert.Equal(t, 3.0, length.AsFloat())

		obj := realm.NewObject(act.Mutation())
		assert.Same(t, obj, act.ToObject(vm.NewObjectValue(obj)))
	})
}

func TestBoxedStringLengthCountsUTF16Units(t *testing.T) {
	withActivation(t, 8, func(act *vm.Activation) {
		for s, want := range map[string]float64{
			"":       0,
			"héllo":  5,
			"héllo😀": 7,
			"\xff":   1,
		} {
			length, err := vm.GetMember(act, act.ToObject(vm.NewString(s)), "length")
			require.NoError(t, err)
			assert.Equal(t, want, length.AsFloat(), "%q", s)
		}
	})
}
