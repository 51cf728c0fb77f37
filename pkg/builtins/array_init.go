package builtins

import (
	"math"
	"strconv"
	"strings"

	"avmcore/pkg/coerce"
	"avmcore/pkg/vm"
)

type ArrayInitializer struct{}

func (a *ArrayInitializer) Name() string {
	return "Array"
}

func (a *ArrayInitializer) Priority() int {
	return PriorityArray // 3 - After Object (0) and Function (1)
}

func (a *ArrayInitializer) InitRuntime(ctx *RuntimeContext) error {
	realm := ctx.Realm
	mc := ctx.Mutation
	arrayProto := realm.ArrayPrototype

	defineMethods(ctx, arrayProto, vm.DontEnum, []method{
		{"push", arrayPush},
		{"unshift", arrayUnshift},
		{"shift", arrayShift},
		{"pop", arrayPop},
		{"reverse", arrayReverse},
		{"join", arrayJoin},
		{"slice", arraySlice},
		{"splice", arraySplice},
		{"concat", arrayConcat},
		{"toString", arrayToString},
		{"sort", arraySort},
		{"sortOn", arraySortOn},
	})

	ctor := vm.NewConstructor(mc, "Array",
		vm.NativeFunction(arrayConstructor),
		vm.NativeFunction(arrayFunction),
		realm.FunctionPrototype, arrayProto)

	constants := vm.DontEnum | vm.DontDelete | vm.ReadOnly
	ctor.DefineValue(mc, "CASEINSENSITIVE", vm.IntegerValue(int(SortCaseInsensitive)), constants)
	ctor.DefineValue(mc, "DESCENDING", vm.IntegerValue(int(SortDescending)), constants)
	ctor.DefineValue(mc, "UNIQUESORT", vm.IntegerValue(int(SortUniqueSort)), constants)
	ctor.DefineValue(mc, "RETURNINDEXEDARRAY", vm.IntegerValue(int(SortReturnIndexedArray)), constants)
	ctor.DefineValue(mc, "NUMERIC", vm.IntegerValue(int(SortNumeric)), constants)

	realm.ArrayConstructor = ctor
	return ctx.DefineGlobal("Array", vm.NewObjectValue(ctor))
}

// fillArray applies the constructor arguments: a single number is a length
// (negative lengths become 0, NaN is an element), anything else is the
// element list.
func fillArray(act *vm.Activation, array vm.Object, args []vm.Value) {
	mc := act.Mutation()
	if len(args) == 1 && args[0].IsNumber() {
		length := args[0].AsFloat()
		switch {
		case length >= 0:
			array.SetLength(mc, coerce.ClampInt(length))
			return
		case !math.IsNaN(length):
			array.SetLength(mc, 0)
			return
		}
	}
	for i, arg := range args {
		array.SetArrayElement(mc, i, arg)
	}
}

// arrayConstructor runs for `new Array(...)`.
func arrayConstructor(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	fillArray(act, this, args)
	return vm.NewObjectValue(this), nil
}

// arrayFunction runs for `Array(...)` without `new`.
func arrayFunction(act *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
	proto := act.Realm().ArrayPrototype
	array, err := proto.CreateBareObject(act, proto)
	if err != nil {
		return vm.Undefined, err
	}
	fillArray(act, array, args)
	return vm.NewObjectValue(array), nil
}

func arrayPush(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	oldLength := this.Length()
	newLength := oldLength + len(args)
	this.SetLength(mc, newLength)
	for i, arg := range args {
		this.SetArrayElement(mc, oldLength+i, arg)
	}
	return vm.IntegerValue(newLength), nil
}

func arrayUnshift(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	oldLength := this.Length()
	offset := len(args)
	newLength := oldLength + offset

	if oldLength > 0 {
		// Walk down so nothing is overwritten before it is moved.
		for i := newLength - 1; i >= offset; i-- {
			this.SetArrayElement(mc, i, this.ArrayElement(i-offset))
		}
	}
	for i, arg := range args {
		this.SetArrayElement(mc, i, arg)
	}
	this.SetLength(mc, newLength)
	return vm.IntegerValue(newLength), nil
}

func arrayShift(act *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	oldLength := this.Length()
	if oldLength == 0 {
		return vm.Undefined, nil
	}
	newLength := oldLength - 1
	removed := this.ArrayElement(0)
	for i := 0; i < newLength; i++ {
		this.SetArrayElement(mc, i, this.ArrayElement(i+1))
	}
	this.DeleteArrayElement(mc, newLength)
	this.Delete(act, strconv.Itoa(newLength))
	this.SetLength(mc, newLength)
	return removed, nil
}

func arrayPop(act *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	oldLength := this.Length()
	if oldLength == 0 {
		return vm.Undefined, nil
	}
	newLength := oldLength - 1
	removed := this.ArrayElement(newLength)
	this.DeleteArrayElement(mc, newLength)
	this.Delete(act, strconv.Itoa(newLength))
	this.SetLength(mc, newLength)
	return removed, nil
}

// arrayReverse reverses in place and returns the receiver.
func arrayReverse(act *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	values := this.Array()
	for i := range values {
		this.SetArrayElement(mc, i, values[len(values)-1-i])
	}
	return vm.NewObjectValue(this), nil
}

func arrayJoin(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	separator := ","
	if len(args) > 0 {
		if s, err := act.ToString(args[0]); err == nil {
			separator = s
		} else {
			ignored(act, "join separator", err)
		}
	}

	values := this.Array()
	parts := make([]string, len(values))
	for i, v := range values {
		s, err := act.ToString(v)
		if err != nil {
			ignored(act, "join element", err)
			s = "undefined"
		}
		parts[i] = s
	}
	return vm.NewString(strings.Join(parts, separator)), nil
}

func arrayToString(act *vm.Activation, this vm.Object, _ []vm.Value) (vm.Value, error) {
	return arrayJoin(act, this, nil)
}

// makeIndexAbsolute resolves a possibly negative index against length,
// clamping the result to [0, length].
func makeIndexAbsolute(index, length int) int {
	if index < 0 {
		return max(length+index, 0)
	}
	return min(index, length)
}

func arraySlice(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	length := this.Length()
	start := 0
	if f, ok := numberArg(act, args, 0); ok {
		start = makeIndexAbsolute(coerce.ClampInt(f), length)
	}
	end := length
	if f, ok := numberArg(act, args, 1); ok {
		end = makeIndexAbsolute(coerce.ClampInt(f), length)
	}

	array := act.Realm().NewArray(mc)
	if start < end {
		n := end - start
		array.SetLength(mc, n)
		for i := 0; i < n; i++ {
			array.SetArrayElement(mc, i, this.ArrayElement(start+i))
		}
	}
	return vm.NewObjectValue(array), nil
}

// arraySplice removes count elements at start, inserts the remaining
// arguments in their place and returns the removed elements.
func arraySplice(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) == 0 {
		return vm.Undefined, nil
	}
	mc := act.Mutation()
	oldLength := this.Length()

	start := 0
	if f, ok := numberArg(act, args, 0); ok {
		start = makeIndexAbsolute(coerce.ClampInt(f), oldLength)
	}
	count := oldLength
	if f, ok := numberArg(act, args, 1); ok {
		count = coerce.ClampInt(f)
	}
	if count < 0 {
		return vm.Undefined, nil
	}

	var toAdd []vm.Value
	if len(args) > 2 {
		toAdd = args[2:]
	}
	toRemove := max(min(count, oldLength-start), 0)
	offset := toRemove - len(toAdd)
	newLength := oldLength + len(toAdd) - toRemove

	removed := act.Realm().NewArray(mc)
	for i := start; i < start+toRemove; i++ {
		removed.SetArrayElement(mc, i-start, this.ArrayElement(i))
	}
	removed.SetLength(mc, toRemove)

	// The tail moves right when offset < 0, so copy from the end.
	if offset < 0 {
		for i := newLength - 1; i >= start+len(toAdd); i-- {
			this.SetArrayElement(mc, i, this.ArrayElement(i+offset))
		}
	} else {
		for i := start + len(toAdd); i < newLength; i++ {
			this.SetArrayElement(mc, i, this.ArrayElement(i+offset))
		}
	}
	for i, v := range toAdd {
		this.SetArrayElement(mc, start+i, v)
	}
	for i := newLength; i < oldLength; i++ {
		this.DeleteArrayElement(mc, i)
		this.Delete(act, strconv.Itoa(i))
	}
	this.SetLength(mc, newLength)
	return vm.NewObjectValue(removed), nil
}

// arrayConcat copies the receiver's elements, then appends each argument,
// flattening arguments that inherit from Array.prototype by one level.
func arrayConcat(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	mc := act.Mutation()
	realm := act.Realm()
	array := realm.NewArray(mc)
	length := 0

	appendElements := func(from vm.Object) {
		for i := 0; i < from.Length(); i++ {
			v, err := vm.GetMember(act, from, strconv.Itoa(i))
			if err != nil {
				ignored(act, "concat element", err)
				v = vm.Undefined
			}
			array.SetArrayElement(mc, length, v)
			length++
		}
	}

	appendElements(this)
	for _, arg := range args {
		if obj := arg.AsObject(); obj != nil && vm.IsPrototypeOf(act, realm.ArrayPrototype, obj) {
			appendElements(obj)
			continue
		}
		array.SetArrayElement(mc, length, arg)
		length++
	}
	return vm.NewObjectValue(array), nil
}
