package builtins

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"avmcore/pkg/coerce"
	"avmcore/pkg/vm"
)

// SortFlags is the bit set accepted by Array.prototype.sort and sortOn.
type SortFlags int32

const (
	SortCaseInsensitive    SortFlags = 1 << 0
	SortDescending         SortFlags = 1 << 1
	SortUniqueSort         SortFlags = 1 << 2
	SortReturnIndexedArray SortFlags = 1 << 3
	SortNumeric            SortFlags = 1 << 4

	sortFlagsMask = SortCaseInsensitive | SortDescending | SortUniqueSort |
		SortReturnIndexedArray | SortNumeric
)

func (f SortFlags) Has(flag SortFlags) bool {
	return f&flag != 0
}

func sortFlagsFrom(n int32) SortFlags {
	return SortFlags(n) & sortFlagsMask
}

// compareFn orders two values. A thrown error aborts the sort.
type compareFn func(act *vm.Activation, a, b vm.Value) (int, error)

// sorter owns the per-sort comparison state.
type sorter struct {
	act    *vm.Activation
	folder cases.Caser
	err    error
}

func newSorter(act *vm.Activation) *sorter {
	// Per-character lowercasing: "ß" and "ss" stay distinct.
	return &sorter{act: act, folder: cases.Lower(language.Und, cases.HandleFinalSigma(false))}
}

// fail records the first error; later comparisons are neutral.
func (s *sorter) fail(err error) int {
	if s.err == nil {
		s.err = err
	}
	return 0
}

func (s *sorter) compareString(act *vm.Activation, a, b vm.Value) (int, error) {
	as, err := act.ToString(a)
	if err != nil {
		return 0, err
	}
	bs, err := act.ToString(b)
	if err != nil {
		return 0, err
	}
	return strings.Compare(as, bs), nil
}

func (s *sorter) compareStringFold(act *vm.Activation, a, b vm.Value) (int, error) {
	as, err := act.ToString(a)
	if err != nil {
		return 0, err
	}
	bs, err := act.ToString(b)
	if err != nil {
		return 0, err
	}
	return strings.Compare(s.folder.String(as), s.folder.String(bs)), nil
}

// numericCompare compares two numbers directly, with NaN equal to
// everything; anything else falls back to a string comparison.
func (s *sorter) numericCompare(fallback compareFn) compareFn {
	return func(act *vm.Activation, a, b vm.Value) (int, error) {
		if a.IsNumber() && b.IsNumber() {
			x, y := a.AsFloat(), b.AsFloat()
			if math.IsNaN(x) || math.IsNaN(y) {
				return 0, nil
			}
			return cmp.Compare(x, y), nil
		}
		return fallback(act, a, b)
	}
}

// comparator picks the comparison for flags.
func (s *sorter) comparator(flags SortFlags) compareFn {
	str := s.compareString
	if flags.Has(SortCaseInsensitive) {
		str = s.compareStringFold
	}
	if flags.Has(SortNumeric) {
		return s.numericCompare(str)
	}
	return str
}

// userComparator adapts a script compare function. All calls of one sort
// share a single fresh receiver. Only a Number result orders the pair;
// any other result, and NaN, counts as equal.
func (s *sorter) userComparator(compare vm.Object) compareFn {
	exec := compare.AsExecutable()
	this := s.act.Realm().NewObject(s.act.Mutation())
	return func(act *vm.Activation, a, b vm.Value) (int, error) {
		if exec == nil {
			return 0, nil
		}
		result, err := act.Exec(exec, "[Compare]", this, nil, []vm.Value{a, b})
		if err != nil {
			if vm.IsThrown(err) {
				return 0, err
			}
			ignored(act, "sort comparator", err)
			return 0, nil
		}
		if !result.IsNumber() {
			return 0, nil
		}
		switch n := result.AsFloat(); {
		case n > 0:
			return 1, nil
		case n < 0:
			return -1, nil
		default:
			return 0, nil
		}
	}
}

// fieldComparator compares the named field of each element, then the
// next field on ties.
func (s *sorter) fieldComparator(fields []string, comparators []compareFn) compareFn {
	return func(act *vm.Activation, a, b vm.Value) (int, error) {
		ao := act.ToObject(a)
		bo := act.ToObject(b)
		for i, field := range fields {
			av, err := vm.GetMember(act, ao, field)
			if err != nil {
				return 0, err
			}
			bv, err := vm.GetMember(act, bo, field)
			if err != nil {
				return 0, err
			}
			ret, err := comparators[i](act, av, bv)
			if err != nil {
				return 0, err
			}
			if ret != 0 {
				return ret, nil
			}
		}
		return 0, nil
	}
}

// arraySort implements the sort overloads:
//
//	sort()                  sort(flags)
//	sort(compareFn)         sort(compareFn, flags)
//
// A leading number followed by a second number takes the flags from the
// second. A first argument that is neither a number nor an object leaves
// the array alone and returns undefined.
func arraySort(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	var compare vm.Object
	var raw vm.Value
	switch {
	case len(args) == 0:
	case args[0].IsNumber():
		raw = args[0]
		if len(args) > 1 && args[1].IsNumber() {
			raw = args[1]
		}
	case args[0].IsObject():
		compare = args[0].AsObject()
		if len(args) > 1 && args[1].IsNumber() {
			raw = args[1]
		}
	default:
		return vm.Undefined, nil
	}

	var flags SortFlags
	if raw.IsNumber() {
		flags = sortFlagsFrom(coerce.WrapInt32(raw.AsFloat()))
	}

	s := newSorter(act)
	var fn compareFn
	if compare != nil {
		fn = s.userComparator(compare)
	} else {
		fn = s.comparator(flags)
	}
	return s.sortWithFunction(this, fn, flags)
}

// arraySortOn sorts an array of objects by one or more field names, each
// with its own flags.
func arraySortOn(act *vm.Activation, this vm.Object, args []vm.Value) (vm.Value, error) {
	if len(args) == 0 {
		return vm.Undefined, nil
	}

	var fields []string
	if obj := args[0].AsObject(); obj != nil {
		for _, v := range obj.Array() {
			name, err := act.ToString(v)
			if err != nil {
				return vm.Undefined, err
			}
			fields = append(fields, name)
		}
	} else {
		name, err := act.ToString(args[0])
		if err != nil {
			return vm.Undefined, err
		}
		fields = []string{name}
	}
	if len(fields) == 0 {
		return vm.NewObjectValue(this), nil
	}

	fieldFlags := make([]SortFlags, len(fields))
	if len(args) > 1 {
		if obj := args[1].AsObject(); obj != nil {
			if obj.Length() == len(fields) {
				for i, v := range obj.Array() {
					n, err := act.ToInt32(v)
					if err != nil {
						return vm.Undefined, err
					}
					fieldFlags[i] = sortFlagsFrom(n)
				}
			} else {
				act.Logger().WithField("fields", len(fields)).WithField("flags", obj.Length()).
					Debug("sortOn: flag count does not match field count, ignoring flags")
			}
		} else {
			n, err := act.ToInt32(args[1])
			if err != nil {
				return vm.Undefined, err
			}
			for i := range fieldFlags {
				fieldFlags[i] = sortFlagsFrom(n)
			}
		}
	}

	s := newSorter(act)
	comparators := make([]compareFn, len(fields))
	for i, f := range fieldFlags {
		comparators[i] = s.comparator(f)
	}

	// The first flag set drives direction, uniqueness and the result shape.
	return s.sortWithFunction(this, s.fieldComparator(fields, comparators), fieldFlags[0])
}

type indexedValue struct {
	index int
	value vm.Value
}

// sortWithFunction runs a stable sort over the receiver's elements and
// applies the result according to flags.
func (s *sorter) sortWithFunction(this vm.Object, compare compareFn, flags SortFlags) (vm.Value, error) {
	act := s.act
	mc := act.Mutation()
	length := this.Length()

	values := make([]indexedValue, 0, length)
	for i, v := range this.Array() {
		values = append(values, indexedValue{index: i, value: v})
	}

	unique := true
	slices.SortStableFunc(values, func(a, b indexedValue) int {
		if s.err != nil {
			return 0
		}
		ret, err := compare(act, a.value, b.value)
		if err != nil {
			return s.fail(err)
		}
		if flags.Has(SortDescending) {
			ret = -ret
		}
		if ret == 0 {
			unique = false
		}
		return ret
	})
	if s.err != nil {
		return vm.Undefined, s.err
	}

	if flags.Has(SortUniqueSort) && !unique {
		return vm.IntegerValue(0), nil
	}

	if flags.Has(SortReturnIndexedArray) {
		array := act.Realm().NewArray(mc)
		array.SetLength(mc, length)
		for i, iv := range values {
			array.SetArrayElement(mc, i, vm.IntegerValue(iv.index))
		}
		return vm.NewObjectValue(array), nil
	}

	for i, iv := range values {
		this.SetArrayElement(mc, i, iv.value)
	}
	return vm.NewObjectValue(this), nil
}
