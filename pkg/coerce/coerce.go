// Package coerce converts script values to primitives the way the legacy
// player does. Object operands are converted by calling their valueOf or
// toString methods, so conversions can run script code and fail with a
// thrown value.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"avmcore/pkg/vm"
)

// Legacy implements vm.Coercer.
type Legacy struct{}

var _ vm.Coercer = Legacy{}

func (Legacy) ToString(act *vm.Activation, v vm.Value) (string, error) {
	switch v.Type() {
	case vm.TypeUndefined:
		if act.SwfVersion() >= 7 {
			return "undefined", nil
		}
		return "", nil
	case vm.TypeNull:
		return "null", nil
	case vm.TypeBoolean:
		return strconv.FormatBool(v.AsBoolean()), nil
	case vm.TypeNumber:
		return FormatNumber(v.AsFloat()), nil
	case vm.TypeString:
		return v.AsString(), nil
	}

	obj := v.AsObject()
	result, err := vm.CallMethod(act, obj, "toString", nil)
	if err != nil {
		return "", err
	}
	if result.IsString() {
		return result.AsString(), nil
	}
	if obj.AsExecutable() != nil {
		return "[type Function]", nil
	}
	return "[type Object]", nil
}

func (c Legacy) ToNumber(act *vm.Activation, v vm.Value) (float64, error) {
	switch v.Type() {
	case vm.TypeUndefined, vm.TypeNull:
		if act.SwfVersion() >= 7 {
			return math.NaN(), nil
		}
		return 0, nil
	case vm.TypeBoolean:
		if v.AsBoolean() {
			return 1, nil
		}
		return 0, nil
	case vm.TypeNumber:
		return v.AsFloat(), nil
	case vm.TypeString:
		return ParseNumber(v.AsString()), nil
	}

	prim, err := vm.CallMethod(act, v.AsObject(), "valueOf", nil)
	if err != nil {
		return 0, err
	}
	if prim.IsObject() {
		return math.NaN(), nil
	}
	return c.ToNumber(act, prim)
}

func (c Legacy) ToInt32(act *vm.Activation, v vm.Value) (int32, error) {
	f, err := c.ToNumber(act, v)
	if err != nil {
		return 0, err
	}
	return WrapInt32(f), nil
}

// ToObject returns objects unchanged and boxes primitives into plain
// objects inheriting from Object.prototype.
func (Legacy) ToObject(act *vm.Activation, v vm.Value) vm.Object {
	if obj := v.AsObject(); obj != nil {
		return obj
	}
	mc := act.Mutation()
	boxed := act.Realm().NewObject(mc)
	boxed.DefineValue(mc, "__value__", v, vm.DontEnum|vm.DontDelete|vm.ReadOnly)
	if v.IsString() {
		boxed.DefineValue(mc, "length", vm.IntegerValue(utf16Len(v.AsString())), vm.DontEnum|vm.DontDelete|vm.ReadOnly)
	}
	return boxed
}

// utf16Len counts s in UTF-16 code units. Invalid bytes decode as U+FFFD,
// one unit each.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// FormatNumber prints a number with at most 15 significant digits,
// switching to exponent notation outside [1e-5, 1e15).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	// d.dddddddddddddde±XX
	e := strconv.FormatFloat(f, 'e', 14, 64)
	mark := strings.IndexByte(e, 'e')
	digits := strings.TrimRight(e[:1]+e[2:mark], "0")
	exp, _ := strconv.Atoi(e[mark+1:])

	if exp < -5 || exp >= 15 {
		mantissa := digits[:1]
		if len(digits) > 1 {
			mantissa += "." + digits[1:]
		}
		return sign + cleanExponent(mantissa+"e"+e[mark+1:mark+2]+e[mark+2:])
	}
	if exp < 0 {
		return sign + "0." + strings.Repeat("0", -exp-1) + digits
	}
	if len(digits) <= exp+1 {
		return sign + digits + strings.Repeat("0", exp+1-len(digits))
	}
	return sign + digits[:exp+1] + "." + digits[exp+1:]
}

// cleanExponent strips leading zeros from the exponent of s.
func cleanExponent(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != 'e' && s[i] != 'E' {
			continue
		}
		if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
			j := i + 2
			for j < len(s) && s[j] == '0' {
				j++
			}
			if j >= len(s) {
				return s[:i+2] + "0"
			}
			return s[:i+2] + s[j:]
		}
		break
	}
	return s
}

// ParseNumber converts string contents to a number. Surrounding whitespace
// is ignored, `0x` prefixes are hexadecimal and anything unparseable is
// NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	body := strings.TrimLeft(s, "+-")
	if len(body) > 2 && (body[:2] == "0x" || body[:2] == "0X") {
		n, err := strconv.ParseInt(body[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		if s[0] == '-' {
			return -float64(int32(n))
		}
		return float64(int32(n))
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.ContainsAny(lower, "_x") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// WrapInt32 truncates f and wraps it into int32 range. NaN and infinities
// become 0.
func WrapInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Mod(math.Trunc(f), 4294967296))))
}

// ClampInt converts f to an int, saturating at the int32 range. NaN is 0.
func ClampInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
