package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeObject
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union every script-visible datum is carried in.
// Strings are immutable Go strings; objects are shared references and may
// form cycles.
type Value struct {
	typ     ValueType
	payload uint64 // number bits or boolean
	str     string
	obj     Object
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int) Value {
	return NumberValue(float64(value))
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, str: value}
}

// NewObjectValue wraps an object reference. A nil object yields Undefined.
func NewObjectValue(obj Object) Value {
	if obj == nil {
		return Undefined
	}
	return Value{typ: TypeObject, obj: obj}
}

func (v Value) Type() ValueType { return v.typ }

// TypeName returns the name reported by the legacy typeof operator.
func (v Value) TypeName() string {
	switch v.typ {
	case TypeObject:
		if v.obj.AsExecutable() != nil {
			return "function"
		}
		return v.obj.TypeOf()
	default:
		return v.typ.String()
	}
}

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsObject() bool    { return v.typ == TypeObject }

func (v Value) AsFloat() float64 {
	if v.typ != TypeNumber {
		panic("value is not a number")
	}
	return math.Float64frombits(v.payload)
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload == 1
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return v.str
}

// AsObject returns the referenced object, or nil for non-object values.
func (v Value) AsObject() Object {
	if v.typ != TypeObject {
		return nil
	}
	return v.obj
}

// --- Equality ---

// Is reports whether two values are the same value: same type and payload,
// NaN equal to itself, objects compared by reference.
func (v Value) Is(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return v.payload == other.payload
	case TypeNumber:
		vf, of := v.AsFloat(), other.AsFloat()
		if math.IsNaN(vf) && math.IsNaN(of) {
			return true
		}
		return vf == of
	case TypeString:
		return v.str == other.str
	case TypeObject:
		return v.obj == other.obj
	default:
		return false
	}
}

// --- Debug formatting ---

// Inspect returns a developer-friendly representation of the value. It
// reads stored element values only and never invokes script code.
func (v Value) Inspect() string {
	return v.inspectWithDepth(false, 0, 4)
}

func (v Value) inspectWithDepth(nested bool, depth int, maxDepth int) string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return strconv.FormatBool(v.AsBoolean())
	case TypeNumber:
		return inspectNumber(v.AsFloat())
	case TypeString:
		if nested {
			return strconv.Quote(v.str)
		}
		return v.str
	case TypeObject:
		if depth >= maxDepth {
			return "[...]"
		}
		if v.obj.AsExecutable() != nil {
			return "[function]"
		}
		so := v.obj.AsScriptObject()
		if so != nil && so.array.IsVector() {
			elements := so.Array()
			parts := make([]string, len(elements))
			for i, el := range elements {
				parts[i] = el.inspectWithDepth(true, depth+1, maxDepth)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		if so != nil {
			var parts []string
			so.values.Range(func(name string, p *Property) bool {
				if p.IsEnumerable() && !p.IsVirtual() {
					parts = append(parts, name+": "+p.Value().inspectWithDepth(true, depth+1, maxDepth))
				}
				return true
			})
			return "{" + strings.Join(parts, ", ") + "}"
		}
		return "[object]"
	default:
		return fmt.Sprintf("<unknown type %d>", v.typ)
	}
}

func inspectNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (v Value) String() string {
	return v.Inspect()
}
