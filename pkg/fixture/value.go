package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	avmerrors "avmcore/pkg/errors"
	"avmcore/pkg/vm"
)

// Natives are the functions a fixture can name with !fn.
var Natives = map[string]vm.NativeFunction{
	// ascending compares two numbers.
	"ascending": func(act *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
		return compareArgs(act, args, 1)
	},
	"descending": func(act *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
		return compareArgs(act, args, -1)
	},
	// byLength orders strings by their length.
	"byLength": func(act *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
		if len(args) < 2 {
			return vm.Undefined, nil
		}
		a, err := act.ToString(args[0])
		if err != nil {
			return vm.Undefined, err
		}
		b, err := act.ToString(args[1])
		if err != nil {
			return vm.Undefined, err
		}
		return vm.IntegerValue(len(a) - len(b)), nil
	},
	"throw": func(*vm.Activation, vm.Object, []vm.Value) (vm.Value, error) {
		return vm.Undefined, vm.Throw(vm.NewString("thrown by fixture"))
	},
	"identity": func(_ *vm.Activation, _ vm.Object, args []vm.Value) (vm.Value, error) {
		if len(args) == 0 {
			return vm.Undefined, nil
		}
		return args[0], nil
	},
}

func compareArgs(act *vm.Activation, args []vm.Value, sign float64) (vm.Value, error) {
	if len(args) < 2 {
		return vm.Undefined, nil
	}
	a, err := act.ToNumber(args[0])
	if err != nil {
		return vm.Undefined, err
	}
	b, err := act.ToNumber(args[1])
	if err != nil {
		return vm.Undefined, err
	}
	return vm.NumberValue(sign * (a - b)), nil
}

// builder turns YAML nodes into script values.
type builder struct {
	act  *vm.Activation
	file string
	this vm.Value
}

func (b *builder) pos(n *yaml.Node) avmerrors.Position {
	return avmerrors.Position{File: b.file, Line: n.Line, Column: n.Column}
}

func (b *builder) fail(n *yaml.Node, format string, args ...interface{}) error {
	return &avmerrors.FixtureError{Position: b.pos(n), Msg: fmt.Sprintf(format, args...)}
}

func (b *builder) value(n *yaml.Node) (vm.Value, error) {
	mc := b.act.Mutation()
	realm := b.act.Realm()

	switch n.Kind {
	case 0:
		return vm.Undefined, nil
	case yaml.SequenceNode:
		values, err := b.values(n)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NewObjectValue(realm.NewArray(mc, values...)), nil
	case yaml.MappingNode:
		obj := realm.NewObject(mc)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := b.value(n.Content[i+1])
			if err != nil {
				return vm.Undefined, err
			}
			obj.DefineValue(mc, n.Content[i].Value, v, 0)
		}
		return vm.NewObjectValue(obj), nil
	case yaml.ScalarNode:
		return b.scalar(n)
	}
	return vm.Undefined, b.fail(n, "unsupported node kind %d", n.Kind)
}

func (b *builder) values(n *yaml.Node) ([]vm.Value, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, b.fail(n, "expected a sequence")
	}
	out := make([]vm.Value, len(n.Content))
	for i, el := range n.Content {
		v, err := b.value(el)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *builder) scalar(n *yaml.Node) (vm.Value, error) {
	switch tag := n.ShortTag(); tag {
	case tagUndefined:
		return vm.Undefined, nil
	case tagThis:
		return b.this, nil
	case tagFn:
		fn, ok := Natives[n.Value]
		if !ok {
			return vm.Undefined, b.fail(n, "unknown native %q", n.Value)
		}
		return vm.NewObjectValue(b.act.Realm().NewFunction(b.act.Mutation(), n.Value, fn)), nil
	case "!!null":
		return vm.Null, nil
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return vm.Undefined, b.fail(n, "%v", err)
		}
		return vm.BooleanValue(v), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return vm.Undefined, b.fail(n, "%v", err)
		}
		return vm.NumberValue(f), nil
	case "!!str":
		return vm.NewString(n.Value), nil
	default:
		return vm.Undefined, b.fail(n, "unsupported tag %s", tag)
	}
}

// compare checks actual against the expectation in n. Expected scalars
// match by same-value, so NaN equals NaN. Expected sequences match any
// object whose length and elements match; mappings match the named
// members only.
func (b *builder) compare(field string, n *yaml.Node, actual vm.Value) error {
	mismatch := func(expected string) error {
		return &avmerrors.MismatchError{
			Position: b.pos(n),
			Msg:      "value differs",
			Field:    field,
			Expected: expected,
			Actual:   actual.Inspect(),
		}
	}

	switch n.Kind {
	case yaml.SequenceNode:
		obj := actual.AsObject()
		if obj == nil || obj.Length() != len(n.Content) {
			return mismatch(describe(n))
		}
		for i, el := range n.Content {
			if err := b.compare(field+"["+strconv.Itoa(i)+"]", el, obj.ArrayElement(i)); err != nil {
				return err
			}
		}
		return nil
	case yaml.MappingNode:
		obj := actual.AsObject()
		if obj == nil {
			return mismatch(describe(n))
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			name := n.Content[i].Value
			got, err := vm.GetMember(b.act, obj, name)
			if err != nil {
				return err
			}
			if err := b.compare(field+"."+name, n.Content[i+1], got); err != nil {
				return err
			}
		}
		return nil
	}

	if n.ShortTag() == tagFn {
		return b.fail(n, "!fn cannot be used as an expectation")
	}
	expected, err := b.value(n)
	if err != nil {
		return err
	}
	if !expected.Is(actual) {
		return mismatch(expected.Inspect())
	}
	return nil
}

// describe renders an expectation node for messages.
func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, el := range n.Content {
			parts[i] = describe(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case yaml.MappingNode:
		var parts []string
		for i := 0; i+1 < len(n.Content); i += 2 {
			parts = append(parts, n.Content[i].Value+": "+describe(n.Content[i+1]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	if tag := n.ShortTag(); strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!") {
		return strings.TrimSpace(tag + " " + n.Value)
	}
	return n.Value
}
