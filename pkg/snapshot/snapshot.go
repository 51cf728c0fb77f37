// Package snapshot persists object graphs the way a local shared object
// does: stored values, attributes, prototypes and array nature survive,
// accessors and watchers do not.
package snapshot

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"avmcore/pkg/gc"
	"avmcore/pkg/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Kind tags an encoded value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject  // Ref indexes Snapshot.Objects
	KindBuiltin // Builtin names a realm object
)

// Value is the encoded form of a vm.Value.
type Value struct {
	Kind    Kind    `cbor:"k"`
	Bool    bool    `cbor:"b,omitempty"`
	Number  float64 `cbor:"n,omitempty"`
	String  string  `cbor:"s,omitempty"`
	Ref     int     `cbor:"r,omitempty"`
	Builtin string  `cbor:"w,omitempty"`
}

// Property is one stored slot.
type Property struct {
	Name       string `cbor:"n"`
	Value      Value  `cbor:"v"`
	Attributes uint8  `cbor:"a,omitempty"`
}

// Object is one encoded script object.
type Object struct {
	Proto      Value      `cbor:"p"`
	Array      bool       `cbor:"a,omitempty"`
	Length     int        `cbor:"l,omitempty"`
	Elements   []Value    `cbor:"e,omitempty"`
	TypeOf     string     `cbor:"t,omitempty"`
	Properties []Property `cbor:"props,omitempty"`
	Interfaces []Value    `cbor:"i,omitempty"`
}

// Snapshot is a self-contained object graph.
type Snapshot struct {
	ID         string   `cbor:"id"`
	SwfVersion uint8    `cbor:"swf"`
	CreatedAt  int64    `cbor:"created"`
	Root       Value    `cbor:"root"`
	Objects    []Object `cbor:"objects"`
}

// Marshal serializes s to canonical CBOR.
func (s *Snapshot) Marshal() ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "snapshot: unmarshal")
	}
	return &s, nil
}

// builtins names the realm objects that are referenced rather than copied.
func builtins(realm *vm.Realm) map[string]vm.Object {
	named := map[string]vm.Object{
		"_global":            realm.GlobalObject,
		"Object.prototype":   realm.ObjectPrototype,
		"Function.prototype": realm.FunctionPrototype,
		"Array.prototype":    realm.ArrayPrototype,
	}
	for name, ctor := range map[string]*vm.FunctionObject{
		"Object":   realm.ObjectConstructor,
		"Function": realm.FunctionConstructor,
		"Array":    realm.ArrayConstructor,
	} {
		if ctor != nil {
			named[name] = ctor
		}
	}
	return named
}

type encoder struct {
	builtins map[vm.Object]string
	index    map[vm.Object]int
	objects  []Object
	dropped  int
}

// Encode captures everything reachable from root through stored values,
// prototypes and interfaces. Functions other than realm builtins encode as
// undefined.
func Encode(act *vm.Activation, root vm.Value) *Snapshot {
	e := &encoder{
		builtins: map[vm.Object]string{},
		index:    map[vm.Object]int{},
	}
	for name, obj := range builtins(act.Realm()) {
		e.builtins[obj] = name
	}
	s := &Snapshot{
		ID:         uuid.NewString(),
		SwfVersion: act.SwfVersion(),
		CreatedAt:  time.Now().Unix(),
		Root:       e.value(root),
	}
	s.Objects = e.objects
	if e.dropped > 0 {
		act.Logger().WithField("functions", e.dropped).Debug("snapshot: dropped functions")
	}
	return s
}

func (e *encoder) value(v vm.Value) Value {
	switch v.Type() {
	case vm.TypeNull:
		return Value{Kind: KindNull}
	case vm.TypeBoolean:
		return Value{Kind: KindBoolean, Bool: v.AsBoolean()}
	case vm.TypeNumber:
		return Value{Kind: KindNumber, Number: v.AsFloat()}
	case vm.TypeString:
		return Value{Kind: KindString, String: v.AsString()}
	case vm.TypeObject:
		return e.object(v.AsObject())
	}
	return Value{Kind: KindUndefined}
}

func (e *encoder) object(obj vm.Object) Value {
	if name, ok := e.builtins[obj]; ok {
		return Value{Kind: KindBuiltin, Builtin: name}
	}
	if ref, ok := e.index[obj]; ok {
		return Value{Kind: KindObject, Ref: ref}
	}
	so := obj.AsScriptObject()
	if so == nil || obj.AsExecutable() != nil {
		e.dropped++
		return Value{Kind: KindUndefined}
	}

	// Reserve the slot first so cycles resolve to it.
	ref := len(e.objects)
	e.index[obj] = ref
	e.objects = append(e.objects, Object{})

	out := Object{
		Array:  so.IsArray(),
		Length: so.Length(),
		TypeOf: so.TypeOf(),
	}
	out.Proto = e.value(so.Proto())
	if out.Array {
		for _, el := range so.Array() {
			out.Elements = append(out.Elements, e.value(el))
		}
	}
	// Mirrored slots are kept too: their position, attributes and presence
	// can differ from the elements they shadow.
	for name, p := range so.Properties() {
		if p.IsVirtual() {
			continue
		}
		out.Properties = append(out.Properties, Property{
			Name:       name,
			Value:      e.value(p.Value()),
			Attributes: uint8(p.Attributes()),
		})
	}
	for _, iface := range so.Interfaces() {
		out.Interfaces = append(out.Interfaces, e.object(iface))
	}
	e.objects[ref] = out
	return Value{Kind: KindObject, Ref: ref}
}

// MaxArrayLength bounds the length a decoded array may claim.
const MaxArrayLength = 1 << 24

// Decode rebuilds the graph inside mc, linking builtin references to the
// given realm, and returns the root value.
func Decode(mc *gc.Mutation, realm *vm.Realm, s *Snapshot) (vm.Value, error) {
	named := builtins(realm)
	objects := make([]*vm.ScriptObject, len(s.Objects))
	for i, o := range s.Objects {
		if o.Array {
			objects[i] = vm.NewArrayObject(mc, nil)
		} else {
			objects[i] = vm.NewObject(mc, nil)
		}
	}

	value := func(v Value) (vm.Value, error) {
		switch v.Kind {
		case KindUndefined:
			return vm.Undefined, nil
		case KindNull:
			return vm.Null, nil
		case KindBoolean:
			return vm.BooleanValue(v.Bool), nil
		case KindNumber:
			return vm.NumberValue(v.Number), nil
		case KindString:
			return vm.NewString(v.String), nil
		case KindObject:
			if v.Ref < 0 || v.Ref >= len(objects) {
				return vm.Undefined, errors.Errorf("snapshot: object reference %d out of range", v.Ref)
			}
			return vm.NewObjectValue(objects[v.Ref]), nil
		case KindBuiltin:
			obj, ok := named[v.Builtin]
			if !ok {
				return vm.Undefined, errors.Errorf("snapshot: unknown builtin %q", v.Builtin)
			}
			return vm.NewObjectValue(obj), nil
		}
		return vm.Undefined, errors.Errorf("snapshot: unknown value kind %d", v.Kind)
	}

	for i, o := range s.Objects {
		so := objects[i]
		proto, err := value(o.Proto)
		if err != nil {
			return vm.Undefined, err
		}
		so.SetProto(mc, proto)
		if o.TypeOf != "" {
			so.SetTypeOf(mc, o.TypeOf)
		}
		if o.Array {
			if o.Length < 0 || o.Length > MaxArrayLength || len(o.Elements) > o.Length {
				return vm.Undefined, errors.Errorf("snapshot: object %d has invalid length %d with %d elements", i, o.Length, len(o.Elements))
			}
			for j, el := range o.Elements {
				v, err := value(el)
				if err != nil {
					return vm.Undefined, err
				}
				so.SetArrayElement(mc, j, v)
			}
			so.SetLength(mc, o.Length)
			// The recorded slots replace the ones the element writes mirrored.
			var synced []string
			for name := range so.Properties() {
				synced = append(synced, name)
			}
			for _, name := range synced {
				so.RemoveNativeProperty(mc, name)
			}
		}
		for _, p := range o.Properties {
			v, err := value(p.Value)
			if err != nil {
				return vm.Undefined, errors.WithMessagef(err, "property %q", p.Name)
			}
			so.DefineValue(mc, p.Name, v, vm.AttributeFromBits(int32(p.Attributes)))
		}
		var interfaces []vm.Object
		for _, iface := range o.Interfaces {
			v, err := value(iface)
			if err != nil {
				return vm.Undefined, err
			}
			if obj := v.AsObject(); obj != nil {
				interfaces = append(interfaces, obj)
			}
		}
		if len(interfaces) > 0 {
			so.SetInterfaces(mc, interfaces)
		}
	}
	return value(s.Root)
}
