package vm

import (
	"iter"
	"strconv"

	"avmcore/pkg/gc"
)

// TypeOfObject is the typeof tag of ordinary objects.
const TypeOfObject = "object"

// ScriptObject is the base object every script-visible kind is built on.
// It never holds an internal reference across a callback: each step of a
// multi-step operation looks its slot up again, so getters, setters and
// watchers may freely mutate the object they were called for.
type ScriptObject struct {
	prototype  Value
	values     *PropertyMap[Property]
	watchers   *PropertyMap[Watcher]
	interfaces []Object
	typeOf     string
	array      ArrayStorage
}

var _ Object = (*ScriptObject)(nil)

func newScriptObject(proto Value, storage ArrayStorage) *ScriptObject {
	return &ScriptObject{
		prototype: proto,
		values:    NewPropertyMap[Property](),
		watchers:  NewPropertyMap[Watcher](),
		typeOf:    TypeOfObject,
		array:     storage,
	}
}

// NewObject allocates a plain object. proto may be nil.
func NewObject(mc *gc.Mutation, proto Object) *ScriptObject {
	return gc.Allocate(mc, newScriptObject(NewObjectValue(proto), PropertiesStorage(0)))
}

// NewArrayObject allocates an array-natured object with `length` 0.
func NewArrayObject(mc *gc.Mutation, proto Object) *ScriptObject {
	so := gc.Allocate(mc, newScriptObject(NewObjectValue(proto), VectorStorage()))
	so.SyncNativeProperty(mc, "length", IntegerValue(0), false)
	return so
}

// NewBareObject allocates an object with no prototype, used for scope
// frames.
func NewBareObject(mc *gc.Mutation) *ScriptObject {
	return gc.Allocate(mc, newScriptObject(Undefined, PropertiesStorage(0)))
}

func (so *ScriptObject) SetTypeOf(mc *gc.Mutation, typeOf string) {
	mc.Check()
	so.typeOf = typeOf
}

// SyncNativeProperty mirrors a natively held value into a stored property,
// creating it when missing. Virtual slots of the same name are left alone.
func (so *ScriptObject) SyncNativeProperty(mc *gc.Mutation, name string, value Value, enumerable bool) {
	mc.Check()
	entry := so.values.Entry(name, false)
	if !entry.Occupied() {
		var attributes Attribute
		if !enumerable {
			attributes = DontEnum
		}
		entry.Insert(StoredProperty(value, attributes))
		return
	}
	if p := entry.Value(); !p.IsVirtual() {
		p.value = value
	}
}

// RemoveNativeProperty drops a mirrored stored property. Virtual slots of
// the same name are left alone.
func (so *ScriptObject) RemoveNativeProperty(mc *gc.Mutation, name string) {
	mc.Check()
	entry := so.values.Entry(name, false)
	if entry.Occupied() && !entry.Value().IsVirtual() {
		entry.Remove()
	}
}

// Properties iterates own slots in insertion order.
func (so *ScriptObject) Properties() iter.Seq2[string, *Property] {
	return so.values.All()
}

func (so *ScriptObject) GetLocal(act *Activation, name string, this Object) (Value, bool, error) {
	prop, ok := so.values.Get(name, act.IsCaseSensitive())
	if !ok {
		return Undefined, false, nil
	}
	if !prop.IsVirtual() {
		return prop.Value(), true, nil
	}

	var exec Executable
	if getter := prop.Getter(); getter != nil {
		exec = getter.AsExecutable()
	}
	if exec == nil {
		return Undefined, false, nil
	}
	value, err := act.Exec(exec, "[Getter]", this, so, nil)
	if err != nil {
		return Undefined, true, swallow(act, "getter", name, err)
	}
	return value, true, nil
}

func (so *ScriptObject) SetLocal(act *Activation, name string, value Value, this Object, baseProto Object) error {
	cs := act.IsCaseSensitive()

	var result error
	if watcher, ok := so.watchers.Get(name, cs); ok {
		old, err := GetMember(act, so, name)
		if err != nil {
			return err
		}
		replaced, err := watcher.Call(act, name, old, value, this, baseProto)
		switch {
		case err == nil:
			value = replaced
		case IsThrown(err):
			value = Undefined
			result = err
		default:
			_ = swallow(act, "watcher", name, err)
			value = Undefined
		}
	}

	// The watcher may have reshaped the map, so the slot is looked up now.
	act.Mutation().Check()
	var setter Object
	entry := so.values.Entry(name, cs)
	if entry.Occupied() {
		setter = entry.Value().Set(value)
	} else {
		entry.Insert(StoredProperty(value, 0))
	}

	if setter != nil {
		if exec := setter.AsExecutable(); exec != nil {
			if _, err := act.Exec(exec, "[Setter]", this, baseProto, []Value{value}); err != nil {
				if err = swallow(act, "setter", name, err); err != nil {
					return err
				}
			}
		}
	}
	return result
}

func (so *ScriptObject) Call(act *Activation, name string, this Object, baseProto Object, args []Value) (Value, error) {
	return Undefined, nil
}

func (so *ScriptObject) CallSetter(act *Activation, name string, value Value) Object {
	p := so.values.GetMut(name, act.IsCaseSensitive())
	if p == nil || !p.IsVirtual() {
		return nil
	}
	return p.Set(value)
}

func (so *ScriptObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	if so.array.IsVector() {
		return NewArrayObject(act.Mutation(), this), nil
	}
	return NewObject(act.Mutation(), this), nil
}

// Delete removes an own property. It reports false when the name is absent
// or the property is DontDelete.
func (so *ScriptObject) Delete(act *Activation, name string) bool {
	act.Mutation().Check()
	cs := act.IsCaseSensitive()
	entry := so.values.Entry(name, cs)
	if !entry.Occupied() || !entry.Value().CanDelete() {
		return false
	}
	entry.Remove()
	return true
}

func (so *ScriptObject) AddProperty(mc *gc.Mutation, name string, get, set Object, attributes Attribute) {
	mc.Check()
	so.values.Insert(name, VirtualProperty(get, set, attributes), false)
}

func (so *ScriptObject) AddPropertyWithCase(act *Activation, name string, get, set Object, attributes Attribute) {
	act.Mutation().Check()
	so.values.Insert(name, VirtualProperty(get, set, attributes), act.IsCaseSensitive())
}

func (so *ScriptObject) SetWatcher(act *Activation, name string, callback Object, userData Value) {
	act.Mutation().Check()
	so.watchers.Insert(name, NewWatcher(callback, userData), act.IsCaseSensitive())
}

func (so *ScriptObject) RemoveWatcher(act *Activation, name string) bool {
	act.Mutation().Check()
	_, ok := so.watchers.Remove(name, act.IsCaseSensitive())
	return ok
}

// DefineValue installs a stored property under the exact name given.
func (so *ScriptObject) DefineValue(mc *gc.Mutation, name string, value Value, attributes Attribute) {
	mc.Check()
	so.values.Insert(name, StoredProperty(value, attributes), true)
}

func (so *ScriptObject) SetAttributes(mc *gc.Mutation, name string, set, clear Attribute) {
	mc.Check()
	if p := so.values.GetMut(name, false); p != nil {
		p.SetAttributes(p.Attributes().Apply(set, clear))
	}
}

func (so *ScriptObject) SetAllAttributes(mc *gc.Mutation, set, clear Attribute) {
	mc.Check()
	so.values.Range(func(_ string, p *Property) bool {
		p.SetAttributes(p.Attributes().Apply(set, clear))
		return true
	})
}

func (so *ScriptObject) Proto() Value {
	return so.prototype
}

func (so *ScriptObject) SetProto(mc *gc.Mutation, proto Value) {
	mc.Check()
	so.prototype = proto
}

func (so *ScriptObject) HasProperty(act *Activation, name string) bool {
	if so.HasOwnProperty(act, name) {
		return true
	}
	depth := 0
	for p := so.prototype.AsObject(); p != nil; p = p.Proto().AsObject() {
		if depth >= act.MaxPrototypeDepth() {
			return false
		}
		if p.HasOwnProperty(act, name) {
			return true
		}
		depth++
	}
	return false
}

// HasOwnProperty always reports `__proto__` as present.
func (so *ScriptObject) HasOwnProperty(act *Activation, name string) bool {
	if name == "__proto__" {
		return true
	}
	return so.values.ContainsKey(name, act.IsCaseSensitive())
}

func (so *ScriptObject) HasOwnVirtual(act *Activation, name string) bool {
	p, ok := so.values.Get(name, act.IsCaseSensitive())
	return ok && p.IsVirtual()
}

func (so *ScriptObject) IsPropertyEnumerable(act *Activation, name string) bool {
	p, ok := so.values.Get(name, act.IsCaseSensitive())
	return ok && p.IsEnumerable()
}

// GetKeys enumerates inherited keys not shadowed locally, followed by own
// enumerable keys in insertion order.
func (so *ScriptObject) GetKeys(act *Activation) []string {
	chain := []*ScriptObject{so}
	var keys []string
	for p := so.prototype.AsObject(); p != nil; p = p.Proto().AsObject() {
		if len(chain) > act.MaxPrototypeDepth() {
			act.Logger().Warn(ErrPrototypeRecursion)
			break
		}
		inner := p.AsScriptObject()
		if inner == nil {
			keys = p.GetKeys(act)
			break
		}
		chain = append(chain, inner)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		keys = chain[i].ownKeys(act, keys)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys
}

func (so *ScriptObject) ownKeys(act *Activation, inherited []string) []string {
	cs := act.IsCaseSensitive()
	out := make([]string, 0, len(inherited)+so.values.Len())
	for _, k := range inherited {
		if !so.values.ContainsKey(k, cs) {
			out = append(out, k)
		}
	}
	so.values.Range(func(k string, p *Property) bool {
		if p.IsEnumerable() {
			out = append(out, k)
		}
		return true
	})
	return out
}

func (so *ScriptObject) TypeOf() string {
	return so.typeOf
}

func (so *ScriptObject) Interfaces() []Object {
	return append([]Object(nil), so.interfaces...)
}

func (so *ScriptObject) SetInterfaces(mc *gc.Mutation, interfaces []Object) {
	mc.Check()
	so.interfaces = interfaces
}

func (so *ScriptObject) Length() int {
	return so.array.Length()
}

// SetLength resizes the element storage. Elements cut from a vector lose
// their mirrored properties, and `length` is synced either way.
func (so *ScriptObject) SetLength(mc *gc.Mutation, length int) {
	mc.Check()
	if length < 0 {
		length = 0
	}
	cutFrom, cutTo := so.array.SetLength(length)
	for i := cutFrom; i < cutTo; i++ {
		so.RemoveNativeProperty(mc, strconv.Itoa(i))
	}
	so.SyncNativeProperty(mc, "length", IntegerValue(length), false)
}

func (so *ScriptObject) Array() []Value {
	if so.array.IsVector() {
		return so.array.Snapshot()
	}
	n := so.array.Length()
	values := make([]Value, n)
	for i := range n {
		values[i] = so.ArrayElement(i)
	}
	return values
}

// ArrayElement reads element index. Counter storage reads the stored
// property of the same name while index is below the length.
func (so *ScriptObject) ArrayElement(index int) Value {
	if so.array.IsVector() {
		v, _ := so.array.Element(index)
		return v
	}
	if index < 0 || index >= so.array.Length() {
		return Undefined
	}
	if p, ok := so.values.Get(strconv.Itoa(index), false); ok && !p.IsVirtual() {
		return p.Value()
	}
	return Undefined
}

// SetArrayElement writes element index, mirroring it as an enumerable
// property, and returns the resulting length.
func (so *ScriptObject) SetArrayElement(mc *gc.Mutation, index int, value Value) int {
	if index < 0 {
		return so.array.Length()
	}
	so.SyncNativeProperty(mc, strconv.Itoa(index), value, true)
	if !so.array.IsVector() {
		return so.array.Length()
	}
	length := so.array.SetElement(index, value)
	so.SyncNativeProperty(mc, "length", IntegerValue(length), false)
	return length
}

// DeleteArrayElement clears a vector slot to Undefined. The length and the
// mirrored property are not touched.
func (so *ScriptObject) DeleteArrayElement(mc *gc.Mutation, index int) {
	mc.Check()
	so.array.DeleteElement(index)
}

func (so *ScriptObject) AsScriptObject() *ScriptObject {
	return so
}

func (so *ScriptObject) AsExecutable() Executable {
	return nil
}

// IsArray reports whether the object uses dense vector storage.
func (so *ScriptObject) IsArray() bool {
	return so.array.IsVector()
}

func (so *ScriptObject) Trace(tr *gc.Tracer) {
	so.prototype.trace(tr)
	so.values.Range(func(_ string, p *Property) bool {
		p.trace(tr)
		return true
	})
	so.watchers.Range(func(_ string, w *Watcher) bool {
		w.trace(tr)
		return true
	})
	for _, iface := range so.interfaces {
		tr.Visit(iface)
	}
	so.array.trace(tr)
}
