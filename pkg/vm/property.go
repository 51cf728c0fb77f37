package vm

import "avmcore/pkg/gc"

// Property is one slot of an object: either a stored value or a virtual
// accessor pair. Redefining a name replaces the slot wholesale.
type Property struct {
	virtual    bool
	value      Value  // stored slots only
	get        Object // virtual slots only
	set        Object // virtual slots only, may be nil
	attributes Attribute
}

// StoredProperty returns a slot holding value.
func StoredProperty(value Value, attributes Attribute) Property {
	return Property{value: value, attributes: attributes}
}

// VirtualProperty returns an accessor slot. set may be nil for a
// getter-only property.
func VirtualProperty(get, set Object, attributes Attribute) Property {
	return Property{virtual: true, get: get, set: set, attributes: attributes}
}

func (p *Property) IsVirtual() bool { return p.virtual }

func (p *Property) IsEnumerable() bool { return !p.attributes.Contains(DontEnum) }

func (p *Property) CanDelete() bool { return !p.attributes.Contains(DontDelete) }

func (p *Property) Attributes() Attribute { return p.attributes }

func (p *Property) SetAttributes(attributes Attribute) { p.attributes = attributes }

// Value returns the stored value; virtual slots report Undefined.
func (p *Property) Value() Value {
	if p.virtual {
		return Undefined
	}
	return p.value
}

func (p *Property) Getter() Object { return p.get }

func (p *Property) Setter() Object { return p.set }

// Set writes value into a stored slot unless it is read-only and returns
// nil. For a virtual slot nothing is stored; the setter (possibly nil) is
// returned and the caller is responsible for invoking it.
func (p *Property) Set(value Value) Object {
	if p.virtual {
		return p.set
	}
	if !p.attributes.Contains(ReadOnly) {
		p.value = value
	}
	return nil
}

func (p *Property) trace(tr *gc.Tracer) {
	if p.virtual {
		if p.get != nil {
			tr.Visit(p.get)
		}
		if p.set != nil {
			tr.Visit(p.set)
		}
		return
	}
	p.value.trace(tr)
}

func (v Value) trace(tr *gc.Tracer) {
	if v.typ == TypeObject {
		tr.Visit(v.obj)
	}
}
