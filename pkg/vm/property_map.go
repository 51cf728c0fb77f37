package vm

import "iter"

type propertySlot[V any] struct {
	key   string
	value V
}

// PropertyMap is an insertion-ordered map from property name to V. Every
// operation takes the case policy of the running content: case-insensitive
// lookups match any ASCII case variant of a stored key and reuse its slot,
// keeping the casing of the first insertion.
type PropertyMap[V any] struct {
	slots  []*propertySlot[V]
	exact  map[string]*propertySlot[V]
	folded map[string][]*propertySlot[V]
}

func NewPropertyMap[V any]() *PropertyMap[V] {
	return &PropertyMap[V]{
		exact:  make(map[string]*propertySlot[V]),
		folded: make(map[string][]*propertySlot[V]),
	}
}

// foldASCII lowercases ASCII letters only, matching the legacy player's
// case-insensitive name comparison.
func foldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

func (m *PropertyMap[V]) find(name string, caseSensitive bool) *propertySlot[V] {
	if slot, ok := m.exact[name]; ok {
		return slot
	}
	if caseSensitive {
		return nil
	}
	// The earliest inserted case variant wins.
	if variants := m.folded[foldASCII(name)]; len(variants) > 0 {
		return variants[0]
	}
	return nil
}

func (m *PropertyMap[V]) Len() int {
	return len(m.slots)
}

func (m *PropertyMap[V]) Get(name string, caseSensitive bool) (V, bool) {
	if slot := m.find(name, caseSensitive); slot != nil {
		return slot.value, true
	}
	var zero V
	return zero, false
}

// GetMut returns a pointer into the slot, or nil if the name is absent. The
// pointer stays valid until the name is removed.
func (m *PropertyMap[V]) GetMut(name string, caseSensitive bool) *V {
	if slot := m.find(name, caseSensitive); slot != nil {
		return &slot.value
	}
	return nil
}

func (m *PropertyMap[V]) ContainsKey(name string, caseSensitive bool) bool {
	return m.find(name, caseSensitive) != nil
}

// Entry returns the occupied or vacant position for name.
func (m *PropertyMap[V]) Entry(name string, caseSensitive bool) Entry[V] {
	return Entry[V]{m: m, name: name, slot: m.find(name, caseSensitive)}
}

// Insert upserts value. An existing slot (under the case policy) keeps its
// key and position; the previous value is returned.
func (m *PropertyMap[V]) Insert(name string, value V, caseSensitive bool) (V, bool) {
	return m.Entry(name, caseSensitive).Insert(value)
}

func (m *PropertyMap[V]) Remove(name string, caseSensitive bool) (V, bool) {
	return m.Entry(name, caseSensitive).Remove()
}

func (m *PropertyMap[V]) add(name string, value V) *propertySlot[V] {
	slot := &propertySlot[V]{key: name, value: value}
	m.slots = append(m.slots, slot)
	m.exact[name] = slot
	f := foldASCII(name)
	m.folded[f] = append(m.folded[f], slot)
	return slot
}

func (m *PropertyMap[V]) drop(slot *propertySlot[V]) {
	delete(m.exact, slot.key)
	f := foldASCII(slot.key)
	variants := m.folded[f]
	for i, s := range variants {
		if s == slot {
			variants = append(variants[:i:i], variants[i+1:]...)
			break
		}
	}
	if len(variants) == 0 {
		delete(m.folded, f)
	} else {
		m.folded[f] = variants
	}
	for i, s := range m.slots {
		if s == slot {
			copy(m.slots[i:], m.slots[i+1:])
			m.slots[len(m.slots)-1] = nil
			m.slots = m.slots[:len(m.slots)-1]
			break
		}
	}
}

// All iterates slots in insertion order. The slot list is snapshotted
// first, so callers may mutate the map while iterating.
func (m *PropertyMap[V]) All() iter.Seq2[string, *V] {
	snapshot := append([]*propertySlot[V](nil), m.slots...)
	return func(yield func(string, *V) bool) {
		for _, slot := range snapshot {
			if !yield(slot.key, &slot.value) {
				return
			}
		}
	}
}

// Range calls fn for every slot in insertion order until fn returns false.
func (m *PropertyMap[V]) Range(fn func(name string, value *V) bool) {
	for name, value := range m.All() {
		if !fn(name, value) {
			return
		}
	}
}

// Keys returns the stored keys in insertion order.
func (m *PropertyMap[V]) Keys() []string {
	keys := make([]string, len(m.slots))
	for i, slot := range m.slots {
		keys[i] = slot.key
	}
	return keys
}

// Entry is a view into a single position of a PropertyMap.
type Entry[V any] struct {
	m    *PropertyMap[V]
	name string
	slot *propertySlot[V]
}

func (e Entry[V]) Occupied() bool {
	return e.slot != nil
}

// Key returns the stored key when occupied, otherwise the requested name.
func (e Entry[V]) Key() string {
	if e.slot != nil {
		return e.slot.key
	}
	return e.name
}

// Value returns a pointer into an occupied slot, or nil when vacant.
func (e Entry[V]) Value() *V {
	if e.slot == nil {
		return nil
	}
	return &e.slot.value
}

// Insert stores value, replacing an occupied slot's value in place or
// appending a new slot under the requested name.
func (e Entry[V]) Insert(value V) (V, bool) {
	if e.slot != nil {
		old := e.slot.value
		e.slot.value = value
		return old, true
	}
	e.m.add(e.name, value)
	var zero V
	return zero, false
}

// Remove deletes an occupied slot, preserving the order of the rest.
func (e Entry[V]) Remove() (V, bool) {
	if e.slot == nil {
		var zero V
		return zero, false
	}
	e.m.drop(e.slot)
	return e.slot.value, true
}
