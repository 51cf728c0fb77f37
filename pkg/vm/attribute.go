package vm

import "strings"

// Attribute is the set of reflective flags carried by every property slot.
// The bit values match the ones scripts pass to ASSetPropFlags.
type Attribute uint8

const (
	DontEnum Attribute = 1 << iota
	DontDelete
	ReadOnly

	attributeMask = DontEnum | DontDelete | ReadOnly
)

// AttributeFromBits keeps only the known flag bits.
func AttributeFromBits(bits int32) Attribute {
	return Attribute(bits) & attributeMask
}

func (a Attribute) Contains(other Attribute) bool {
	return a&other == other
}

func (a Attribute) Union(other Attribute) Attribute {
	return a | other
}

// Difference returns a without the flags in other.
func (a Attribute) Difference(other Attribute) Attribute {
	return a &^ other
}

// Apply computes (a - clear) | set.
func (a Attribute) Apply(set, clear Attribute) Attribute {
	return a.Difference(clear).Union(set)
}

func (a Attribute) String() string {
	if a == 0 {
		return "none"
	}
	var names []string
	if a.Contains(DontEnum) {
		names = append(names, "DONT_ENUM")
	}
	if a.Contains(DontDelete) {
		names = append(names, "DONT_DELETE")
	}
	if a.Contains(ReadOnly) {
		names = append(names, "READ_ONLY")
	}
	return strings.Join(names, "|")
}
