package vm

import "avmcore/pkg/gc"

// ArrayStorage is the element backing of an object. Array-natured objects
// use a dense vector whose every element is also mirrored as an enumerable
// numeric property; everything else only keeps a length counter and leaves
// numeric members to ordinary properties.
type ArrayStorage struct {
	isVector bool
	vector   []Value
	length   int
}

// VectorStorage returns empty dense storage.
func VectorStorage() ArrayStorage {
	return ArrayStorage{isVector: true}
}

// PropertiesStorage returns a bare length counter.
func PropertiesStorage(length int) ArrayStorage {
	return ArrayStorage{length: length}
}

func (s *ArrayStorage) IsVector() bool {
	return s.isVector
}

func (s *ArrayStorage) Length() int {
	if s.isVector {
		return len(s.vector)
	}
	return s.length
}

// SetLength resizes the storage. For a vector it returns the half-open
// range of indices that were cut off, which is empty when growing.
func (s *ArrayStorage) SetLength(n int) (cutFrom, cutTo int) {
	if n < 0 {
		n = 0
	}
	if !s.isVector {
		s.length = n
		return n, n
	}
	old := len(s.vector)
	s.resize(n)
	if n < old {
		return n, old
	}
	return n, n
}

func (s *ArrayStorage) resize(n int) {
	if n <= len(s.vector) {
		for i := n; i < len(s.vector); i++ {
			s.vector[i] = Value{}
		}
		s.vector = s.vector[:n]
		return
	}
	for len(s.vector) < n {
		s.vector = append(s.vector, Undefined)
	}
}

// Element reads a vector element. Past the end, or on counter storage, it
// reports false.
func (s *ArrayStorage) Element(i int) (Value, bool) {
	if !s.isVector || i < 0 || i >= len(s.vector) {
		return Undefined, false
	}
	return s.vector[i], true
}

// SetElement writes a vector element, growing the vector with Undefined as
// needed, and returns the resulting length. Counter storage is left as is.
func (s *ArrayStorage) SetElement(i int, v Value) int {
	if !s.isVector {
		return s.length
	}
	if i >= len(s.vector) {
		s.resize(i + 1)
	}
	s.vector[i] = v
	return len(s.vector)
}

// DeleteElement clears a vector element to Undefined without shrinking.
func (s *ArrayStorage) DeleteElement(i int) {
	if s.isVector && i >= 0 && i < len(s.vector) {
		s.vector[i] = Undefined
	}
}

// Snapshot copies the vector elements.
func (s *ArrayStorage) Snapshot() []Value {
	return append([]Value(nil), s.vector...)
}

func (s *ArrayStorage) trace(tr *gc.Tracer) {
	for _, v := range s.vector {
		v.trace(tr)
	}
}
