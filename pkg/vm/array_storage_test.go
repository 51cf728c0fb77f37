package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorStorageGrowAndShrink(t *testing.T) {
	assert := assert.New(t)
	s := VectorStorage()
	assert.True(s.IsVector())

	assert.Equal(3, s.SetElement(2, NumberValue(9)))
	v, ok := s.Element(0)
	assert.True(ok)
	assert.True(v.IsUndefined())
	_, ok = s.Element(3)
	assert.False(ok)

	from, to := s.SetLength(1)
	assert.Equal(1, from)
	assert.Equal(3, to)
	assert.Equal(1, s.Length())

	from, to = s.SetLength(4)
	assert.Equal(from, to)
	assert.Equal(4, s.Length())
}

func TestVectorStorageDeleteKeepsLength(t *testing.T) {
	s := VectorStorage()
	s.SetElement(0, NumberValue(1))
	s.SetElement(1, NumberValue(2))
	s.DeleteElement(0)
	s.DeleteElement(10)

	assert.Equal(t, 2, s.Length())
	v, _ := s.Element(0)
	assert.True(t, v.IsUndefined())
}

func TestPropertiesStorageOnlyCounts(t *testing.T) {
	assert := assert.New(t)
	s := PropertiesStorage(2)
	assert.False(s.IsVector())
	assert.Equal(2, s.SetElement(5, NumberValue(1)))
	from, to := s.SetLength(7)
	assert.Equal(from, to)
	assert.Equal(7, s.Length())
	_, ok := s.Element(0)
	assert.False(ok)
}
