package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	next *node
}

func (n *node) Trace(tr *Tracer) {
	if n.next != nil {
		tr.Visit(n.next)
	}
}

func TestMutationPermitScope(t *testing.T) {
	arena := NewArena()
	var leaked *Mutation
	err := arena.Mutate(func(mc *Mutation) error {
		mc.Check()
		leaked = mc
		return nil
	})
	require.NoError(t, err)
	assert.Panics(t, func() { leaked.Check() })
}

func TestMutationPermitReusedWhenNested(t *testing.T) {
	arena := NewArena()
	_ = arena.Mutate(func(outer *Mutation) error {
		return arena.Mutate(func(inner *Mutation) error {
			assert.Same(t, outer, inner)
			return nil
		})
	})
}

func TestCollectHandlesCycles(t *testing.T) {
	assert := assert.New(t)
	arena := NewArena()

	var a, b, orphan *node
	_ = arena.Mutate(func(mc *Mutation) error {
		a = Allocate(mc, &node{})
		b = Allocate(mc, &node{next: a})
		a.next = b
		orphan = Allocate(mc, &node{})
		return nil
	})

	stats := arena.Collect(a)
	assert.Equal(3, stats.Allocated)
	assert.Equal(2, stats.Live)
	assert.Equal(1, stats.Unreachable)
	assert.NotNil(orphan)
}

func TestTracerVisitsOnce(t *testing.T) {
	a := &node{}
	a.next = a
	tr := NewTracer()
	tr.Visit(a)
	tr.Visit(a)
	tr.Drain()
	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.Seen(a))
}
