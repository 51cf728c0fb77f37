// Package gc is the memory substrate the object model runs on.
//
// Go already ships a tracing collector, so cyclic prototype chains and
// closures that point back at their creators are reclaimed without help.
// What the runtime still needs from this package is the bookkeeping the
// object model is specified against: scoped mutation permits, an
// allocation registry, and a reachability pass that walks every reference
// an object exposes through Trace.
package gc

import (
	"sync"
	"weak"
)

// Traceable is implemented by every heap object that owns references to
// other heap objects.
type Traceable interface {
	Trace(tr *Tracer)
}

// Stats reports the outcome of a reachability pass.
type Stats struct {
	Allocated   int // objects registered since the arena was created
	Live        int // registered objects still reachable from the roots
	Unreachable int // registered objects not reachable from the roots
	Reclaimed   int // registry entries already reclaimed by the Go collector
}

type registration struct {
	id   uint64
	load func() Traceable
}

// Arena tracks allocations and hands out mutation permits.
type Arena struct {
	mu        sync.Mutex
	nextID    uint64
	allocated int
	entries   []registration
	active    *Mutation
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Mutate runs fn under a mutation permit. The permit is revoked as soon as
// fn returns; any later use of it panics. Permits do not nest: a nested
// call reuses the permit that is already active.
func (a *Arena) Mutate(fn func(mc *Mutation) error) error {
	a.mu.Lock()
	if a.active != nil {
		mc := a.active
		a.mu.Unlock()
		return fn(mc)
	}
	mc := &Mutation{arena: a, valid: true}
	a.active = mc
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		mc.valid = false
		a.active = nil
		a.mu.Unlock()
	}()
	return fn(mc)
}

// Allocate registers obj with the arena that granted mc and returns it.
// The registry holds obj weakly, so registration never extends its
// lifetime.
func Allocate[T any, PT interface {
	*T
	Traceable
}](mc *Mutation, obj PT) PT {
	mc.Check()
	a := mc.arena
	wp := weak.Make((*T)(obj))

	a.mu.Lock()
	a.nextID++
	a.allocated++
	a.entries = append(a.entries, registration{
		id: a.nextID,
		load: func() Traceable {
			p := wp.Value()
			if p == nil {
				return nil
			}
			return PT(p)
		},
	})
	a.mu.Unlock()
	return obj
}

// Collect walks the object graph from roots and reports how many
// registered objects are still reachable. Entries whose objects were
// already reclaimed by the Go collector are pruned.
func (a *Arena) Collect(roots ...Traceable) Stats {
	tr := NewTracer()
	for _, r := range roots {
		tr.Visit(r)
	}
	tr.Drain()

	a.mu.Lock()
	defer a.mu.Unlock()

	stats := Stats{Allocated: a.allocated}
	kept := a.entries[:0]
	for _, e := range a.entries {
		obj := e.load()
		if obj == nil {
			stats.Reclaimed++
			continue
		}
		if tr.Seen(obj) {
			stats.Live++
		} else {
			stats.Unreachable++
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(a.entries); i++ {
		a.entries[i] = registration{}
	}
	a.entries = kept
	return stats
}

// Mutation is a scoped write permit granted by Arena.Mutate.
type Mutation struct {
	arena *Arena
	valid bool
}

// Check panics if the permit has outlived the Mutate call that granted it.
func (mc *Mutation) Check() {
	if mc == nil {
		panic("gc: nil mutation permit")
	}
	mc.arena.mu.Lock()
	valid := mc.valid
	mc.arena.mu.Unlock()
	if !valid {
		panic("gc: mutation permit used outside its scope")
	}
}

// Arena returns the arena that granted the permit.
func (mc *Mutation) Arena() *Arena {
	return mc.arena
}
