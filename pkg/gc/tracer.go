package gc

// Tracer performs a breadth-first walk over Traceable objects. Each object
// is traced at most once, so cyclic graphs terminate.
type Tracer struct {
	seen    map[Traceable]struct{}
	pending []Traceable
}

// NewTracer returns an empty tracer.
func NewTracer() *Tracer {
	return &Tracer{seen: make(map[Traceable]struct{})}
}

// Visit marks obj reachable and queues it for tracing. Nil is ignored.
func (tr *Tracer) Visit(obj Traceable) {
	if obj == nil {
		return
	}
	if _, ok := tr.seen[obj]; ok {
		return
	}
	tr.seen[obj] = struct{}{}
	tr.pending = append(tr.pending, obj)
}

// Drain traces queued objects until the queue is empty.
func (tr *Tracer) Drain() {
	for len(tr.pending) > 0 {
		obj := tr.pending[0]
		tr.pending = tr.pending[1:]
		obj.Trace(tr)
	}
}

// Seen reports whether obj was visited.
func (tr *Tracer) Seen(obj Traceable) bool {
	_, ok := tr.seen[obj]
	return ok
}

// Len returns the number of distinct objects visited.
func (tr *Tracer) Len() int {
	return len(tr.seen)
}
