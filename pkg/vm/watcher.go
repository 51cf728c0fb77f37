package vm

import "avmcore/pkg/gc"

// Watcher is a pre-set interceptor registered with Object.prototype.watch.
// It runs before a write lands and may replace the value being written.
type Watcher struct {
	callback Object
	userData Value
}

func NewWatcher(callback Object, userData Value) Watcher {
	return Watcher{callback: callback, userData: userData}
}

func (w Watcher) Callback() Object { return w.callback }

func (w Watcher) UserData() Value { return w.userData }

// Call invokes the callback with (name, oldValue, newValue, userData). A
// callback that is not invocable yields Undefined without side effects.
func (w Watcher) Call(act *Activation, name string, oldValue, newValue Value, this Object, baseProto Object) (Value, error) {
	exec := w.callback.AsExecutable()
	if exec == nil {
		return Undefined, nil
	}
	args := []Value{NewString(name), oldValue, newValue, w.userData}
	return act.Exec(exec, name, this, baseProto, args)
}

func (w Watcher) trace(tr *gc.Tracer) {
	tr.Visit(w.callback)
	w.userData.trace(tr)
}
