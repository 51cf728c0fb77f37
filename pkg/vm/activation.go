package vm

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"avmcore/pkg/gc"
)

const (
	DefaultSwfVersion        = 8
	DefaultMaxPrototypeDepth = 255
	DefaultMaxCallDepth      = 256
)

// Coercer converts values to primitives. Object operands may run script
// code (valueOf/toString), so every conversion can fail with a thrown value.
type Coercer interface {
	ToString(act *Activation, v Value) (string, error)
	ToNumber(act *Activation, v Value) (float64, error)
	ToInt32(act *Activation, v Value) (int32, error)
	ToObject(act *Activation, v Value) Object
}

// Activation is the context every object operation runs in: the mutation
// permit, the realm holding the system prototypes, the case policy of the
// running content and the call depth.
type Activation struct {
	mc      *gc.Mutation
	realm   *Realm
	coercer Coercer
	log     logrus.FieldLogger

	swfVersion        uint8
	maxPrototypeDepth int
	maxCallDepth      int
	depth             int
	label             string
}

// ActivationOption configures a root activation.
type ActivationOption func(*Activation)

func WithSwfVersion(version uint8) ActivationOption {
	return func(act *Activation) { act.swfVersion = version }
}

func WithLogger(log logrus.FieldLogger) ActivationOption {
	return func(act *Activation) {
		if log != nil {
			act.log = log
		}
	}
}

func WithCoercer(c Coercer) ActivationOption {
	return func(act *Activation) { act.coercer = c }
}

// WithLimits sets the prototype walk and call depth limits. Non-positive
// values keep the defaults.
func WithLimits(maxPrototypeDepth, maxCallDepth int) ActivationOption {
	return func(act *Activation) {
		if maxPrototypeDepth > 0 {
			act.maxPrototypeDepth = maxPrototypeDepth
		}
		if maxCallDepth > 0 {
			act.maxCallDepth = maxCallDepth
		}
	}
}

// NewActivation creates a root activation. It must not outlive the Mutate
// call that granted mc.
func NewActivation(mc *gc.Mutation, realm *Realm, opts ...ActivationOption) *Activation {
	act := &Activation{
		mc:                mc,
		realm:             realm,
		log:               logrus.StandardLogger(),
		swfVersion:        DefaultSwfVersion,
		maxPrototypeDepth: DefaultMaxPrototypeDepth,
		maxCallDepth:      DefaultMaxCallDepth,
		label:             "[Root]",
	}
	for _, opt := range opts {
		opt(act)
	}
	return act
}

func (act *Activation) Mutation() *gc.Mutation { return act.mc }

func (act *Activation) Realm() *Realm { return act.realm }

func (act *Activation) Logger() logrus.FieldLogger { return act.log }

func (act *Activation) SwfVersion() uint8 { return act.swfVersion }

// IsCaseSensitive reports the name lookup policy: content older than
// version 7 matches names regardless of ASCII case.
func (act *Activation) IsCaseSensitive() bool { return act.swfVersion > 6 }

func (act *Activation) Depth() int { return act.depth }

func (act *Activation) MaxPrototypeDepth() int { return act.maxPrototypeDepth }

// Label names the callable this activation was created for.
func (act *Activation) Label() string { return act.label }

// Exec invokes exec in a child activation one level deeper than act.
func (act *Activation) Exec(exec Executable, label string, this Object, baseProto Object, args []Value) (Value, error) {
	if act.depth+1 >= act.maxCallDepth {
		return Undefined, errors.WithMessagef(ErrCallDepth, "calling %s", label)
	}
	child := *act
	child.depth++
	child.label = label
	child.log = act.log.WithField("callee", label)
	return exec.Exec(label, &child, this, baseProto, args)
}

func (act *Activation) coerce() Coercer {
	if act.coercer == nil {
		panic("vm: activation has no coercer")
	}
	return act.coercer
}

func (act *Activation) ToString(v Value) (string, error) {
	return act.coerce().ToString(act, v)
}

func (act *Activation) ToNumber(v Value) (float64, error) {
	return act.coerce().ToNumber(act, v)
}

func (act *Activation) ToInt32(v Value) (int32, error) {
	return act.coerce().ToInt32(act, v)
}

func (act *Activation) ToObject(v Value) Object {
	return act.coerce().ToObject(act, v)
}
