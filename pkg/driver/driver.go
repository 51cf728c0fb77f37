package driver

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"avmcore/pkg/builtins"
	"avmcore/pkg/coerce"
	"avmcore/pkg/config"
	"avmcore/pkg/gc"
	"avmcore/pkg/vm"
)

// Player represents a persistent runtime session.
// It owns the arena and the realm, so objects and globals created by one
// Run are visible to the next.
type Player struct {
	cfg   config.Config
	log   logrus.FieldLogger
	arena *gc.Arena
	realm *vm.Realm
}

// NewPlayer creates a session with a fresh realm and installs the
// standard builtins into it.
func NewPlayer(cfg *config.Config, log logrus.FieldLogger) (*Player, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Player{
		cfg:   *cfg,
		log:   log,
		arena: gc.NewArena(),
	}
	err := p.arena.Mutate(func(mc *gc.Mutation) error {
		p.realm = vm.NewRealm(mc, 1)
		return builtins.Initialize(&builtins.RuntimeContext{
			Realm:    p.realm,
			Mutation: mc,
			Logger:   log,
		})
	})
	if err != nil {
		return nil, errors.WithMessage(err, "builtin initialization failed")
	}
	log.WithField("swf_version", cfg.Player.SwfVersion).Debug("player ready")
	return p, nil
}

// Config returns the configuration the session was created with.
func (p *Player) Config() config.Config { return p.cfg }

// Realm returns the session realm. It may only be used inside Run.
func (p *Player) Realm() *vm.Realm { return p.realm }

func (p *Player) Logger() logrus.FieldLogger { return p.log }

// Run executes fn under a mutation permit with an activation for the
// configured content version.
func (p *Player) Run(fn func(act *vm.Activation) error) error {
	return p.RunVersion(p.cfg.Player.SwfVersion, fn)
}

// RunVersion is like Run but overrides the content version. A zero
// version uses the configured one.
func (p *Player) RunVersion(version uint8, fn func(act *vm.Activation) error) error {
	if version == 0 {
		version = p.cfg.Player.SwfVersion
	}
	return p.arena.Mutate(func(mc *gc.Mutation) error {
		act := vm.NewActivation(mc, p.realm,
			vm.WithSwfVersion(version),
			vm.WithLogger(p.log),
			vm.WithCoercer(coerce.Legacy{}),
			vm.WithLimits(p.cfg.Runtime.MaxPrototypeDepth, p.cfg.Runtime.MaxCallDepth),
		)
		return fn(act)
	})
}

// Collect runs a reachability pass from the realm roots.
func (p *Player) Collect() gc.Stats {
	stats := p.arena.Collect(p.realm.Roots()...)
	p.log.WithFields(logrus.Fields{
		"live":        stats.Live,
		"unreachable": stats.Unreachable,
		"reclaimed":   stats.Reclaimed,
	}).Debug("collect")
	return stats
}

// DisplayResult prints value, or the failure if err is set, to w.
// Returns true if there was no failure.
func (p *Player) DisplayResult(w io.Writer, value vm.Value, err error) bool {
	if err != nil {
		if thrown, ok := vm.AsThrown(err); ok {
			fmt.Fprintf(w, "Uncaught %s\n", thrown.Inspect())
		} else {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return false
	}

	// Only print non-undefined results
	if !value.IsUndefined() {
		fmt.Fprintln(w, value.Inspect())
	}
	return true
}
