package fixture

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"avmcore/pkg/driver"
	avmerrors "avmcore/pkg/errors"
	"avmcore/pkg/vm"
)

// Result is the outcome of one case. Err is nil when the case passed.
type Result struct {
	Case     string
	Err      avmerrors.Diagnostic
	Duration time.Duration
}

func (r Result) Passed() bool { return r.Err == nil }

// Report collects the results of one file.
type Report struct {
	File    *File
	Results []Result
}

// Failed returns the diagnostics of every failed case.
func (r *Report) Failed() []avmerrors.Diagnostic {
	var out []avmerrors.Diagnostic
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}

func (r *Report) Passed() bool { return len(r.Failed()) == 0 }

// Display prints every failure with its source line.
func (r *Report) Display(w io.Writer) {
	avmerrors.DisplayErrors(w, r.File.Source, r.Failed())
}

// Runner executes fixture cases against a player session.
type Runner struct {
	Player *driver.Player

	// AfterCase, if set, sees the receiver of every case that passed.
	AfterCase func(act *vm.Activation, c *Case, this vm.Value) error
}

func NewRunner(p *driver.Player) *Runner {
	return &Runner{Player: p}
}

// Run executes every case of f in order. Cases share the session, so a
// case may observe globals left behind by an earlier one.
func (r *Runner) Run(f *File) *Report {
	report := &Report{File: f}
	for i := range f.Cases {
		c := &f.Cases[i]
		start := time.Now()
		diag := r.runCase(f, c)
		res := Result{Case: c.Name, Err: diag, Duration: time.Since(start)}
		report.Results = append(report.Results, res)

		entry := r.Player.Logger().WithFields(logrus.Fields{
			"fixture":  f.Name,
			"case":     c.Name,
			"duration": res.Duration,
		})
		if diag != nil {
			entry.WithField("kind", diag.Kind()).Debug(diag.Message())
		} else {
			entry.Trace("passed")
		}
	}
	return report
}

func (r *Runner) runCase(f *File, c *Case) avmerrors.Diagnostic {
	var diag avmerrors.Diagnostic
	err := r.Player.RunVersion(c.Version, func(act *vm.Activation) error {
		diag = r.exec(act, f, c)
		return nil
	})
	if err != nil {
		return &avmerrors.FixtureError{
			Position: avmerrors.Position{File: f.Path, Line: c.Line, Column: 1},
			Msg:      err.Error(),
			Cause:    err,
		}
	}
	return diag
}

func (r *Runner) exec(act *vm.Activation, f *File, c *Case) avmerrors.Diagnostic {
	b := &builder{act: act, file: f.Path}
	casePos := avmerrors.Position{File: f.Path, Line: c.Line, Column: 1}

	this := vm.NewObjectValue(act.Realm().GlobalObject)
	if c.This.Kind != 0 {
		v, err := b.value(&c.This)
		if err != nil {
			return asDiagnostic(err, casePos)
		}
		this = v
	}
	b.this = this
	receiver := act.ToObject(this)

	args, err := b.values(&c.Args)
	if err != nil {
		return asDiagnostic(err, casePos)
	}

	var result vm.Value
	if c.Construct {
		var ctor vm.Value
		ctor, err = vm.GetMember(act, receiver, c.Method)
		if err == nil {
			if obj := ctor.AsObject(); obj != nil {
				result, err = vm.Construct(act, obj, args)
			}
		}
	} else {
		result, err = vm.CallMethod(act, receiver, c.Method, args)
	}

	if err != nil {
		thrown, ok := vm.AsThrown(err)
		if !ok || c.Throws.Kind == 0 {
			return &avmerrors.ThrownError{Position: casePos, Msg: err.Error(), Cause: err}
		}
		if err := b.compare("throws", &c.Throws, thrown); err != nil {
			return asDiagnostic(err, casePos)
		}
		return nil
	}
	if c.Throws.Kind != 0 {
		return &avmerrors.MismatchError{
			Position: b.pos(&c.Throws),
			Msg:      "call returned normally",
			Field:    "throws",
			Expected: describe(&c.Throws),
			Actual:   result.Inspect(),
		}
	}

	for _, check := range []struct {
		field  string
		node   *yaml.Node
		actual vm.Value
	}{
		{"result", &c.Result, result},
		{"after", &c.After, this},
	} {
		if check.node.Kind == 0 {
			continue
		}
		if err := b.compare(check.field, check.node, check.actual); err != nil {
			return asDiagnostic(err, casePos)
		}
	}
	if r.AfterCase != nil {
		if err := r.AfterCase(act, c, this); err != nil {
			return asDiagnostic(err, casePos)
		}
	}
	return nil
}

// asDiagnostic keeps diagnostics as they are and attributes anything
// else, such as a value thrown while reading an expectation, to the case.
func asDiagnostic(err error, pos avmerrors.Position) avmerrors.Diagnostic {
	if d, ok := err.(avmerrors.Diagnostic); ok {
		return d
	}
	if vm.IsThrown(err) {
		return &avmerrors.ThrownError{Position: pos, Msg: err.Error(), Cause: err}
	}
	return &avmerrors.FixtureError{Position: pos, Msg: err.Error(), Cause: err}
}
