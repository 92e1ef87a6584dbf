package experiment

import (
	"reflect"
)

// Protocol is a named side-by-side comparison of a legacy operation and an
// experiment operation. Configure it with the chaining setters, then run it
// once with Execute (or build and run in one call with Run).
//
// Setters never panic. Passing a nil callable records a ConfigurationError
// that Execute returns before running anything.
type Protocol[T any] struct {
	name string

	legacy       func() (T, error)
	experiment   func() (T, error)
	compare      func(legacy, experiment T) bool
	enable       func() bool
	onDivergence func(legacy, experiment Outcome[T]) error

	err      error // First configuration error
	executed bool
}

// New creates a protocol named name with default comparison (deep equality)
// and default enablement (always). An empty name is a ConfigurationError.
func New[T any](name string) (*Protocol[T], error) {
	if name == "" {
		return nil, &ConfigurationError{Reason: ReasonMissingName}
	}
	return &Protocol[T]{
		name:    name,
		compare: defaultCompare[T],
		enable:  alwaysEnabled,
	}, nil
}

func defaultCompare[T any](legacy, experiment T) bool {
	return reflect.DeepEqual(legacy, experiment)
}

func alwaysEnabled() bool { return true }

// Name returns the protocol name.
func (p *Protocol[T]) Name() string {
	return p.name
}

// Err returns the first configuration error recorded by a setter.
func (p *Protocol[T]) Err() error {
	return p.err
}

// Legacy sets the trusted operation whose outcome is returned to the caller.
func (p *Protocol[T]) Legacy(op func() (T, error)) *Protocol[T] {
	if op == nil {
		p.fail(ReasonMissingOperation)
		return p
	}
	p.legacy = op
	return p
}

// Experiment sets the candidate operation. Its outcome is only compared.
func (p *Protocol[T]) Experiment(op func() (T, error)) *Protocol[T] {
	if op == nil {
		p.fail(ReasonMissingOperation)
		return p
	}
	p.experiment = op
	return p
}

// CompareWith replaces the equality check applied to two successful values.
// fn returns true when the values are considered equal.
func (p *Protocol[T]) CompareWith(fn func(legacy, experiment T) bool) *Protocol[T] {
	if fn == nil {
		p.fail(ReasonMissingCompare)
		return p
	}
	p.compare = fn
	return p
}

// Enable sets the predicate deciding whether the experiment runs.
// Verification mode runs the experiment regardless of it.
func (p *Protocol[T]) Enable(fn func() bool) *Protocol[T] {
	if fn == nil {
		p.fail(ReasonMissingEnable)
		return p
	}
	p.enable = fn
	return p
}

// OnDivergence sets the handler called when the outcomes differ. A non-nil
// error from the handler is returned to the caller in place of the legacy
// outcome.
func (p *Protocol[T]) OnDivergence(fn func(legacy, experiment Outcome[T]) error) *Protocol[T] {
	if fn == nil {
		p.fail(ReasonMissingHandler)
		return p
	}
	p.onDivergence = fn
	return p
}

// RaiseOnDivergence installs a handler that turns any divergence into a
// *DivergenceError. This is the handler verification mode uses by default.
func (p *Protocol[T]) RaiseOnDivergence() *Protocol[T] {
	return p.OnDivergence(p.raiseOnDivergence)
}

func (p *Protocol[T]) raiseOnDivergence(legacy, experiment Outcome[T]) error {
	return newDivergenceError(p.name, legacy, experiment)
}

func (p *Protocol[T]) fail(reason string) {
	if p.err == nil {
		p.err = &ConfigurationError{Protocol: p.name, Reason: reason}
	}
}

// validate checks the protocol is runnable and marks it executed.
func (p *Protocol[T]) validate() error {
	switch {
	case p.executed:
		return &ConfigurationError{Protocol: p.name, Reason: ReasonAlreadyExecuted}
	case p.err != nil:
		return p.err
	case p.legacy == nil:
		return &ConfigurationError{Protocol: p.name, Reason: ReasonMissingLegacy}
	case p.experiment == nil:
		return &ConfigurationError{Protocol: p.name, Reason: ReasonMissingExperiment}
	}
	p.executed = true
	return nil
}
