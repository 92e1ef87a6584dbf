package experiment

import (
	"fmt"
	"reflect"
)

// KindPanic is the failure kind assigned to recovered panics.
const KindPanic = "panic"

// Failure is a captured failure of one operation.
//
// Two failures are considered the same when both Kind and Message match.
// Err holds the original error for returned failures; Recovered holds the
// original panic value for recovered ones.
type Failure struct {
	Kind    string // Error type identifier, or KindPanic
	Message string // err.Error() or fmt.Sprint(recovered)

	Err       error
	Recovered any
}

// Kinder lets an error choose its own failure kind instead of its Go type.
type Kinder interface {
	Kind() string
}

// newFailure captures a returned error. A typed nil error (a nil pointer
// stored in a non-nil interface) is still a failure; its methods are not
// called and its message is "<nil>".
func newFailure(err error) *Failure {
	kind := fmt.Sprintf("%T", err)
	if isNilError(err) {
		return &Failure{Kind: kind, Message: "<nil>", Err: err}
	}
	if k, ok := err.(Kinder); ok {
		kind = k.Kind()
	}
	return &Failure{
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}

// isNilError reports whether err is nil or wraps a nil pointer-like value.
func isNilError(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// panicFailure captures a recovered panic value.
func panicFailure(recovered any) *Failure {
	f := &Failure{
		Kind:      KindPanic,
		Message:   fmt.Sprint(recovered),
		Recovered: recovered,
	}
	if err, ok := recovered.(error); ok {
		f.Err = err
	}
	return f
}

// Panicked reports whether the failure came from a recovered panic.
func (f *Failure) Panicked() bool {
	return f != nil && f.Kind == KindPanic && f.Recovered != nil
}

func (f *Failure) String() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome is the result of running one operation: either a value or a
// failure, never both. Outcomes are created by the engine and not mutated
// afterwards.
type Outcome[T any] struct {
	value   T
	failure *Failure
}

// Value returns the produced value. It is the zero value when Failed.
func (o Outcome[T]) Value() T {
	return o.value
}

// Failure returns the captured failure, or nil.
func (o Outcome[T]) Failure() *Failure {
	return o.failure
}

// Failed reports whether the operation failed.
func (o Outcome[T]) Failed() bool {
	return o.failure != nil
}

// String renders the outcome for divergence reports.
func (o Outcome[T]) String() string {
	if o.failure != nil {
		return fmt.Sprintf("Outcome{failure: %s}", o.failure)
	}
	return fmt.Sprintf("Outcome{value: %#v}", o.value)
}

// capture runs op and turns its result into an Outcome. Panics are
// recovered and captured as KindPanic failures. Any non-nil error interface,
// typed nil included, is captured as a returned failure.
func capture[T any](op func() (T, error)) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{failure: panicFailure(r)}
		}
	}()

	v, err := op()
	if err != nil {
		return Outcome[T]{failure: newFailure(err)}
	}
	return Outcome[T]{value: v}
}

// sameFailure compares failures by kind and message. A nil failure only
// matches another nil failure.
func sameFailure(a, b *Failure) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind == b.Kind && a.Message == b.Message
}

// diverged reports whether two outcomes differ. The comparison function is
// only consulted when neither side failed.
func diverged[T any](legacy, experiment Outcome[T], equal func(legacy, experiment T) bool) bool {
	if legacy.failure != nil || experiment.failure != nil {
		return !sameFailure(legacy.failure, experiment.failure)
	}
	return !equal(legacy.value, experiment.value)
}
