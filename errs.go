package hsig

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Error is the structured error type returned by every core operation.
// Fatal reports whether the signer that produced it is now permanently
// unusable (got_fatal_error latched); once Fatal is true the caller must
// discard the signer rather than retry.
type Error interface {
	error
	Fatal() bool
	Inner() error
}

type errorImpl struct {
	msg   string
	fatal bool
	inner error
}

func (e *errorImpl) Fatal() bool { return e.fatal }
func (e *errorImpl) Inner() error { return e.inner }

func (e *errorImpl) Error() string {
	if e.inner != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.inner.Error())
	}
	return e.msg
}

func (e *errorImpl) Unwrap() error { return e.inner }

// errorf formats a new non-fatal Error.
func errorf(format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...)}
}

// fatalErrorf formats a new Error that latches the signer as unusable.
func fatalErrorf(format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), fatal: true}
}

// wrapErrorf formats a new Error that wraps another.
func wrapErrorf(err error, format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), inner: err}
}

// faultMismatchError aggregates one or more redundant-hash mismatches
// detected under FAULT_STRATEGY >= 1. Each mismatch is recorded as its
// own entry so a caller inspecting the error can see exactly which
// redundant pass disagreed.
type faultMismatchError struct {
	errs *multierror.Error
}

func newFaultMismatchError() *faultMismatchError {
	return &faultMismatchError{errs: &multierror.Error{}}
}

func (f *faultMismatchError) add(substate string, tree int) {
	f.errs = multierror.Append(f.errs, fmt.Errorf(
		"fault-detected mismatch in substate %s (tree/layer %d)", substate, tree))
}

func (f *faultMismatchError) Error() string { return f.errs.Error() }
func (f *faultMismatchError) Fatal() bool   { return true }
func (f *faultMismatchError) Inner() error  { return f.errs }
