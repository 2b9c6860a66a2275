package cos

import (
	"errors"
	"fmt"
)

// A Fault is the engine's exception. Malformed input and misuse of the
// handle API panic with a *Fault; callers that must not unwind recover it
// with Catch.
type Fault struct {
	Err error
}

func (f *Fault) Error() string { return "cos: " + f.Err.Error() }

func (f *Fault) Unwrap() error { return f.Err }

func faultf(format string, args ...any) {
	panic(&Fault{Err: fmt.Errorf(format, args...)})
}

// Catch runs fn and converts a panic raised inside it into an error.
// Panics that are not engine faults are converted too, since the parser
// indexes into untrusted data.
func Catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = AsFault(r)
		}
	}()
	fn()
	return nil
}

// AsFault converts a recovered panic value into a *Fault.
func AsFault(r any) *Fault {
	switch r := r.(type) {
	case *Fault:
		return r
	case error:
		var f *Fault
		if errors.As(r, &f) {
			return f
		}
		return &Fault{Err: r}
	default:
		return &Fault{Err: fmt.Errorf("%v", r)}
	}
}
