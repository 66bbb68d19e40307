package power

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	ErrNoRecovery    = errors.New(f("supply did not recover"))
	ErrTraceEmpty    = errors.New(f("energy trace is empty"))
	ErrTraceOrder    = errors.New(f("energy trace times must increase"))
	ErrTraceFunction = errors.New(f("energy trace script has no voltage(t) function"))
	ErrTraceValue    = errors.New(f("energy trace script returned a non-number"))
	ErrMode          = errors.New(f("unknown power mode"))
)

// ErrTraceLine locates a malformed energy trace record.
type ErrTraceLine struct {
	Line int
	Err  error
}

func (err *ErrTraceLine) Error() string {
	return f("trace line %d: %v", err.Line, err.Err)
}

func (err *ErrTraceLine) Unwrap() error {
	return err.Err
}
