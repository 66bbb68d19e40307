package emulator

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	ErrNotReset     = errors.New(f("emulator not reset"))
	ErrMaxCycles    = errors.New(f("cycle limit reached"))
	ErrProgramEmpty = errors.New(f("program is empty"))
	ErrConfigKey    = errors.New(f("unknown configuration key"))
	ErrConfigSupply = errors.New(f("unknown supply type"))
	ErrConfigValue  = errors.New(f("configuration value out of range"))
	ErrTraceFormat  = errors.New(f("unknown energy trace format"))
	ErrTraceSupply  = errors.New(f("energy trace requires a capacitor supply"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint32
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("$%04x %v", err.Pc, err.Err)
	}
	return f("$%04x line %d %v", err.Pc, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrConfigField locates an invalid configuration value.
type ErrConfigField struct {
	Field string
	Err   error
}

func (err *ErrConfigField) Error() string {
	return f("%v: %v", err.Field, err.Err)
}

func (err *ErrConfigField) Unwrap() error {
	return err.Err
}
