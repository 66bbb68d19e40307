package event

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	ErrFrequency = errors.New(f("clock frequency must be positive"))
)

// ErrPast is returned when an event trigger has already elapsed.
type ErrPast struct {
	Queue   string // Queue name.
	Event   string // Event name.
	Trigger int64  // Requested trigger, in cycles or virtual time.
	Now     int64  // Present cycle count or virtual time.
}

func (err *ErrPast) Error() string {
	return f("%v event %q scheduled in the past (%d < %d)", err.Queue, err.Event, err.Trigger, err.Now)
}

func (err *ErrPast) Is(target error) (ok bool) {
	_, ok = target.(*ErrPast)
	return
}
