// Package event implements the dual event queues of the emulator.
//
// Hardware events are scheduled against the engine cycle counter. Events
// defined in wall clock terms are scheduled against a virtual time base of
// VTIME_HZ ticks per second, which is converted to cycles through the
// current clock scaling factor.
package event
