// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package checkpoint

import (
	"slices"

	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/translate"
)

// DEFAULT_FUNCTION is the symbol of the checkpoint function.
const DEFAULT_FUNCTION = "__mementos_checkpoint"

// Registers a checkpoint function must preserve: the callee saved
// registers of the MSP430 ABI, and the stack pointer.
var DefaultPreserved = []int{cpu.SP, 4, 5, 6, 7, 8, 9, 10}

// Tracker is a checkpoint validator. A checkpoint is good if the
// function returns to its caller with the preserved registers intact,
// and, when a marker is configured, with the marker word written.
type Tracker struct {
	Verbose bool // Set to enable verbose logging.

	Function    uint32 // Address of the checkpoint function.
	Preserved   []int  // Registers compared between entry and return.
	Marker      uint32 // Optional address of the completion marker word.
	MarkerValue uint32 // Value of the marker word after a good checkpoint.

	Checkpoints int   // Good checkpoints called by the program.
	Fakes       int   // Good checkpoints forced by the voltage oracle.
	Bad         int   // Checkpoints that failed validation.
	Overflows   int   // Calls lost to a full call stack.
	Spent       int64 // Cycles spent in good checkpoints.

	Registers [cpu.REGISTERS]uint32 // Registers at entry of the last good checkpoint.

	stack      Stack
	entry      [cpu.REGISTERS]uint32
	entered    int64
	last       Frame
	lastCycles int64
}

var _ cpu.Validator = (*Tracker)(nil)

// NewTracker creates a tracker for the checkpoint function at address.
func NewTracker(address uint32) *Tracker {
	return &Tracker{
		Function:  address,
		Preserved: slices.Clone(DefaultPreserved),
	}
}

func (t *Tracker) IsCheckpoint(address uint32) bool {
	return address == t.Function
}

func (t *Tracker) InCheckpoint() bool {
	return !t.stack.Empty()
}

// Depth returns the call depth inside the checkpoint function.
func (t *Tracker) Depth() int {
	return t.stack.Depth()
}

func (t *Tracker) CheckpointAddress() (address uint32, ok bool) {
	return t.Function, true
}

func (t *Tracker) LastCheckpointCycles() int64 {
	return t.lastCycles
}

// PreCall records the registers on entry to the checkpoint function.
func (t *Tracker) PreCall(regs *[cpu.REGISTERS]uint32, bus *memory.Bus, cycles int64) {
	t.entry = *regs
	t.entered = cycles

	if t.Marker != 0 {
		// Stale markers from an earlier checkpoint must not count.
		bus.Write(t.Marker, ^t.MarkerValue, memory.MODE_WORD, cycles)
	}

	if t.Verbose {
		translate.Logf("checkpoint: enter $%04x from $%04x, cycles=%d", t.Function, regs[cpu.PC], cycles)
	}
}

func (t *Tracker) PushCall(fake bool) {
	frame := Frame{Fake: fake, Cycles: t.entered}
	if !t.stack.Push(frame) {
		t.Overflows++
		translate.Logf("checkpoint: call depth exceeds %d", STACK_LIMIT)
	}
}

func (t *Tracker) PopCall() (depth int) {
	frame, ok := t.stack.Pop()
	if ok && t.stack.Empty() {
		t.last = frame
	}
	return t.stack.Depth()
}

// PostCall validates the checkpoint that just returned.
func (t *Tracker) PostCall(regs *[cpu.REGISTERS]uint32, bus *memory.Bus, cycles int64) (ok bool) {
	ok = true
	for _, reg := range t.Preserved {
		if regs[reg] != t.entry[reg] {
			if t.Verbose {
				translate.Logf("checkpoint: r%d changed from $%04x to $%04x", reg, t.entry[reg], regs[reg])
			}
			ok = false
		}
	}

	if ok && t.Marker != 0 {
		marker := bus.Read(t.Marker, memory.MODE_WORD, cycles)
		ok = marker == t.MarkerValue&0xffff
	}

	if !ok {
		t.Bad++
		return
	}

	if t.last.Fake {
		t.Fakes++
	} else {
		t.Checkpoints++
	}
	t.Spent += cycles - t.last.Cycles
	t.Registers = t.entry
	t.lastCycles = cycles

	if t.Verbose {
		translate.Logf("checkpoint: complete (fake=%v), cycles=%d", t.last.Fake, cycles)
	}

	return
}

// Reset forgets the calls in progress and the last checkpoint of the
// lifecycle. Counters are kept.
func (t *Tracker) Reset() {
	t.stack.Reset()
	t.last = Frame{}
	t.lastCycles = 0
}
