package checkpoint

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/power"
)

// boot assembles a program, and attaches a tracker for its "checkpoint"
// label.
func boot(t *testing.T, source ...string) (core *cpu.Cpu, tracker *Tracker) {
	asm := &cpu.Assembler{}
	lines := append(append([]string{}, source...), ".org 0xfffe", ".word start")
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)

	core = cpu.NewCpu()
	require.NoError(t, prog.Load(core.Bus))

	address, ok := prog.Symbol("checkpoint")
	require.True(t, ok)
	tracker = NewTracker(address)
	core.Validator = tracker

	core.Reset()
	return
}

// finish runs until the program ends.
func finish(t *testing.T, core *cpu.Cpu) (end *cpu.ErrProgramEnd) {
	for range 1000 {
		_, err := core.Step(0)
		if err != nil {
			require.True(t, errors.As(err, &end), "%v", err)
			return
		}
	}
	t.Fatal("program did not end")
	return
}

func TestTrackerGood(t *testing.T) {
	assert := assert.New(t)

	core, tracker := boot(t,
		"start:",
		"mov #0x0400, sp",
		"mov #7, r4",
		"call #checkpoint",
		"mov #1, r15",
		".word 0",
		"checkpoint:",
		"push r4",
		"mov #99, r4",
		"call #helper",
		"pop r4",
		"ret",
		"helper:",
		"mov #5, r12",
		"ret",
	)

	assert.True(tracker.IsCheckpoint(tracker.Function))
	assert.False(tracker.InCheckpoint())

	end := finish(t, core)
	assert.Equal(uint32(1), end.R15)

	assert.Equal(1, tracker.Checkpoints)
	assert.Equal(0, tracker.Fakes)
	assert.Equal(0, tracker.Bad)
	assert.False(tracker.InCheckpoint())
	assert.Equal(uint32(7), tracker.Registers[4])
	assert.Equal(uint32(0x0400), tracker.Registers[cpu.SP])
	assert.Greater(tracker.LastCheckpointCycles(), int64(0))
	assert.Greater(tracker.Spent, int64(0))
	assert.Less(tracker.LastCheckpointCycles(), end.Cycles)
}

func TestTrackerBad(t *testing.T) {
	assert := assert.New(t)

	core, tracker := boot(t,
		"start:",
		"mov #0x0400, sp",
		"call #checkpoint",
		".word 0",
		"checkpoint:",
		"mov #1, r5",
		"ret",
	)

	finish(t, core)
	assert.Equal(0, tracker.Checkpoints)
	assert.Equal(1, tracker.Bad)
	assert.Equal(int64(0), tracker.LastCheckpointCycles())
}

func TestTrackerMarker(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"start:",
		"mov #0x0400, sp",
		"call #checkpoint",
		"call #checkpoint",
		".word 0",
		"checkpoint:",
		"cmp #0, &0x0300",
		"jnz skip",
		"mov #0xbeef, &0x0220",
		"skip:",
		"inc &0x0300",
		"ret",
	}

	core, tracker := boot(t, program...)
	tracker.Marker = 0x0220
	tracker.MarkerValue = 0xbeef

	finish(t, core)

	// The second call never writes the marker.
	assert.Equal(1, tracker.Checkpoints)
	assert.Equal(1, tracker.Bad)
}

func TestTrackerFake(t *testing.T) {
	assert := assert.New(t)

	core, tracker := boot(t,
		"start:",
		"mov #0x0400, sp",
		"mov #1, r15",
		".word 0",
		"checkpoint:",
		"ret",
	)

	supply := power.NewIdeal(3.0)
	supply.Attach(core.Events)
	core.Supply = supply
	core.OracleThreshold = 3.0

	_, err := core.Step(0)
	require.NoError(t, err)
	assert.True(tracker.InCheckpoint())
	assert.Equal(1, tracker.Depth())

	end := finish(t, core)
	assert.Equal(uint32(1), end.R15)
	assert.Equal(0, tracker.Checkpoints)
	assert.Equal(1, tracker.Fakes)
	assert.Equal(0, tracker.Bad)
}

func TestTrackerReset(t *testing.T) {
	assert := assert.New(t)

	tracker := NewTracker(0xe100)
	tracker.PushCall(false)
	tracker.lastCycles = 42
	tracker.Checkpoints = 3

	tracker.Reset()
	assert.False(tracker.InCheckpoint())
	assert.Equal(int64(0), tracker.LastCheckpointCycles())
	assert.Equal(3, tracker.Checkpoints)
}

func TestTrackerOverflow(t *testing.T) {
	assert := assert.New(t)

	tracker := NewTracker(0xe100)
	for range STACK_LIMIT + 2 {
		tracker.PushCall(false)
	}
	assert.Equal(2, tracker.Overflows)
	assert.Equal(STACK_LIMIT, tracker.Depth())
	assert.Equal(STACK_LIMIT-1, tracker.PopCall())
}
