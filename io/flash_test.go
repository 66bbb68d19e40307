package io

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/event"
	"github.com/ezrec/wispsim/interrupt"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/power"
)

// newFlash creates an unlocked controller on a fresh bus.
func newFlash(t *testing.T) (fl *Flash, bus *memory.Bus, events *event.Scheduler) {
	bus = memory.NewBus(memory.MAX_MEM)
	events = event.NewScheduler(event.DEFAULT_HZ)
	fl = NewFlash(bus, events)

	assert.Equal(t, uint32(0x9600|FCTL3_LOCK|FCTL3_WAIT), bus.Read(FCTL3, memory.MODE_WORD, 0))
	bus.Write(FCTL3, FLASH_KEY<<8, memory.MODE_WORD, 0)
	return
}

// complete fast forwards to the end of the operation in progress.
func complete(t *testing.T, events *event.Scheduler) (cycle int64) {
	cycle, ok := events.NextWakeup()
	require.True(t, ok)
	events.Cycles = cycle
	events.Drain()
	return
}

func TestFlashProgram(t *testing.T) {
	assert := assert.New(t)

	fl, bus, events := newFlash(t)
	capacitor := power.NewCapacitor(10e-6, 4.5, 5.0)
	capacitor.Attach(events)
	fl.Supply = capacitor

	require.NoError(t, bus.Load(0xe000, []byte{0xff, 0xff}))
	bus.Write(FCTL1, FLASH_KEY<<8|FCTL1_WRT, memory.MODE_WORD, 0)
	bus.Write(0xe000, 0x5a3c, memory.MODE_WORD, 0)

	assert.True(fl.Busy())
	assert.True(fl.BlocksCPU())
	assert.Equal(power.MODE_FLASH_WRITE, capacitor.Mode())
	assert.Equal(byte(0xff), bus.Memory[0xe000])
	assert.NotZero(bus.Read(FCTL3, memory.MODE_WORD, 0) & FCTL3_BUSY)

	// A second write while busy is a violation.
	bus.Write(0xe002, 0, memory.MODE_WORD, 0)
	assert.Equal(1, fl.Violations)
	assert.NotZero(bus.Read(FCTL3, memory.MODE_WORD, 0) & FCTL3_ACCVIFG)

	// As is a read.
	bus.Read(0xe000, memory.MODE_WORD, 0)
	assert.Equal(2, fl.Violations)

	cycle := complete(t, events)
	assert.Equal(int64(FLASH_WORD_TFTG*3), cycle)

	assert.False(fl.Busy())
	assert.Equal(1, fl.Writes)
	assert.Equal(uint32(0x5a3c), bus.Read(0xe000, memory.MODE_WORD, 0))
	assert.Equal(power.MODE_ACTIVE, capacitor.Mode())
	assert.Less(capacitor.Voltage(), 4.5)

	// Programming only clears bits.
	bus.Write(0xe000, 0xff00, memory.MODE_WORD, 0)
	complete(t, events)
	assert.Equal(uint32(0x5a00), bus.Read(0xe000, memory.MODE_WORD, 0))
}

func TestFlashErase(t *testing.T) {
	assert := assert.New(t)

	fl, bus, events := newFlash(t)

	bus.Write(FCTL1, FLASH_KEY<<8|FCTL1_ERASE, memory.MODE_WORD, 0)
	bus.Write(0xe210, 0, memory.MODE_WORD, 0)
	cycle := complete(t, events)
	assert.Equal(int64(FLASH_SEGMENT_ERASE_TFTG*3), cycle)

	assert.Equal(1, fl.Erases)
	assert.Equal(byte(0), bus.Memory[0xe1ff])
	assert.Equal(byte(0xff), bus.Memory[0xe200])
	assert.Equal(byte(0xff), bus.Memory[0xe3ff])
	assert.Equal(byte(0), bus.Memory[0xe400])

	bus.Write(FCTL1, FLASH_KEY<<8|FCTL1_MERAS, memory.MODE_WORD, 0)
	bus.Write(0xe000, 0, memory.MODE_WORD, 0)
	complete(t, events)
	assert.Equal(bytes.Repeat([]byte{0xff}, 0x2000), bus.Memory[0xe000:0x10000])
	assert.Equal(byte(0), bus.Memory[0x1000])

	bus.Write(FCTL1, FLASH_KEY<<8|FCTL1_ERASE, memory.MODE_WORD, 0)
	bus.Write(0x1040, 0, memory.MODE_WORD, 0)
	complete(t, events)
	assert.Equal(byte(0), bus.Memory[0x103f])
	assert.Equal(bytes.Repeat([]byte{0xff}, 64), bus.Memory[0x1040:0x1080])
}

func TestFlashViolations(t *testing.T) {
	assert := assert.New(t)

	fl, bus, _ := newFlash(t)
	ic := interrupt.NewController(cpu.MAX_INTERRUPT)
	fl.Interrupts = ic

	// Not in a write mode.
	bus.Write(0xe000, 0, memory.MODE_WORD, 0)
	assert.False(fl.Busy())
	assert.Equal(1, fl.Violations)

	// Bad password.
	bus.Write(FCTL1, 0x1240, memory.MODE_WORD, 0)
	assert.Equal(2, fl.Violations)
	assert.NotZero(bus.Read(FCTL3, memory.MODE_WORD, 0) & FCTL3_KEYV)
	assert.Equal(cpu.MAX_INTERRUPT, ic.Pending())

	// Locked.
	fl.Reset(memory.RESET_POR)
	bus.Write(FCTL1, FLASH_KEY<<8|FCTL1_WRT, memory.MODE_WORD, 0)
	bus.Write(0xe000, 0, memory.MODE_WORD, 0)
	assert.False(fl.Busy())
	assert.Equal(3, fl.Violations)
}

func TestFlashEmergencyExit(t *testing.T) {
	assert := assert.New(t)

	fl, bus, events := newFlash(t)
	require.NoError(t, bus.Load(0xe000, []byte{0xff, 0xff}))

	bus.Write(FCTL1, FLASH_KEY<<8|FCTL1_WRT, memory.MODE_WORD, 0)
	bus.Write(0xe000, 0, memory.MODE_WORD, 0)
	assert.True(fl.Busy())

	bus.Write(FCTL3, FLASH_KEY<<8|FCTL3_EMEX, memory.MODE_WORD, 0)
	assert.False(fl.Busy())
	assert.Equal(1, fl.Aborted)
	assert.Equal(byte(0xff), bus.Memory[0xe000])

	_, ok := events.NextWakeup()
	assert.False(ok)
}

func TestFlashCpu(t *testing.T) {
	assert := assert.New(t)

	core := cpu.NewCpu()
	fl := NewFlash(core.Bus, core.Events)
	core.Stallers = append(core.Stallers, fl)

	asm := &cpu.Assembler{}
	for key, value := range fl.Defines() {
		asm.Predefine(key, value)
	}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"start:",
		"mov #0x0400, sp",
		"mov #FWKEY, &FCTL3",
		"mov #$(FWKEY | WRT), &FCTL1",
		"mov #0x1234, &data",
		"mov #FWKEY, &FCTL1",
		"mov #$(FWKEY | LOCK), &FCTL3",
		"mov &data, r15",
		".word 0",
		".org 0xf000",
		"data: .word 0xffff",
		".org 0xfffe",
		".word start",
	}, "\n")))
	require.NoError(t, err)
	require.NoError(t, prog.Load(core.Bus))
	core.Reset()

	suspended := 0
	var end *cpu.ErrProgramEnd
	for range 1000 {
		result, err := core.Step(0)
		if err != nil {
			require.True(t, errors.As(err, &end), "%v", err)
			break
		}
		if result.Suspended {
			suspended++
		}
	}
	require.NotNil(t, end)

	assert.Equal(uint32(0x1234), end.R15)
	assert.Equal(1, suspended)
	assert.Equal(1, fl.Writes)
	assert.Equal(0, fl.Violations)
	assert.Greater(end.Cycles, int64(FLASH_WORD_TFTG*3))
}
