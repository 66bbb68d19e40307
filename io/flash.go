// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/wispsim/event"
	"github.com/ezrec/wispsim/interrupt"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/power"
	"github.com/ezrec/wispsim/translate"
)

// Flash controller registers.
const (
	FCTL1 = 0x0128 // Operation control.
	FCTL2 = 0x012a // Timing generator clock.
	FCTL3 = 0x012c // Status and lock.

	FLASH_KEY      = 0xa5 // Password, written in the high byte.
	FLASH_KEY_READ = 0x96 // High byte of register reads.
)

// FCTL1 bits.
const (
	FCTL1_ERASE  = 0x02
	FCTL1_MERAS  = 0x04
	FCTL1_WRT    = 0x40
	FCTL1_BLKWRT = 0x80
)

// FCTL3 bits.
const (
	FCTL3_BUSY    = 0x01
	FCTL3_KEYV    = 0x02
	FCTL3_ACCVIFG = 0x04
	FCTL3_WAIT    = 0x08
	FCTL3_LOCK    = 0x10
	FCTL3_EMEX    = 0x20
	FCTL3_LOCKA   = 0x40
)

// Flash timing generator clocks per operation.
const (
	FLASH_WORD_TFTG          = 35
	FLASH_SEGMENT_ERASE_TFTG = 4819
	FLASH_MASS_ERASE_TFTG    = 5297
)

// FCTL2 reset value: MCLK divided by 3.
const FCTL2_RESET = 0x42

// Region is a range of flash, erased in segments.
type Region struct {
	Start   uint32
	Size    uint32
	Segment uint32 // Erase segment size.
}

// Contains returns true if address lies in the region.
func (r Region) Contains(address uint32) bool {
	return address >= r.Start && address < r.Start+r.Size
}

// SegmentOf returns the segment holding address.
func (r Region) SegmentOf(address uint32) (segment Region) {
	start := r.Start + (address-r.Start)/r.Segment*r.Segment
	return Region{Start: start, Size: r.Segment, Segment: r.Segment}
}

// Memory maps of the MSP430F2132.
var (
	F2132_MAIN = Region{Start: 0xe000, Size: 8 * 1024, Segment: 512}
	F2132_INFO = Region{Start: 0x1000, Size: 256, Segment: 64}
)

// operation is a program or erase in progress.
type operation struct {
	erase   []Region
	address uint32
	value   uint32
	word    bool
	cycles  int64
}

// Flash is the flash memory controller. Program and erase operations
// complete on the cycle queue; until then the CPU is held, the supply is
// in MODE_FLASH_WRITE and the new contents are not visible.
type Flash struct {
	Verbose bool // Set to enable verbose logging.

	Bus        *memory.Bus           // Bus holding the flash contents.
	Events     *event.Scheduler      // Scheduler for completion events.
	Supply     power.Supply          // Optional supply, for modes and energy.
	Interrupts *interrupt.Controller // Optional, for key violation resets.

	Main Region
	Info Region

	Writes     int // Completed word or byte programs.
	Erases     int // Completed erases.
	Violations int // Access and key violations.
	Aborted    int // Operations lost to an emergency exit or reset.

	fctl1 uint32
	fctl2 uint32
	fctl3 uint32

	op    *operation
	saved power.Mode
	done  *event.Event
}

var (
	_ memory.Device          = (*Flash)(nil)
	_ memory.FlashController = (*Flash)(nil)
)

// NewFlash creates a controller for the MSP430F2132 flash, and installs it
// on the bus.
func NewFlash(bus *memory.Bus, events *event.Scheduler) (fl *Flash) {
	fl = &Flash{
		Bus:    bus,
		Events: events,
		Main:   F2132_MAIN,
		Info:   F2132_INFO,
	}
	fl.done = event.NewEvent("flash", fl.complete)
	fl.Reset(memory.RESET_POR)

	bus.SetIORange(FCTL1, 6, fl)
	bus.Flash = fl

	return
}

// Defines returns the assembler defines for the flash controller.
func (fl *Flash) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"FCTL1":   fmt.Sprintf("0x%x", FCTL1),
		"FCTL2":   fmt.Sprintf("0x%x", FCTL2),
		"FCTL3":   fmt.Sprintf("0x%x", FCTL3),
		"FWKEY":   fmt.Sprintf("0x%x", FLASH_KEY<<8),
		"ERASE":   fmt.Sprintf("0x%x", FCTL1_ERASE),
		"MERAS":   fmt.Sprintf("0x%x", FCTL1_MERAS),
		"WRT":     fmt.Sprintf("0x%x", FCTL1_WRT),
		"BLKWRT":  fmt.Sprintf("0x%x", FCTL1_BLKWRT),
		"BUSY":    fmt.Sprintf("0x%x", FCTL3_BUSY),
		"KEYV":    fmt.Sprintf("0x%x", FCTL3_KEYV),
		"ACCVIFG": fmt.Sprintf("0x%x", FCTL3_ACCVIFG),
		"LOCK":    fmt.Sprintf("0x%x", FCTL3_LOCK),
		"EMEX":    fmt.Sprintf("0x%x", FCTL3_EMEX),
	}
	return maps.All(defines)
}

func (fl *Flash) Contains(address uint32) bool {
	return fl.Main.Contains(address) || fl.Info.Contains(address)
}

func (fl *Flash) Busy() bool {
	return fl.op != nil
}

// BlocksCPU holds the CPU while an operation runs.
func (fl *Flash) BlocksCPU() bool {
	return fl.Busy()
}

// NotifyRead flags an access violation: flash cannot be read while busy.
func (fl *Flash) NotifyRead(address uint32) {
	fl.violation("read of $%04x while busy", address)
}

func (fl *Flash) violation(format string, args ...any) {
	fl.fctl3 |= FCTL3_ACCVIFG
	fl.Violations++
	translate.Logf("flash: access violation: "+format, args...)
}

// divider of the timing generator.
func (fl *Flash) divider() int64 {
	return int64(fl.fctl2&0x3f) + 1
}

// FlashWrite starts a program or erase operation.
func (fl *Flash) FlashWrite(address uint32, value uint32, word bool) {
	if fl.Busy() {
		fl.violation("write of $%04x while busy", address)
		return
	}

	if fl.fctl3&FCTL3_LOCK != 0 {
		fl.violation("write of $%04x while locked", address)
		return
	}

	op := &operation{address: address, value: value, word: word}

	switch {
	case fl.fctl1&(FCTL1_ERASE|FCTL1_MERAS) == FCTL1_ERASE|FCTL1_MERAS:
		op.erase = []Region{fl.Main, fl.Info}
		op.cycles = FLASH_MASS_ERASE_TFTG
	case fl.fctl1&FCTL1_MERAS != 0:
		op.erase = []Region{fl.Main}
		op.cycles = FLASH_MASS_ERASE_TFTG
	case fl.fctl1&FCTL1_ERASE != 0:
		region := fl.Main
		if fl.Info.Contains(address) {
			region = fl.Info
		}
		op.erase = []Region{region.SegmentOf(address)}
		op.cycles = FLASH_SEGMENT_ERASE_TFTG
	case fl.fctl1&(FCTL1_WRT|FCTL1_BLKWRT) != 0:
		op.cycles = FLASH_WORD_TFTG
	default:
		fl.violation("write of $%04x without WRT or ERASE", address)
		return
	}

	op.cycles *= fl.divider()

	err := fl.Events.ScheduleCycle(fl.done, fl.Events.Cycles+op.cycles)
	if err != nil {
		translate.Logf("flash: %v", err)
		return
	}

	fl.op = op
	fl.fctl3 |= FCTL3_BUSY
	fl.fctl3 &^= FCTL3_WAIT

	if fl.Supply != nil {
		fl.saved = fl.Supply.Mode()
		fl.Supply.SetMode(power.MODE_FLASH_WRITE)
	}

	if fl.Verbose {
		translate.Logf("flash: start %v at $%04x, %d cycles", fl.opName(op), address, op.cycles)
	}
}

func (fl *Flash) opName(op *operation) string {
	if op.erase != nil {
		return "erase"
	}
	return "program"
}

// finish ends the operation in progress, restoring the supply mode.
func (fl *Flash) finish() {
	fl.op = nil
	fl.fctl3 &^= FCTL3_BUSY
	fl.fctl3 |= FCTL3_WAIT
	fl.Events.Remove(fl.done)

	if fl.Supply != nil && fl.Supply.Mode() == power.MODE_FLASH_WRITE {
		fl.Supply.SetMode(fl.saved)
	}
}

// complete applies the operation in progress.
func (fl *Flash) complete(trigger int64) {
	op := fl.op
	if op == nil {
		return
	}

	mem := fl.Bus.Memory
	if op.erase != nil {
		for _, region := range op.erase {
			for n := range region.Size {
				mem[region.Start+n] = 0xff
			}
		}
		fl.Erases++
	} else {
		// Programming can only clear bits.
		mem[op.address] &= byte(op.value)
		if op.word {
			mem[op.address+1] &= byte(op.value >> 8)
		}
		fl.Writes++
	}

	if fl.Supply != nil {
		seconds := float64(op.cycles) / float64(fl.Events.Frequency())
		fl.Supply.DockEnergy(power.ProgramEnergy(fl.Supply.Voltage(), seconds))
	}

	if fl.Verbose {
		translate.Logf("flash: %v at $%04x complete", fl.opName(op), op.address)
	}

	fl.finish()
}

func (fl *Flash) Read(address uint32, word bool, cycles int64) (value uint32) {
	switch address &^ 1 {
	case FCTL1:
		value = fl.fctl1
	case FCTL2:
		value = fl.fctl2
	case FCTL3:
		value = fl.fctl3
	}
	if word {
		value |= FLASH_KEY_READ << 8
	}
	return
}

func (fl *Flash) Write(address uint32, value uint32, word bool, cycles int64) {
	if !word || (value>>8) != FLASH_KEY {
		fl.fctl3 |= FCTL3_KEYV
		fl.Violations++
		translate.Logf("flash: key violation, $%04x written to $%04x", value, address)
		if fl.Interrupts != nil {
			fl.Interrupts.Flag(fl.Interrupts.Max, fl, true)
		}
		return
	}

	value &= 0xff
	switch address &^ 1 {
	case FCTL1:
		if !fl.Busy() {
			fl.fctl1 = value & (FCTL1_ERASE | FCTL1_MERAS | FCTL1_WRT | FCTL1_BLKWRT)
		}
	case FCTL2:
		if !fl.Busy() {
			fl.fctl2 = value
		}
	case FCTL3:
		if value&FCTL3_EMEX != 0 && fl.Busy() {
			fl.Aborted++
			translate.Logf("flash: emergency exit, %v at $%04x lost", fl.opName(fl.op), fl.op.address)
			fl.finish()
		}
		keep := fl.fctl3 & (FCTL3_BUSY | FCTL3_WAIT)
		fl.fctl3 = keep | value&(FCTL3_KEYV|FCTL3_ACCVIFG|FCTL3_LOCK|FCTL3_LOCKA)
	}
}

// Reset the controller. An operation in progress is lost.
func (fl *Flash) Reset(kind int) {
	if fl.Busy() {
		fl.Aborted++
		fl.finish()
	}

	fl.fctl1 = 0
	fl.fctl2 = FCTL2_RESET
	keyv := fl.fctl3 & FCTL3_KEYV
	fl.fctl3 = FCTL3_LOCK | FCTL3_WAIT
	if kind == memory.RESET_PUC {
		fl.fctl3 |= keyv
	}
}

func (fl *Flash) InterruptServiced(vector int) {}
