// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"maps"
	"math"

	"github.com/ezrec/wispsim/event"
	"github.com/ezrec/wispsim/interrupt"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/power"
	"github.com/ezrec/wispsim/translate"
)

const (
	RESET_VECTOR     = 0xfffe  // Address of the reset vector.
	MAX_INTERRUPT    = 15      // Reset priority of the MSP430F2132.
	INTERRUPT_CYCLES = 6       // Cycles to enter an interrupt handler.
	ORACLE_EPSILON   = 0.0001  // Oracle threshold match tolerance (V).
	ORACLE_NEVER     = -1000.0 // Oracle threshold that never matches.
)

var _cpu_defines = map[string]string{
	"SR_CARRY":    fmt.Sprintf("0x%x", SR_CARRY),
	"SR_ZERO":     fmt.Sprintf("0x%x", SR_ZERO),
	"SR_NEGATIVE": fmt.Sprintf("0x%x", SR_NEGATIVE),
	"SR_GIE":      fmt.Sprintf("0x%x", SR_GIE),
	"SR_CPUOFF":   fmt.Sprintf("0x%x", SR_CPUOFF),
	"SR_OSCOFF":   fmt.Sprintf("0x%x", SR_OSCOFF),
	"SR_SCG0":     fmt.Sprintf("0x%x", SR_SCG0),
	"SR_SCG1":     fmt.Sprintf("0x%x", SR_SCG1),
	"SR_OVERFLOW": fmt.Sprintf("0x%x", SR_OVERFLOW),
	"RESET":       fmt.Sprintf("0x%x", RESET_VECTOR),
}

// Validator is the checkpoint validator. It is told about calls to, and
// returns from, the checkpoint function.
type Validator interface {
	// IsCheckpoint returns true if address is the checkpoint function.
	IsCheckpoint(address uint32) bool
	// InCheckpoint returns true while the checkpoint function runs.
	InCheckpoint() bool
	// PreCall is called on entry to the checkpoint function.
	PreCall(regs *[REGISTERS]uint32, bus *memory.Bus, cycles int64)
	// PostCall is called on return from the checkpoint function, and
	// reports if the checkpoint was good.
	PostCall(regs *[REGISTERS]uint32, bus *memory.Bus, cycles int64) (ok bool)
	// PushCall records a call made inside the checkpoint function.
	PushCall(fake bool)
	// PopCall records a return, and returns the remaining call depth.
	PopCall() (depth int)
	// CheckpointAddress returns the address of the checkpoint function.
	CheckpointAddress() (address uint32, ok bool)
	// LastCheckpointCycles returns the cycle count at the end of the last
	// complete checkpoint.
	LastCheckpointCycles() int64
	// Reset the validator for a new lifecycle.
	Reset()
}

// Profiler is told about calls and returns.
type Profiler interface {
	ProfileCall(address uint32, cycles int64, from uint32)
	ProfileReturn(cycles int64)
	ProfileInterrupt(priority int, cycles int64)
}

// Lifecycle handles the death of the node.
type Lifecycle interface {
	Die() error
}

// Staller is a device that can hold the CPU, such as a busy flash
// controller.
type Staller interface {
	BlocksCPU() bool
}

// Result of a single Step.
type Result struct {
	Address   uint32 // Address of the executed instruction.
	Executed  bool   // An instruction was executed.
	Suspended bool   // The CPU was off, or stalled.
	Died      bool   // The supply died during the step.
}

// Cpu is the MSP430 instruction engine.
type Cpu struct {
	Verbose  bool // Set to enable verbose logging.
	Extended bool // Set to enable the MSP430X 20 bit registers and instructions.

	Register [REGISTERS]uint32 // Register file.

	Bus        *memory.Bus           // Memory bus.
	Events     *event.Scheduler      // Event queues and cycle counter.
	Interrupts *interrupt.Controller // Interrupt controller.
	Supply     power.Supply          // Optional power supply.
	Validator  Validator             // Optional checkpoint validator.
	Profiler   Profiler              // Optional profiler.
	Lifecycle  Lifecycle             // Optional death handler.
	Stallers   []Staller             // Devices that can hold the CPU.

	MainAddress     uint32  // Entry point reported to the profiler on branch.
	OracleThreshold float64 // Voltage at which a checkpoint is forced, once per lifecycle.

	Instructions int64 // Executed instruction count.

	interruptsEnabled bool
	cpuOff            bool
	oracleDone        bool
}

// NewCpu creates a CPU with a 64K bus, a scheduler at 1MHz and an
// interrupt controller for the MSP430F2132.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Bus:             memory.NewBus(memory.MAX_MEM),
		Events:          event.NewScheduler(event.DEFAULT_HZ),
		Interrupts:      interrupt.NewController(MAX_INTERRUPT),
		OracleThreshold: ORACLE_NEVER,
	}
	cpu.Bus.Pc = func() uint32 { return cpu.Register[PC] }

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Cycles returns the cycle counter.
func (cpu *Cpu) Cycles() int64 {
	return cpu.Events.Cycles
}

// Millis returns the virtual time in milliseconds.
func (cpu *Cpu) Millis() float64 {
	return cpu.Events.Millis()
}

// InterruptsEnabled returns the state of the GIE bit.
func (cpu *Cpu) InterruptsEnabled() bool {
	return cpu.interruptsEnabled
}

// CpuOff returns true in a low power mode.
func (cpu *Cpu) CpuOff() bool {
	return cpu.cpuOff
}

// OracleDone returns true once the oracle checkpoint was forced in this
// lifecycle.
func (cpu *Cpu) OracleDone() bool {
	return cpu.oracleDone
}

// WastedCycles returns the cycles executed since the last complete
// checkpoint.
func (cpu *Cpu) WastedCycles() (wasted int64) {
	if cpu.Validator == nil {
		return
	}
	wasted = cpu.Cycles() - cpu.Validator.LastCheckpointCycles()
	if wasted < 0 {
		wasted = 0
	}
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for n, name := range registerName {
		text += fmt.Sprintf("%4s: %05X", name, cpu.Register[n])
		if n%4 == 3 {
			text += "\n"
		} else {
			text += " "
		}
	}

	flags := []struct {
		bit  uint32
		name string
	}{
		{SR_OVERFLOW, "V"},
		{SR_SCG1, "SCG1"},
		{SR_SCG0, "SCG0"},
		{SR_OSCOFF, "OSCOFF"},
		{SR_CPUOFF, "CPUOFF"},
		{SR_GIE, "GIE"},
		{SR_NEGATIVE, "N"},
		{SR_ZERO, "Z"},
		{SR_CARRY, "C"},
	}
	text += "  sr:"
	for _, flag := range flags {
		if (cpu.Register[SR] & flag.bit) != 0 {
			text += " " + flag.name
		}
	}
	text += fmt.Sprintf("\ncycles: %d\n", cpu.Cycles())

	return
}

// regMask returns the register width mask.
func (cpu *Cpu) regMask() uint32 {
	if cpu.Extended {
		return MASK_20
	}
	return MASK_16
}

// writeStatus sets the status register, and with it the interrupt enable,
// CPU off and power mode state.
func (cpu *Cpu) writeStatus(value uint32) {
	value &= cpu.regMask()
	cpu.Register[SR] = value
	cpu.interruptsEnabled = (value & SR_GIE) != 0
	cpu.cpuOff = (value & SR_CPUOFF) != 0
	if cpu.Supply != nil {
		cpu.Supply.SetMode(ModeFromStatus(value))
	}
}

// writeRegister writes a register, masked to the register width.
func (cpu *Cpu) writeRegister(reg int, value uint32) {
	value &= cpu.regMask()
	switch reg {
	case PC, SP:
		cpu.Register[reg] = value &^ 1
	case SR:
		cpu.writeStatus(value)
	case CG:
		// Constant generator; writes are discarded.
	default:
		cpu.Register[reg] = value
	}
}

// Reset performs an internal reset: interrupts, pending events, devices
// and the validator are reset, and execution starts at the reset vector.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		translate.Logf("cpu: reset")
	}

	cpu.Interrupts.Reset()
	cpu.Events.Clear()
	if cpu.Validator != nil {
		cpu.Validator.Reset()
	}

	clear(cpu.Register[:])
	cpu.writeStatus(0)
	cpu.oracleDone = false

	// Devices last, as they may schedule events.
	cpu.Bus.Reset(memory.RESET_POR)

	cpu.Register[PC] = cpu.Bus.Read(RESET_VECTOR, memory.MODE_WORD, cpu.Cycles()) &^ 1
}

// stalled returns true if a device holds the CPU.
func (cpu *Cpu) stalled() bool {
	for _, st := range cpu.Stallers {
		if st.BlocksCPU() {
			return true
		}
	}
	return false
}

// interruptReady returns the priority to service, or interrupt.NONE.
func (cpu *Cpu) interruptReady() int {
	ic := cpu.Interrupts
	prio := ic.Pending()
	if prio == interrupt.NONE || ic.Servicing() {
		return interrupt.NONE
	}
	if !cpu.interruptsEnabled && !ic.NonMaskable(prio) {
		return interrupt.NONE
	}
	return prio
}

// push a value onto the stack.
func (cpu *Cpu) push(value uint32, mode int) {
	cpu.writeRegister(SP, cpu.Register[SP]-2)
	cpu.Bus.Write(cpu.Register[SP], value, mode, cpu.Cycles())
}

// push20 pushes a 20 bit word, which takes two stack words.
func (cpu *Cpu) push20(value uint32) {
	cpu.writeRegister(SP, cpu.Register[SP]-4)
	cpu.Bus.Write(cpu.Register[SP], value, memory.MODE_WORD20, cpu.Cycles())
}

// pop20 pops a 20 bit word.
func (cpu *Cpu) pop20() (value uint32) {
	value = cpu.Bus.Read(cpu.Register[SP], memory.MODE_WORD20, cpu.Cycles())
	cpu.writeRegister(SP, cpu.Register[SP]+4)
	return
}

// pop a word from the stack.
func (cpu *Cpu) pop() (value uint32) {
	value = cpu.Bus.Read(cpu.Register[SP], memory.MODE_WORD, cpu.Cycles())
	cpu.writeRegister(SP, cpu.Register[SP]+2)
	return
}

// serviceInterrupt enters the handler of the highest pending interrupt.
func (cpu *Cpu) serviceInterrupt() (cycles int64) {
	ic := cpu.Interrupts
	prio, _ := ic.Service()
	vector := ic.Vector(prio)

	if ic.NonMaskable(prio) {
		cpu.Reset()
	} else {
		cpu.push(cpu.Register[PC], memory.MODE_WORD)
		cpu.push(cpu.Register[SR], memory.MODE_WORD)
		cpu.writeStatus(0)
		cpu.Register[PC] = cpu.Bus.Read(vector, memory.MODE_WORD, cpu.Cycles()) &^ 1
	}

	if cpu.Verbose {
		translate.Logf("cpu: interrupt %d, vector $%04x -> $%04x", prio, vector, cpu.Register[PC])
	}

	if cpu.Profiler != nil {
		cpu.Profiler.ProfileInterrupt(prio, cpu.Cycles())
	}

	cycles = INTERRUPT_CYCLES
	return
}

// Step runs one instruction, or one idle interval when the CPU is off or
// held. Idle intervals never advance the cycle counter past maxCycles, if
// it is positive.
func (cpu *Cpu) Step(maxCycles int64) (result Result, err error) {
	events := cpu.Events

	if cpu.interruptReady() != interrupt.NONE {
		events.Advance(cpu.serviceInterrupt())
	}

	if cpu.cpuOff || cpu.stalled() {
		result.Suspended = true
		result.Address = cpu.Register[PC]

		events.Drain()
		if cpu.interruptReady() != interrupt.NONE {
			return
		}

		next, ok := events.NextWakeup()
		if !ok {
			err = ErrCpuOff
			return
		}
		if maxCycles > 0 && next > maxCycles {
			next = maxCycles
		}
		if next > events.Cycles {
			events.Cycles = next
		}
		events.Drain()

		err = cpu.checkPower(&result)
		return
	}

	pc := cpu.Register[PC]
	result.Address = pc

	cycles, err := cpu.execute()
	if err != nil {
		return
	}
	result.Executed = true
	cpu.Instructions++

	events.Advance(cycles)
	events.Drain()

	err = cpu.checkPower(&result)
	return
}

// checkPower updates the supply after an instruction or idle interval.
func (cpu *Cpu) checkPower(result *Result) (err error) {
	if cpu.Supply == nil {
		return
	}

	if cpu.Supply.Update() == power.STATUS_DEAD {
		result.Died = true
		if cpu.Verbose {
			translate.Logf("cpu: died at $%04x, V=%.3f, cycles=%d", result.Address, cpu.Supply.Voltage(), cpu.Cycles())
		}
		err = cpu.die()
		return
	}

	if !cpu.oracleDone && math.Abs(cpu.Supply.Voltage()-cpu.OracleThreshold) < ORACLE_EPSILON {
		cpu.fakeCheckpoint()
	}

	return
}

// die hands the death of the node to the lifecycle handler. Without one,
// the node simply restarts with a fresh supply.
func (cpu *Cpu) die() (err error) {
	if cpu.Lifecycle != nil {
		return cpu.Lifecycle.Die()
	}

	cpu.Supply.Reset()
	cpu.Events.ResetTimeBase()
	cpu.Supply.Rebase()
	cpu.Reset()
	return
}

// fakeCheckpoint emulates a CALL to the checkpoint function, returning to
// the next instruction.
func (cpu *Cpu) fakeCheckpoint() {
	cpu.oracleDone = true

	if cpu.Validator == nil {
		return
	}
	target, ok := cpu.Validator.CheckpointAddress()
	if !ok {
		return
	}

	if cpu.Verbose {
		translate.Logf("cpu: forcing checkpoint at V=%.4f", cpu.Supply.Voltage())
	}

	cpu.Validator.PreCall(&cpu.Register, cpu.Bus, cpu.Cycles())
	cpu.Validator.PushCall(true)

	from := cpu.Register[PC]
	cpu.push(from, memory.MODE_WORD)
	cpu.writeRegister(PC, target)

	if cpu.Profiler != nil {
		cpu.Profiler.ProfileCall(target, cpu.Cycles(), from)
	}
}
