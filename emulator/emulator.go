// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/wispsim/checkpoint"
	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/event"
	"github.com/ezrec/wispsim/internal"
	"github.com/ezrec/wispsim/interrupt"
	"github.com/ezrec/wispsim/io"
	"github.com/ezrec/wispsim/lifecycle"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/power"
	"github.com/ezrec/wispsim/translate"
)

const (
	RAM_START = 0x0200 // MSP430F2132 RAM.
	RAM_SIZE  = 0x0200
	STACK_TOP = RAM_START + RAM_SIZE // Initial stack pointer.
)

var _emulator_defines = map[string]string{
	"RAM_START": fmt.Sprintf("0x%x", RAM_START),
	"RAM_SIZE":  fmt.Sprintf("0x%x", RAM_SIZE),
	"STACK_TOP": fmt.Sprintf("0x%x", STACK_TOP),
	"VOLTAGE":   fmt.Sprintf("0x%x", power.VOLTAGE_ADDRESS),
}

// Emulator state. An MSP430 with its peripherals, on a supply, under a
// lifecycle manager.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Config Config // Configuration the emulator was built from.

	Supply     power.Supply        // Node supply.
	Capacitor  *power.Capacitor    // Node supply, if capacitor backed.
	Voltage    power.VoltageReader // Supply voltage register.
	Flash      *io.Flash           // Flash controller.
	Adc        *io.Adc10           // ADC10 converter, sampling a sine.
	Multiplier io.Multiplier       // Hardware multiplier.
	Console    io.Console          // Byte port.

	Tracker *checkpoint.Tracker // Checkpoint validator, if the program has a checkpoint function.
	Node    *Node
	Manager *lifecycle.Manager
	Profile *Profile

	MaxCycles int64 // Cycle limit over all lifecycles, if positive.

	started bool
	end     *cpu.ErrProgramEnd
}

// NewEmulator creates a new emulator from a configuration.
func NewEmulator(cfg Config) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	trace, err := cfg.Power.LoadTrace()
	if err != nil {
		return
	}

	core := cpu.NewCpu()
	core.Extended = cfg.Cpu.Extended
	if core.Extended {
		core.Bus = memory.NewBus(memory.MAX_MEM_X)
		core.Bus.Pc = func() uint32 { return core.Register[cpu.PC] }
	}
	core.Events = event.NewScheduler(cfg.Cpu.Frequency)
	core.Interrupts = interrupt.NewController(cfg.Cpu.MaxInterrupt)
	core.OracleThreshold = cfg.Checkpoint.OracleThreshold

	emu = &Emulator{
		Cpu:     core,
		Program: &cpu.Program{},
		Config:  cfg,
		Profile: NewProfile(),
	}

	pc := &cfg.Power
	switch pc.Supply {
	case SUPPLY_IDEAL:
		emu.Supply = power.NewIdeal(pc.IdealVoltage)
	default:
		capacitor := power.NewCapacitor(pc.Capacitance, pc.InitialVoltage, pc.RatedVoltage)
		capacitor.DeathThreshold = pc.DeathThreshold
		capacitor.ResurrectionThreshold = pc.ResurrectionThreshold
		capacitor.MaxConvalescence = pc.MaxConvalescence
		capacitor.Trace = trace
		emu.Capacitor = capacitor
		emu.Supply = capacitor
	}
	emu.Supply.Attach(core.Events)
	core.Supply = emu.Supply

	emu.Voltage = power.VoltageReader{
		Supply:    emu.Supply,
		Clock:     core.Events,
		Divider:   pc.Divider,
		Reference: pc.Reference,
	}
	core.Bus.SetIO(power.VOLTAGE_ADDRESS, &emu.Voltage, true)

	emu.Flash = io.NewFlash(core.Bus, core.Events)
	emu.Flash.Supply = emu.Supply
	emu.Flash.Interrupts = core.Interrupts
	core.Stallers = append(core.Stallers, emu.Flash)

	emu.Adc = io.NewAdc10(core.Bus, core.Events, core.Interrupts)
	emu.Adc.Supply = emu.Supply
	emu.Adc.Input = &io.Sine{
		Clock:     core.Events,
		Frequency: cfg.Node.SineFrequency,
		Amplitude: cfg.Node.SineAmplitude,
	}

	emu.Multiplier.Map(core.Bus)
	emu.Console.Map(core.Bus)

	emu.Node = &Node{
		Bus:             core.Bus,
		MaxRetries:      cfg.Node.MaxRetries,
		RetryAdjustment: cfg.Node.RetryAdjustment,
	}
	emu.Manager = lifecycle.NewManager(core, emu.Node)
	core.Profiler = emu.Profile

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Flash.Defines(),
		emu.Adc.Defines(),
		emu.Multiplier.Defines(),
		emu.Console.Defines(),
	)
}

// Predefine the emulator defines in an assembler.
func (emu *Emulator) Predefine(asm *cpu.Assembler) {
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}
}

// Load a program into memory. A program without a reset vector starts at
// its "start" label, or else its first word. The checkpoint function, if
// the program has one, is validated.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	if len(prog.Opcodes) == 0 {
		err = ErrProgramEmpty
		return
	}

	err = prog.Load(emu.Cpu.Bus)
	if err != nil {
		return
	}

	if !prog.Contains(cpu.RESET_VECTOR) {
		entry, ok := prog.Symbol("start")
		if !ok {
			entry = prog.Opcodes[0].Address
		}
		if emu.Verbose {
			translate.Logf("emulator: reset vector -> $%04x", entry)
		}
		err = emu.Cpu.Bus.Load(cpu.RESET_VECTOR, []byte{byte(entry), byte(entry >> 8)})
		if err != nil {
			return
		}
	}

	emu.Program = prog
	emu.Profile.Name(prog)

	emu.Cpu.MainAddress = 0
	if address, ok := prog.Symbol(emu.Config.Cpu.Main); ok {
		emu.Cpu.MainAddress = address
	}

	emu.Tracker = nil
	emu.Cpu.Validator = nil
	if address, ok := prog.Symbol(emu.Config.Checkpoint.Function); ok {
		emu.Tracker = checkpoint.NewTracker(address)
		emu.Tracker.Marker = emu.Config.Checkpoint.Marker
		emu.Tracker.MarkerValue = emu.Config.Checkpoint.MarkerValue
		emu.Cpu.Validator = emu.Tracker
	}

	emu.started = false
	return
}

// Reset starts the first lifecycle.
func (emu *Emulator) Reset() (err error) {
	emu.setVerbose()

	emu.end = nil
	emu.Node.Reset()
	emu.Profile.Unwind()
	emu.Manager.Start()
	emu.started = true

	return
}

// setVerbose hands the verbosity to every component.
func (emu *Emulator) setVerbose() {
	verbose := emu.Verbose

	emu.Cpu.Verbose = verbose
	emu.Voltage.Verbose = verbose
	emu.Flash.Verbose = verbose
	emu.Adc.Verbose = verbose
	emu.Console.Verbose = verbose
	emu.Node.Verbose = verbose
	emu.Manager.Verbose = verbose
	if emu.Capacitor != nil {
		emu.Capacitor.Verbose = verbose
	}
	if emu.Tracker != nil {
		emu.Tracker.Verbose = verbose
	}
}

// TotalCycles returns the cycles over all completed lifecycles, and the
// present one.
func (emu *Emulator) TotalCycles() int64 {
	return emu.Manager.Stats().TotalCycles + emu.Cpu.Cycles()
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Register[cpu.PC])
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Tick performs a single step of the emulator. Reaching the end of the
// program is done, and not an error.
func (emu *Emulator) Tick() (done bool, err error) {
	pc := emu.Cpu.Register[cpu.PC]
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	if !emu.started {
		err = ErrNotReset
		return
	}

	if emu.end != nil {
		done = true
		return
	}

	var limit int64
	if emu.MaxCycles > 0 {
		limit = emu.MaxCycles - emu.Manager.Stats().TotalCycles
	}

	result, err := emu.Cpu.Step(limit)
	if result.Died {
		emu.Profile.Unwind()
	}

	var end *cpu.ErrProgramEnd
	if errors.As(err, &end) {
		emu.end = end
		emu.Console.Flush()
		done = true
		err = nil
		return
	}
	if err != nil {
		return
	}

	if emu.MaxCycles > 0 && emu.TotalCycles() >= emu.MaxCycles {
		err = ErrMaxCycles
		return
	}

	return
}

// Run the program until it ends, or fails. An emulator that has not been
// reset is reset first.
func (emu *Emulator) Run(maxCycles int64) (report Report, err error) {
	emu.MaxCycles = maxCycles

	if !emu.started {
		err = emu.Reset()
		if err != nil {
			return
		}
	}

	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			break
		}
	}

	emu.Console.Flush()
	report = emu.Report()
	return
}
