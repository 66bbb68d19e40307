package emulator

import (
	"fmt"

	"github.com/ezrec/wispsim/lifecycle"
)

// Report of a run.
type Report struct {
	lifecycle.Report

	Ended    bool   // The program executed its terminating word.
	ExitCode uint32 // R15 at the end of the program.

	Instructions int64
	Voltage      float64 // Supply voltage at the end of the run.
	EnergyUsed   float64 // Joules.

	Checkpoints     int
	FakeCheckpoints int
	BadCheckpoints  int

	FlashWrites     int
	FlashErases     int
	FlashViolations int
	Conversions     int // ADC10 and voltage register conversions.
	Multiplies      int
	ConsoleBytes    int
}

// Field is a named value of a report.
type Field struct {
	Name  string
	Value string
}

// Report summarizes the run so far.
func (emu *Emulator) Report() (report Report) {
	report = Report{
		Report:       emu.Manager.Report(),
		Instructions: emu.Cpu.Instructions,
		Voltage:      emu.Supply.Voltage(),
		EnergyUsed:   emu.Supply.EnergyUsed(),

		FlashWrites:     emu.Flash.Writes,
		FlashErases:     emu.Flash.Erases,
		FlashViolations: emu.Flash.Violations,
		Conversions:     emu.Adc.Conversions + emu.Voltage.Reads,
		Multiplies:      emu.Multiplier.Operations,
		ConsoleBytes:    emu.Console.Written,
	}

	if emu.end != nil {
		report.Ended = true
		report.ExitCode = emu.end.R15
	} else {
		report.ExitCode = emu.Cpu.Register[15]
	}

	if emu.Tracker != nil {
		report.Checkpoints = emu.Tracker.Checkpoints
		report.FakeCheckpoints = emu.Tracker.Fakes
		report.BadCheckpoints = emu.Tracker.Bad
	}

	return
}

// Fields returns the report in display order.
func (r Report) Fields() []Field {
	return []Field{
		{"ended", fmt.Sprint(r.Ended)},
		{"exit_code", fmt.Sprintf("0x%04x", r.ExitCode)},
		{"lifecycles", fmt.Sprint(r.Lifecycles)},
		{"deaths", fmt.Sprint(r.Deaths)},
		{"retries", fmt.Sprint(r.Retries)},
		{"total_cycles", fmt.Sprint(r.TotalCycles)},
		{"wasted_cycles", fmt.Sprint(r.WastedCycles)},
		{"wasted_percent", fmt.Sprintf("%.2f", r.WastedPercent)},
		{"convalescence_ms", fmt.Sprintf("%.3f", r.ConvalescenceMillis)},
		{"instructions", fmt.Sprint(r.Instructions)},
		{"voltage", fmt.Sprintf("%.4f", r.Voltage)},
		{"energy_used", fmt.Sprintf("%.6g", r.EnergyUsed)},
		{"checkpoints", fmt.Sprint(r.Checkpoints)},
		{"fake_checkpoints", fmt.Sprint(r.FakeCheckpoints)},
		{"bad_checkpoints", fmt.Sprint(r.BadCheckpoints)},
		{"flash_writes", fmt.Sprint(r.FlashWrites)},
		{"flash_erases", fmt.Sprint(r.FlashErases)},
		{"flash_violations", fmt.Sprint(r.FlashViolations)},
		{"conversions", fmt.Sprint(r.Conversions)},
		{"multiplies", fmt.Sprint(r.Multiplies)},
		{"console_bytes", fmt.Sprint(r.ConsoleBytes)},
	}
}
