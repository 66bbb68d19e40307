package power

import (
	"math"

	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/translate"
)

const (
	VOLTAGE_ADDRESS = 0x01c0 // Word register returning the scaled supply voltage.
	ADC_CYCLES      = 647    // Cycles consumed by one conversion.
)

// Advancer advances the engine cycle counter.
type Advancer interface {
	Advance(cycles int64)
}

// VoltageReader exposes the supply voltage as a memory mapped register.
// Each read is an ADC conversion: the supply is switched to MODE_ADC for
// ADC_CYCLES, and updated once.
type VoltageReader struct {
	Verbose bool // Set to enable verbose logging.

	Supply    Supply   // Measured supply.
	Clock     Advancer // Charged for the conversion time.
	Divider   float64  // Input voltage divider factor.
	Reference float64  // ADC reference voltage.

	Reads int // Number of conversions.
}

var _ memory.Device = (*VoltageReader)(nil)

// EffectiveMax is the voltage that reads as full scale.
func (vr *VoltageReader) EffectiveMax() float64 {
	if vr.Divider > 0 && vr.Reference > 0 {
		return vr.Divider * vr.Reference
	}
	return vr.Supply.MaxVoltage()
}

// Scale returns the register value for a voltage.
func (vr *VoltageReader) Scale(volts float64) uint32 {
	scaled := math.Round(volts / vr.EffectiveMax() * 65536)
	switch {
	case scaled < 0:
		return 0
	case scaled > 0xffff:
		return 0xffff
	}
	return uint32(scaled)
}

func (vr *VoltageReader) Read(address uint32, word bool, cycles int64) (value uint32) {
	if address != VOLTAGE_ADDRESS || !word {
		translate.Logf("power: voltage register read at $%04x (word=%v) ignored", address, word)
		return
	}

	vr.Reads++
	value = vr.Scale(vr.Supply.Voltage())

	old := vr.Supply.Mode()
	vr.Supply.SetMode(MODE_ADC)
	if vr.Clock != nil {
		vr.Clock.Advance(ADC_CYCLES)
	}
	vr.Supply.Update()
	vr.Supply.SetMode(old)

	if vr.Verbose {
		translate.Logf("power: voltage read %.3f V = $%04x", vr.Supply.Voltage(), value)
	}

	return
}

func (vr *VoltageReader) Write(address uint32, value uint32, word bool, cycles int64) {}

func (vr *VoltageReader) Reset(kind int) {}

func (vr *VoltageReader) InterruptServiced(vector int) {}
