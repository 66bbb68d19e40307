package io

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

// ADC10 registers.
const (
	ADC10DTC0 = 0x0048
	ADC10DTC1 = 0x0049
	ADC10AE0  = 0x004a
	ADC10CTL0 = 0x01b0
	ADC10CTL1 = 0x01b2
	ADC10MEM  = 0x01b4
	ADC10SA   = 0x01bc
)

// ADC10CTL0 bits.
const (
	ADC10SC  = 0x01 // Start conversion.
	ENC      = 0x02 // Enable conversion.
	ADC10IFG = 0x04
	ADC10IE  = 0x08
	ADC10ON  = 0x10
)

const (
	ADC10BUSY      = 0x01 // ADC10CTL1 conversion in progress.
	ADC10_PRIORITY = 5    // Vector $ffea of the MSP430F2132.
	ADC10_MAX      = 0x3ff
	ADC10_MID      = 0x200
)

// Conversion sequence modes.
const (
	CONSEQ_SINGLE          = 0
	CONSEQ_SEQUENCE        = 1
	CONSEQ_REPEAT_SINGLE   = 2
	CONSEQ_REPEAT_SEQUENCE = 3
)

// Sample-and-hold times, in ADC10 clocks, selected by ADC10SHTx.
var SHT_CLOCKS = [4]int64{4, 8, 16, 64}

// Sampler supplies the analog input of the converter.
type Sampler interface {
	Sample() uint32
}

// Sine is a sinusoid input centered at mid scale.
type Sine struct {
	Clock     power.Clock // Time base.
	Frequency float64     // Hz.
	Amplitude float64     // Counts.
}

func (s *Sine) Sample() uint32 {
	ms := s.Clock.Millis()
	value := math.Round(math.Sin(2*math.Pi*s.Frequency*ms/1000.0) * s.Amplitude)
	return uint32(ADC10_MID + int(value))
}

// Adc10 is the ADC10 converter. Conversions complete on the time queue,
// with the supply in MODE_ADC while converting.
type Adc10 struct {
	Verbose bool // Set to enable verbose logging.

	Events     *event.Scheduler
	Interrupts *interrupt.Controller
	Supply     power.Supply // Optional.
	Input      Sampler

	Conversions int

	ctl0, ctl1 uint32
	mem        uint32
	ae0, dtc0  uint32
	dtc1, sa   uint32

	converting bool
	saved      power.Mode
	trigger    *event.Event
}

var _ memory.Device = (*Adc10)(nil)

// NewAdc10 creates a converter, and maps it onto the bus.
func NewAdc10(bus *memory.Bus, events *event.Scheduler, ic *interrupt.Controller) (adc *Adc10) {
	adc = &Adc10{
		Events:     events,
		Interrupts: ic,
	}
	adc.trigger = event.NewEvent("adc10", adc.convert)

	bus.SetIO(ADC10DTC0, adc, true)
	bus.SetIO(ADC10AE0, adc, false)
	bus.SetIO(ADC10CTL0, adc, true)
	bus.SetIO(ADC10CTL1, adc, true)
	bus.SetIO(ADC10MEM, adc, true)
	bus.SetIO(ADC10SA, adc, true)

	return
}

// Defines returns the assembler defines for the converter.
func (adc *Adc10) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"ADC10CTL0": fmt.Sprintf("0x%x", ADC10CTL0),
		"ADC10CTL1": fmt.Sprintf("0x%x", ADC10CTL1),
		"ADC10MEM":  fmt.Sprintf("0x%x", ADC10MEM),
		"ADC10SC":   fmt.Sprintf("0x%x", ADC10SC),
		"ENC":       fmt.Sprintf("0x%x", ENC),
		"ADC10IFG":  fmt.Sprintf("0x%x", ADC10IFG),
		"ADC10IE":   fmt.Sprintf("0x%x", ADC10IE),
		"ADC10ON":   fmt.Sprintf("0x%x", ADC10ON),
		"ADC10BUSY": fmt.Sprintf("0x%x", ADC10BUSY),
	})
}

// Busy returns true while converting.
func (adc *Adc10) Busy() bool {
	return adc.converting
}

// delay of one conversion, in ADC10 clocks.
func (adc *Adc10) delay() int64 {
	div := int64((adc.ctl1>>5)&0x7) + 1
	sht := SHT_CLOCKS[(adc.ctl0>>11)&0x3]
	return div * (sht + 13)
}

func (adc *Adc10) conseq() uint32 {
	return (adc.ctl1 >> 1) & 0x3
}

func (adc *Adc10) setIFG(on bool) {
	if on {
		adc.ctl0 |= ADC10IFG
	} else {
		adc.ctl0 &^= ADC10IFG
	}
	adc.Interrupts.Flag(ADC10_PRIORITY, adc, on && adc.ctl0&ADC10IE != 0)
}

func (adc *Adc10) start() {
	err := adc.Events.ScheduleTime(adc.trigger, adc.Events.Time()+adc.delay())
	if err != nil {
		translate.Logf("adc10: %v", err)
		return
	}

	adc.converting = true
	if adc.Supply != nil {
		adc.saved = adc.Supply.Mode()
		adc.Supply.SetMode(power.MODE_ADC)
	}
}

func (adc *Adc10) stop() {
	adc.converting = false
	adc.Events.Remove(adc.trigger)
	if adc.Supply != nil && adc.Supply.Mode() == power.MODE_ADC {
		adc.Supply.SetMode(adc.saved)
	}
}

// convert completes a conversion.
func (adc *Adc10) convert(trigger int64) {
	if adc.ctl0&ADC10ON == 0 {
		adc.stop()
		return
	}

	if adc.Input != nil {
		adc.mem = adc.Input.Sample() & ADC10_MAX
	}
	adc.Conversions++
	adc.setIFG(true)

	if adc.Verbose {
		translate.Logf("adc10: sample $%03x", adc.mem)
	}

	if adc.ctl0&ENC != 0 && adc.conseq() != CONSEQ_SINGLE {
		err := adc.Events.ScheduleTime(adc.trigger, trigger+adc.delay())
		if err == nil {
			return
		}
		translate.Logf("adc10: %v", err)
	}

	adc.stop()
}

func (adc *Adc10) Read(address uint32, word bool, cycles int64) (value uint32) {
	switch address {
	case ADC10CTL0:
		value = adc.ctl0
	case ADC10CTL1:
		value = adc.ctl1
		if adc.converting {
			value |= ADC10BUSY
		}
	case ADC10MEM:
		value = adc.mem
		adc.setIFG(false)
	case ADC10AE0:
		value = adc.ae0
	case ADC10DTC0:
		value = adc.dtc0
		if word {
			value |= adc.dtc1 << 8
		}
	case ADC10DTC1:
		value = adc.dtc1
	case ADC10SA:
		value = adc.sa
	}
	return
}

func (adc *Adc10) Write(address uint32, value uint32, word bool, cycles int64) {
	switch address {
	case ADC10CTL0:
		if adc.ctl0&ENC != 0 {
			// Only the low nibble can change while enabled.
			adc.ctl0 = adc.ctl0&0xfff0 | value&0xf
		} else {
			adc.ctl0 = value
		}
		adc.setIFG(adc.ctl0&ADC10IFG != 0)
		on := adc.ctl0&(ADC10ON|ENC|ADC10SC) == ADC10ON|ENC|ADC10SC
		if on && !adc.converting {
			adc.start()
		}
		adc.ctl0 &^= ADC10SC
		if adc.ctl0&ADC10ON == 0 && adc.converting {
			adc.stop()
		}
	case ADC10CTL1:
		if adc.ctl0&ENC != 0 {
			adc.ctl1 = adc.ctl1&0xfff8 | value&0x6
		} else {
			adc.ctl1 = value &^ ADC10BUSY
		}
	case ADC10AE0:
		adc.ae0 = value & 0xff
	case ADC10DTC0:
		adc.dtc0 = value & 0xff
		if word {
			adc.dtc1 = (value >> 8) & 0xff
		}
	case ADC10DTC1:
		adc.dtc1 = value & 0xff
	case ADC10SA:
		adc.sa = value &^ 1
	}
}

// InterruptServiced clears the interrupt flag, as the single source of
// the vector.
func (adc *Adc10) InterruptServiced(vector int) {
	adc.setIFG(false)
}

func (adc *Adc10) Reset(kind int) {
	if adc.converting {
		adc.stop()
	}
	adc.ctl0 = 0
	adc.ctl1 = 0
	adc.mem = 0
	adc.ae0 = 0
	adc.dtc0 = 0
	adc.dtc1 = 0
	adc.sa = 0
}
