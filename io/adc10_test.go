package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/event"
	"github.com/ezrec/wispsim/interrupt"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/power"
)

// constant is a fixed analog input.
type constant uint32

func (c constant) Sample() uint32 {
	return uint32(c)
}

func newAdc(t *testing.T) (adc *Adc10, bus *memory.Bus, events *event.Scheduler, ic *interrupt.Controller) {
	bus = memory.NewBus(memory.MAX_MEM)
	events = event.NewScheduler(event.DEFAULT_HZ)
	ic = interrupt.NewController(cpu.MAX_INTERRUPT)
	adc = NewAdc10(bus, events, ic)
	adc.Input = constant(0x1234)
	return
}

func TestAdc10Single(t *testing.T) {
	assert := assert.New(t)

	adc, bus, events, ic := newAdc(t)
	supply := power.NewIdeal(3.0)
	adc.Supply = supply

	bus.Write(ADC10CTL0, ADC10ON|ENC|ADC10SC|ADC10IE, memory.MODE_WORD, 0)
	assert.True(adc.Busy())
	assert.Equal(power.MODE_ADC, supply.Mode())
	assert.Equal(uint32(ADC10BUSY), bus.Read(ADC10CTL1, memory.MODE_WORD, 0)&ADC10BUSY)
	assert.Zero(bus.Read(ADC10CTL0, memory.MODE_WORD, 0) & ADC10SC)

	next, ok := events.NextWakeup()
	require.True(t, ok)
	assert.Equal(events.TimeToCycles(17), next)
	events.Cycles = next
	events.Drain()

	assert.False(adc.Busy())
	assert.Equal(1, adc.Conversions)
	assert.Equal(power.MODE_ACTIVE, supply.Mode())
	assert.Equal(ADC10_PRIORITY, ic.Pending())
	assert.NotZero(bus.Read(ADC10CTL0, memory.MODE_WORD, 0) & ADC10IFG)

	assert.Equal(uint32(0x234), bus.Read(ADC10MEM, memory.MODE_WORD, 0))
	assert.Zero(bus.Read(ADC10CTL0, memory.MODE_WORD, 0) & ADC10IFG)
	assert.Equal(interrupt.NONE, ic.Pending())
}

func TestAdc10Repeat(t *testing.T) {
	assert := assert.New(t)

	adc, bus, events, ic := newAdc(t)

	bus.Write(ADC10CTL1, CONSEQ_REPEAT_SINGLE<<1, memory.MODE_WORD, 0)
	bus.Write(ADC10CTL0, ADC10ON|ENC|ADC10SC, memory.MODE_WORD, 0)

	for range 3 {
		next, ok := events.NextWakeup()
		require.True(t, ok)
		events.Cycles = next
		events.Drain()
	}
	assert.Equal(3, adc.Conversions)
	assert.True(adc.Busy())

	// Without ADC10IE no interrupt is raised.
	assert.Equal(interrupt.NONE, ic.Pending())

	bus.Write(ADC10CTL0, 0, memory.MODE_WORD, 0)
	assert.True(adc.Busy())
	bus.Write(ADC10CTL0, 0, memory.MODE_WORD, 0)
	assert.False(adc.Busy())

	_, ok := events.NextWakeup()
	assert.False(ok)
}

func TestAdc10Serviced(t *testing.T) {
	assert := assert.New(t)

	adc, bus, events, ic := newAdc(t)
	bus.Write(ADC10CTL0, ADC10ON|ENC|ADC10SC|ADC10IE, memory.MODE_WORD, 0)
	next, _ := events.NextWakeup()
	events.Cycles = next
	events.Drain()

	prio, source := ic.Service()
	assert.Equal(ADC10_PRIORITY, prio)
	assert.Equal(adc, source)
	assert.Zero(bus.Read(ADC10CTL0, memory.MODE_WORD, 0) & ADC10IFG)

	adc.Reset(memory.RESET_POR)
	assert.Zero(bus.Read(ADC10CTL0, memory.MODE_WORD, 0))
}

func TestSine(t *testing.T) {
	assert := assert.New(t)

	events := event.NewScheduler(event.DEFAULT_HZ)
	sine := &Sine{Clock: events, Frequency: 500, Amplitude: 127}

	assert.Equal(uint32(ADC10_MID), sine.Sample())

	// A quarter period at 500Hz.
	events.Cycles = 500
	assert.Equal(uint32(ADC10_MID+127), sine.Sample())
}
