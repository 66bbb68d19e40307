package power

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manual is a hand cranked clock.
type manual struct {
	ms     float64
	cycles int64
}

func (m *manual) Millis() float64 { return m.ms }

func (m *manual) Advance(cycles int64) {
	m.cycles += cycles
	m.ms += float64(cycles) / 1000.0
}

func TestResistance(t *testing.T) {
	assert := assert.New(t)

	for _, v := range []float64{1.8, 2.2, 3.0, 4.5} {
		assert.InDelta(4010.6*v+803.53, Resistance(MODE_ACTIVE, v), 1e-6)
		assert.InDelta(18232*v+1017.9, Resistance(MODE_LPM0, v), 1e-6)
		assert.InDelta(18230*v+1014.3, Resistance(MODE_LPM1, v), 1e-6)
		assert.InDelta(48202*v+6229.5, Resistance(MODE_LPM2, v), 1e-6)
		assert.InDelta(-66859*v*v*v+532699*v*v-979608*v+1e6, Resistance(MODE_LPM3, v), 1e-6)
		assert.InDelta(-128337*v*v*v+1e6*v*v-2e6*v+3e6, Resistance(MODE_LPM4, v), 1e-6)
		assert.InDelta(4747.8*v+152.98, Resistance(MODE_FLASH_WRITE, v), 1e-6)
		assert.InDelta(3346.2*v+1040.8, Resistance(MODE_ADC, v), 1e-6)
	}

	assert.Panics(func() { Resistance(Mode(42), 3.0) })
}

func TestMode(t *testing.T) {
	assert := assert.New(t)

	for mode := range Mode(MODE_COUNT) {
		parsed, err := ParseMode(mode.String())
		assert.NoError(err)
		assert.Equal(mode, parsed)
	}
	_, err := ParseMode("turbo")
	assert.ErrorIs(err, ErrMode)

	parsed, err := ParseMode("Flash-Write")
	assert.NoError(err)
	assert.Equal(MODE_FLASH_WRITE, parsed)
	assert.Equal("Mode(42)", Mode(42).String())

	assert.Equal("dead", STATUS_DEAD.String())
	assert.Equal("isolated", CLOCK_ISOLATED.String())
	assert.Equal("ClockSource(2)", ClockSource(2).String())
}

func TestDischargeLaw(t *testing.T) {
	assert := assert.New(t)

	r := 4822.0
	c := 10e-6
	for _, dt := range []float64{1e-4, 1e-3, 0.05} {
		expect := 4.5 * math.Exp(-dt/(r*c))
		assert.InEpsilon(expect, Discharge(4.5, r, c, dt), 1e-9)
	}

	clock := &manual{}
	capacitor := NewCapacitor(c, 4.5, 7.5)
	capacitor.Attach(clock)
	clock.ms = 2.0
	assert.Equal(STATUS_ALIVE, capacitor.Update())

	expect := 4.5 * math.Exp(-(2.0/DISCHARGE_SCALE)/(Resistance(MODE_ACTIVE, 4.5)*c))
	assert.InEpsilon(expect, capacitor.Voltage(), 1e-9)
	assert.Equal(1, capacitor.UpdateCount())
	assert.Equal(1, capacitor.SetCount())
}

func TestChargeLaw(t *testing.T) {
	assert := assert.New(t)

	r := Resistance(MODE_ACTIVE, 2.0)
	c := 10e-6
	v := Charge(2.0, 3.0, r, c, 1.0, CHARGE_SCALE)
	assert.InEpsilon(2.0+3.0*(1-math.Exp(-1.0/(CHARGE_SCALE*r*c))), v, 1e-9)
	assert.Greater(v, 2.0)
}

func TestCapacitorReset(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 4.5, 7.5)
	capacitor.Attach(clock)

	for _, ms := range []float64{10, 250, 5000} {
		clock.ms += ms
		capacitor.SetMode(MODE_LPM3)
		capacitor.Update()
		capacitor.DockEnergy(1e-6)
		assert.Less(capacitor.Voltage(), 4.5)

		capacitor.Reset()
		assert.Equal(4.5, capacitor.Voltage())
		assert.Equal(MODE_ACTIVE, capacitor.Mode())
		assert.False(capacitor.Dead())
		assert.Equal(0, capacitor.SetCount())

		capacitor.Reset()
		assert.Equal(4.5, capacitor.Voltage())
	}
}

func TestCapacitorDeath(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 2.0, 7.5)
	capacitor.Attach(clock)

	assert.Equal(STATUS_ALIVE, capacitor.Update())
	for capacitor.Update() == STATUS_ALIVE {
		clock.ms += 10
	}
	assert.LessOrEqual(capacitor.Voltage(), DEFAULT_DEATH_THRESHOLD)
	assert.True(capacitor.Dead())

	// Latched
	assert.Equal(STATUS_DEAD, capacitor.Update())

	ms, err := capacitor.Recover()
	assert.NoError(err)
	assert.Zero(ms)
	assert.Equal(2.0, capacitor.Voltage())
	assert.Equal(STATUS_ALIVE, capacitor.Update())
}

func TestCapacitorRecover(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 1.9, 7.5)
	// Rising trace.
	capacitor.Trace = FuncTrace(func(ms float64) float64 { return 0.001 * ms })
	capacitor.Attach(clock)
	require.True(capacitor.TraceDriven())

	clock.ms = 1
	capacitor.SetMode(MODE_LPM0)
	capacitor.Update()
	for capacitor.Update() == STATUS_ALIVE {
		capacitor.Trace = FuncTrace(func(ms float64) float64 { return 0 })
		clock.ms += 10
	}
	require.True(capacitor.Dead())

	capacitor.Trace = FuncTrace(func(ms float64) float64 { return 0.001 * ms })
	before := capacitor.Offset()
	ms, err := capacitor.Recover()
	require.NoError(err)
	assert.Greater(ms, 0.0)
	assert.Greater(capacitor.Voltage(), DEFAULT_RESURRECTION_THRESHOLD)
	assert.False(capacitor.Dead())
	assert.Equal(CLOCK_LIVE, capacitor.Source())
	assert.Equal(MODE_LPM0, capacitor.Mode())
	assert.InDelta(before+ms, capacitor.Offset(), 1e-9)
}

func TestCapacitorFirstSample(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 2.0, 7.5)
	capacitor.Trace = FuncTrace(func(ms float64) float64 { return 3.0 })
	capacitor.Attach(clock)

	// The first positive sample charges, from a zero previous sample.
	clock.ms = 1
	assert.Equal(STATUS_ALIVE, capacitor.Update())
	assert.Greater(capacitor.Voltage(), 2.0)

	// A flat trace then discharges.
	charged := capacitor.Voltage()
	clock.ms = 2
	capacitor.Update()
	assert.Less(capacitor.Voltage(), charged)

	// A fresh supply charges again on its first sample.
	capacitor.Reset()
	clock.ms = 3
	capacitor.Update()
	assert.Greater(capacitor.Voltage(), 2.0)
}

func TestCapacitorNoRecovery(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 1.7, 7.5)
	capacitor.Trace = FuncTrace(func(ms float64) float64 { return 1.0 })
	capacitor.MaxConvalescence = 5
	capacitor.Attach(clock)

	assert.Equal(STATUS_DEAD, capacitor.Update())
	ms, err := capacitor.Recover()
	assert.ErrorIs(err, ErrNoRecovery)
	assert.InDelta(5.0, ms, 2*DEAD_STEP_MS)
}

func TestCapacitorRebase(t *testing.T) {
	assert := assert.New(t)

	var seen []float64
	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 4.5, 7.5)
	capacitor.Trace = FuncTrace(func(ms float64) float64 {
		seen = append(seen, ms)
		return 0
	})
	capacitor.Attach(clock)

	clock.ms = 100
	capacitor.Update()
	clock.ms = 0
	capacitor.Rebase()
	clock.ms = 5
	capacitor.Update()

	assert.Equal([]float64{100, 105}, seen)
}

func TestCapacitorOvervoltage(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 4.0, 4.5)
	capacitor.Trace = FuncTrace(func(ms float64) float64 { return 100 * ms })
	capacitor.Attach(clock)

	for range 10 {
		clock.ms += 1000
		capacitor.Update()
	}
	assert.Equal(4.5, capacitor.Voltage())
	assert.Positive(capacitor.Overvoltages)
}

func TestDockEnergy(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		writes int
		volts  float64
	}{
		{8, 4.258},
		{16, 4.054},
		{32, 3.672},
		{64, 2.91},
		{96, 2.47},
		{128, 1.741},
	}

	for _, entry := range table {
		capacitor := NewCapacitor(10e-6, 4.5, 7.5)
		for range entry.writes {
			capacitor.DockEnergy(FlashWriteEnergy(capacitor.Voltage(), 1e-4))
		}
		assert.InDelta(entry.volts, capacitor.Voltage(), 0.2, "%d writes", entry.writes)
	}
}

func TestIdeal(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	id := NewIdeal(3.0)
	id.Attach(clock)

	clock.ms = 1000
	id.SetMode(MODE_LPM4)
	active := 3.0 * 3.0 / Resistance(MODE_ACTIVE, 3.0)
	assert.InEpsilon(active, id.Used, 1e-9)

	clock.ms = 2000
	lpm4 := 3.0 * 3.0 / Resistance(MODE_LPM4, 3.0)
	assert.InEpsilon(active+lpm4, id.EnergyUsed(), 1e-9)

	assert.Equal(STATUS_ALIVE, id.Update())
	assert.Equal(3.0, id.Voltage())
	ms, err := id.Recover()
	assert.NoError(err)
	assert.Zero(ms)
	assert.False(id.TraceDriven())
	assert.True(math.IsInf(id.Energy(), 1))
}

func TestVoltageReader(t *testing.T) {
	assert := assert.New(t)

	clock := &manual{}
	capacitor := NewCapacitor(10e-6, 3.75, 7.5)
	capacitor.Attach(clock)
	capacitor.SetMode(MODE_LPM0)

	vr := &VoltageReader{Supply: capacitor, Clock: clock, Divider: 3.0, Reference: 2.5}
	assert.Equal(7.5, vr.EffectiveMax())

	value := vr.Read(VOLTAGE_ADDRESS, true, 0)
	assert.Equal(uint32(32768), value)
	assert.Equal(int64(ADC_CYCLES), clock.cycles)
	assert.Less(capacitor.Voltage(), 3.75)
	assert.Equal(MODE_LPM0, capacitor.Mode())
	assert.Equal(1, vr.Reads)

	assert.Zero(vr.Read(VOLTAGE_ADDRESS, false, 0))
	assert.Zero(vr.Read(VOLTAGE_ADDRESS+2, true, 0))
	assert.Equal(1, vr.Reads)

	assert.Equal(uint32(0xffff), vr.Scale(7.5))
	assert.Equal(uint32(0), vr.Scale(-1))
}

func TestCsvTrace(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	input := "ms,volts\n# comment\n0,0\n10,2.0\n20,1.0\n"
	trace, err := LoadCsvTrace(strings.NewReader(input))
	require.NoError(err)

	assert.Equal([]float64{0, 10, 20}, trace.Times)
	assert.Equal(0.0, trace.VoltageAt(-5))
	assert.InDelta(1.0, trace.VoltageAt(5), 1e-12)
	assert.Equal(2.0, trace.VoltageAt(10))
	assert.InDelta(1.5, trace.VoltageAt(15), 1e-12)
	assert.Equal(1.0, trace.VoltageAt(25))

	trace.Periodic = true
	assert.InDelta(1.0, trace.VoltageAt(25), 1e-12)

	_, err = LoadCsvTrace(strings.NewReader("0,1\n0,2\n"))
	assert.ErrorIs(err, ErrTraceOrder)

	_, err = LoadCsvTrace(strings.NewReader("ms,volts\n"))
	assert.ErrorIs(err, ErrTraceEmpty)

	_, err = LoadCsvTrace(strings.NewReader("0,1\n1,x\n"))
	var lineErr *ErrTraceLine
	assert.ErrorAs(err, &lineErr)
}

func TestScriptTrace(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	src := `
def voltage(t):
    if t < 10:
        return 0
    return 2.0 + math.sin(0.0) + t / 100.0
`
	trace, err := NewScriptTrace("trace.star", src)
	require.NoError(err)
	assert.Equal(0.0, trace.VoltageAt(1))
	assert.InDelta(2.5, trace.VoltageAt(50), 1e-12)
	assert.NoError(trace.Err)

	_, err = NewScriptTrace("bad.star", "x = 1\n")
	assert.ErrorIs(err, ErrTraceFunction)

	trace, err = NewScriptTrace("str.star", "def voltage(t):\n    return 'high'\n")
	require.NoError(err)
	assert.Equal(0.0, trace.VoltageAt(1))
	assert.ErrorIs(trace.Err, ErrTraceValue)
}
