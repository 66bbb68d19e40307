// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package power

import (
	"github.com/ezrec/wispsim/translate"
)

const (
	DEFAULT_DEATH_THRESHOLD        = 1.8   // Brown out voltage (V).
	DEFAULT_RESURRECTION_THRESHOLD = 2.2   // Power on voltage (V).
	DEFAULT_MAX_CONVALESCENCE      = 60000 // Longest recovery (ms).
	DEAD_STEP_MS                   = 0.1   // Dead clock step during recovery (ms).
	PRINT_INTERVAL                 = 10    // Updates between verbose voltage reports.
)

// Capacitor is a capacitor backed supply.
type Capacitor struct {
	Verbose bool // Set to enable verbose voltage logging.

	Capacitance           float64 // Farads.
	InitialVoltage        float64 // Voltage after Reset.
	RatedVoltage          float64 // Voltage above which the supply is clamped.
	DeathThreshold        float64 // Node dies at or below this voltage.
	ResurrectionThreshold float64 // Node recovers above this voltage.
	MaxConvalescence      float64 // Recovery limit, in milliseconds.
	Trace                 Trace   // Optional charging trace.

	Overvoltages int // Number of clamped overvoltage settings.

	voltage float64
	mode    Mode
	dead    bool

	clock  Clock
	source ClockSource
	offset float64 // Live time lost to resets, in milliseconds.
	halted float64 // Dead clock, in milliseconds.

	anchor     float64 // Time of the last voltage setting.
	lastSample float64 // Trace voltage at the anchor; zero before the first sample.

	setCount    int
	updateCount int
	used        float64
}

var _ Supply = (*Capacitor)(nil)

// NewCapacitor creates a capacitor supply of capacitance farads, charged to
// initial volts, rated for rated volts.
func NewCapacitor(capacitance, initial, rated float64) (c *Capacitor) {
	c = &Capacitor{
		Capacitance:           capacitance,
		InitialVoltage:        initial,
		RatedVoltage:          rated,
		DeathThreshold:        DEFAULT_DEATH_THRESHOLD,
		ResurrectionThreshold: DEFAULT_RESURRECTION_THRESHOLD,
		MaxConvalescence:      DEFAULT_MAX_CONVALESCENCE,
		clock:                 frozen{},
	}
	c.Reset()
	return
}

// Attach the live clock.
func (c *Capacitor) Attach(clock Clock) {
	if clock == nil {
		clock = frozen{}
	}
	c.clock = clock
	c.anchor = c.now()
}

// now returns the time of the selected clock source.
func (c *Capacitor) now() float64 {
	if c.source == CLOCK_ISOLATED {
		return c.halted
	}
	return c.clock.Millis() + c.offset
}

// Source returns the active clock source.
func (c *Capacitor) Source() ClockSource {
	return c.source
}

// Offset returns the live time lost to resets and convalescence.
func (c *Capacitor) Offset() float64 {
	return c.offset
}

func (c *Capacitor) Voltage() float64 {
	return c.voltage
}

func (c *Capacitor) MaxVoltage() float64 {
	return c.RatedVoltage
}

func (c *Capacitor) Mode() Mode {
	return c.mode
}

// SetMode changes the load. The voltage is brought up to date first so
// that the elapsed interval is discharged at the old load.
func (c *Capacitor) SetMode(mode Mode) {
	if mode == c.mode {
		return
	}
	c.discharge()
	c.mode = mode
}

func (c *Capacitor) Energy() float64 {
	return Energy(c.Capacitance, c.voltage)
}

func (c *Capacitor) EnergyUsed() float64 {
	return c.used
}

func (c *Capacitor) TraceDriven() bool {
	return c.Trace != nil
}

// SetCount returns the number of voltage settings since Reset.
func (c *Capacitor) SetCount() int {
	return c.setCount
}

// UpdateCount returns the number of updates since Reset.
func (c *Capacitor) UpdateCount() int {
	return c.updateCount
}

// Dead returns true once the voltage has reached the death threshold, until
// the supply recovers or is reset.
func (c *Capacitor) Dead() bool {
	return c.dead
}

// setVoltage sets the voltage, clamping it to the rated maximum.
func (c *Capacitor) setVoltage(v float64) {
	c.setCount++
	if v < c.voltage {
		c.used += Energy(c.Capacitance, c.voltage) - Energy(c.Capacitance, v)
	}
	if c.RatedVoltage > 0 && v > c.RatedVoltage {
		c.Overvoltages++
		translate.Logf("power: voltage %.3f exceeds rated maximum %.3f", v, c.RatedVoltage)
		v = c.RatedVoltage
	}
	c.voltage = v
}

// discharge applies the load, or the trace, for the interval since the
// last voltage setting.
func (c *Capacitor) discharge() {
	now := c.now()
	dt := now - c.anchor
	if dt < 0 {
		dt = 0
	}
	r := Resistance(c.mode, c.voltage)

	charging := false
	if c.Trace != nil {
		sample := c.Trace.VoltageAt(now)
		charging = sample > c.lastSample
		if charging {
			c.setVoltage(Charge(c.voltage, sample, r, c.Capacitance, dt, CHARGE_SCALE))
		}
		c.lastSample = sample
	}

	if !charging {
		c.setVoltage(Discharge(c.voltage, r, c.Capacitance, dt/DISCHARGE_SCALE))
	}

	c.anchor = now
}

// Update the voltage for the elapsed interval.
func (c *Capacitor) Update() (status Status) {
	c.discharge()
	c.updateCount++

	if c.Verbose && c.updateCount%PRINT_INTERVAL == 0 {
		var tag string
		if c.source == CLOCK_ISOLATED {
			tag = "<dead>"
		}
		translate.Logf("power: %v%.3f,%.3f", tag, c.anchor, c.voltage)
	}

	if c.source == CLOCK_LIVE && c.voltage <= c.DeathThreshold {
		c.dead = true
	}

	if c.dead {
		status = STATUS_DEAD
	}

	return
}

// Recover steps the dead clock until the trace has charged the capacitor
// above the resurrection threshold. Without a trace the capacitor is reset.
func (c *Capacitor) Recover() (ms float64, err error) {
	if c.Trace == nil {
		c.Reset()
		return
	}

	old := c.mode
	start := c.now()

	c.halted = start
	c.source = CLOCK_ISOLATED
	c.SetMode(MODE_LPM4)

	defer func() {
		ms = c.halted - start
		c.offset += ms
		c.source = CLOCK_LIVE
		c.anchor = c.now()
		c.mode = old
	}()

	for c.voltage <= c.ResurrectionThreshold {
		if c.halted-start >= c.MaxConvalescence {
			err = ErrNoRecovery
			return
		}
		c.halted += DEAD_STEP_MS
		c.Update()
	}

	c.dead = false
	return
}

// Reset to the initial voltage, in the active mode.
func (c *Capacitor) Reset() {
	c.mode = MODE_ACTIVE
	c.source = CLOCK_LIVE
	c.dead = false
	c.voltage = c.InitialVoltage
	c.setCount = 0
	c.updateCount = 0
	c.lastSample = 0
	if c.clock != nil {
		c.anchor = c.now()
	}
}

// Rebase re-anchors the supply after the live clock has been reset to zero.
// Time already elapsed is carried in the offset, so a trace continues where
// it left off.
func (c *Capacitor) Rebase() {
	if c.source == CLOCK_LIVE {
		c.offset = c.anchor
	}
	c.anchor = c.now()
}

// DockEnergy removes energy from the capacitor.
func (c *Capacitor) DockEnergy(joules float64) {
	c.discharge()
	c.setVoltage(VoltageOf(c.Capacitance, c.Energy()-joules))
}

func (c *Capacitor) String() string {
	return f("capacitor C=%gF V=%.3f %v", c.Capacitance, c.voltage, c.mode)
}
