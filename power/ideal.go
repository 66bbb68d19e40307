package power

import (
	"math"
)

// Ideal is a supply of constant voltage, which only accounts for the energy
// the node consumes.
type Ideal struct {
	Volts float64 // Supply voltage.

	Used float64 // Consumed energy, in joules.

	mode   Mode
	clock  Clock
	anchor float64
}

var _ Supply = (*Ideal)(nil)

// NewIdeal creates an ideal supply.
func NewIdeal(volts float64) *Ideal {
	return &Ideal{Volts: volts, clock: frozen{}}
}

// accumulate integrates the load power since the last anchor.
func (id *Ideal) accumulate() {
	now := id.clock.Millis()
	dt := (now - id.anchor) / 1000.0
	if dt > 0 {
		id.Used += id.Volts * id.Volts / Resistance(id.mode, id.Volts) * dt
	}
	id.anchor = now
}

func (id *Ideal) Attach(clock Clock) {
	if clock == nil {
		clock = frozen{}
	}
	id.clock = clock
	id.anchor = clock.Millis()
}

func (id *Ideal) Voltage() float64    { return id.Volts }
func (id *Ideal) MaxVoltage() float64 { return id.Volts }
func (id *Ideal) Mode() Mode          { return id.mode }
func (id *Ideal) Energy() float64     { return math.Inf(1) }
func (id *Ideal) TraceDriven() bool   { return false }

func (id *Ideal) EnergyUsed() float64 {
	id.accumulate()
	return id.Used
}

func (id *Ideal) SetMode(mode Mode) {
	if mode == id.mode {
		return
	}
	id.accumulate()
	id.mode = mode
}

func (id *Ideal) Update() Status {
	return STATUS_ALIVE
}

func (id *Ideal) Recover() (ms float64, err error) {
	return
}

func (id *Ideal) Reset() {
	id.accumulate()
	id.mode = MODE_ACTIVE
}

func (id *Ideal) Rebase() {
	id.anchor = id.clock.Millis()
}

func (id *Ideal) DockEnergy(joules float64) {
	id.Used += joules
}
