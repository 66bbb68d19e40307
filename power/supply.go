package power

// Status is the result of a supply update: alive above the death
// threshold, dead at or below it.
type Status int

//go:generate go tool stringer -linecomment -type=Status
const (
	STATUS_ALIVE = Status(0) // alive
	STATUS_DEAD  = Status(1) // dead
)

// ClockSource selects the time base of a supply: the live clock is the
// attached clock plus the dead time offset, and the isolated clock is the
// dead clock, stepped during recovery.
type ClockSource int

//go:generate go tool stringer -linecomment -type=ClockSource
const (
	CLOCK_LIVE     = ClockSource(0) // live
	CLOCK_ISOLATED = ClockSource(1) // isolated
)

// Clock is the live time base of a supply, usually the event scheduler.
type Clock interface {
	Millis() float64
}

// Supply is the power supply of a node.
type Supply interface {
	// Voltage returns the present voltage.
	Voltage() float64
	// MaxVoltage returns the rated maximum voltage.
	MaxVoltage() float64
	// Mode returns the power mode.
	Mode() Mode
	// SetMode changes the power mode, and with it the load.
	SetMode(mode Mode)
	// Update the voltage for the time elapsed since the last update.
	Update() Status
	// Recover runs the supply forward on an isolated clock until it can
	// power the node again, returning the simulated milliseconds taken.
	Recover() (ms float64, err error)
	// Reset to the initial voltage.
	Reset()
	// Rebase re-anchors the supply after the live clock is reset.
	Rebase()
	// Energy returns the stored energy, in joules.
	Energy() float64
	// EnergyUsed returns the energy consumed by the node, in joules.
	EnergyUsed() float64
	// DockEnergy removes energy drawn outside of the load model.
	DockEnergy(joules float64)
	// TraceDriven returns true if an energy trace charges the supply.
	TraceDriven() bool
	// Attach the live clock.
	Attach(clock Clock)
}

// frozen is the clock of a supply with nothing attached.
type frozen struct{}

func (frozen) Millis() float64 { return 0 }
