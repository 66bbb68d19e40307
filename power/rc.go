package power

import (
	"math"
)

const (
	DISCHARGE_SCALE       = 800.0 // Time scale of the discharge law.
	CHARGE_SCALE          = 800.0 // Time constant scale k of the charging law.
	FLASH_PROGRAM_CURRENT = 2e-3  // Flash program supply current (A).
)

// Discharge returns the voltage of capacitance c, initially at v0, after
// discharging through r for dt.
func Discharge(v0, r, c, dt float64) float64 {
	return v0 * math.Exp(-dt/(r*c))
}

// Charge returns the voltage of capacitance c, initially at v0, after being
// charged from vt through r for dt, with time constant scale k.
func Charge(v0, vt, r, c, dt, k float64) float64 {
	return v0 + vt*(1-math.Exp(-dt/(k*r*c)))
}

// Energy stored in capacitance c at voltage v, in joules.
func Energy(c, v float64) float64 {
	return 0.5 * c * v * v
}

// VoltageOf returns the voltage of capacitance c holding e joules.
func VoltageOf(c, e float64) float64 {
	if e <= 0 {
		return 0
	}
	return math.Sqrt(2 * e / c)
}

// FlashWriteEnergy is the energy, in joules, of programming flash for
// seconds at supply voltage v: the flash-write load plus the program
// supply current.
func FlashWriteEnergy(v, seconds float64) float64 {
	return v*v/Resistance(MODE_FLASH_WRITE, v)*seconds + ProgramEnergy(v, seconds)
}

// ProgramEnergy is the energy, in joules, drawn by the flash program
// supply alone. The flash-write load is carried by MODE_FLASH_WRITE.
func ProgramEnergy(v, seconds float64) float64 {
	return v * FLASH_PROGRAM_CURRENT * seconds
}
