package power

import (
	"strings"
)

// Mode is the power mode of the CPU, which selects the load resistance.
//
// In LPM0 the CPU is off; LPM1 also stops an unused DCO, LPM2 stops the DCO,
// LPM3 leaves only ACLK running, and LPM4 stops all clocks.
type Mode int

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_ACTIVE      = Mode(0) // active
	MODE_LPM0        = Mode(1) // lpm0
	MODE_LPM1        = Mode(2) // lpm1
	MODE_LPM2        = Mode(3) // lpm2
	MODE_LPM3        = Mode(4) // lpm3
	MODE_LPM4        = Mode(5) // lpm4
	MODE_FLASH_WRITE = Mode(6) // flash-write
	MODE_ADC         = Mode(7) // adc
	MODE_COUNT       = 8
)

// ParseMode parses a mode name, as returned by Mode.String().
func ParseMode(name string) (mode Mode, err error) {
	name = strings.ToLower(name)
	for n := range MODE_COUNT {
		if Mode(n).String() == name {
			mode = Mode(n)
			return
		}
	}
	err = ErrMode
	return
}

// Resistance returns the load, in ohms, presented by the node in a power
// mode at a supply voltage. The polynomials are regressions over measured
// device current.
func Resistance(mode Mode, v float64) float64 {
	switch mode {
	case MODE_ACTIVE:
		return 4010.6*v + 803.53
	case MODE_LPM0:
		return 18232*v + 1017.9
	case MODE_LPM1:
		return 18230*v + 1014.3
	case MODE_LPM2:
		return 48202*v + 6229.5
	case MODE_LPM3:
		return -66859*v*v*v + 532699*v*v - 979608*v + 1e6
	case MODE_LPM4:
		return -128337*v*v*v + 1e6*v*v - 2e6*v + 3e6
	case MODE_FLASH_WRITE:
		return 4747.8*v + 152.98
	case MODE_ADC:
		return 3346.2*v + 1040.8
	}
	panic(ErrMode)
}
