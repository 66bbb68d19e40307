package cpu

import (
	"github.com/ezrec/wispsim/power"
)

// Special purpose registers.
const (
	PC = 0 // Program counter.
	SP = 1 // Stack pointer.
	SR = 2 // Status register, and constant generator 1.
	CG = 3 // Constant generator 2.

	REGISTERS = 16
)

// Status register bits.
const (
	SR_CARRY    = 0x0001
	SR_ZERO     = 0x0002
	SR_NEGATIVE = 0x0004
	SR_GIE      = 0x0008 // General interrupt enable.
	SR_CPUOFF   = 0x0010
	SR_OSCOFF   = 0x0020
	SR_SCG0     = 0x0040
	SR_SCG1     = 0x0080
	SR_OVERFLOW = 0x0100
)

const (
	MASK_16 = 0xffff  // Register width of the MSP430.
	MASK_20 = 0xfffff // Register width of the MSP430X.
)

var registerName = [REGISTERS]string{
	"pc", "sp", "sr", "cg",
	"r4", "r5", "r6", "r7", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

// ModeFromStatus returns the power mode selected by the status register.
func ModeFromStatus(sr uint32) power.Mode {
	if (sr & SR_CPUOFF) == 0 {
		return power.MODE_ACTIVE
	}

	switch sr & (SR_SCG0 | SR_SCG1 | SR_OSCOFF) {
	case 0:
		return power.MODE_LPM0
	case SR_SCG0:
		return power.MODE_LPM1
	case SR_SCG1:
		return power.MODE_LPM2
	case SR_SCG0 | SR_SCG1:
		return power.MODE_LPM3
	}

	return power.MODE_LPM4
}
