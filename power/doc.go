// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package power models the energy supply of an intermittently powered node.
//
// A Capacitor discharges through a load whose resistance depends on the CPU
// power mode and the present voltage, and may be recharged from an energy
// Trace. An Ideal supply holds a constant voltage and only integrates the
// energy consumed.
package power
