package memory

import (
	"github.com/ezrec/wispsim/translate"
)

// Reset kinds passed to Device.Reset.
const (
	RESET_POR = 0 // Power on reset.
	RESET_PUC = 1 // Power up clear.
)

// Device is a memory mapped I/O unit.
type Device interface {
	// Read is called for reads of any address mapped to the device.
	Read(address uint32, word bool, cycles int64) uint32
	// Write is called for writes to any address mapped to the device.
	Write(address uint32, value uint32, word bool, cycles int64)
	// Reset the device state.
	Reset(kind int)
	// InterruptServiced is called when an interrupt raised by the device
	// is serviced.
	InterruptServiced(vector int)
}

// Void traps accesses to I/O addresses that have no device.
type Void struct {
	Accesses int // Number of trapped accesses.
}

var _ Device = (*Void)(nil)

func (v *Void) Read(address uint32, word bool, cycles int64) uint32 {
	v.Accesses++
	translate.Logf("bus: read from non-existent IO at $%04x", address)
	return 0
}

func (v *Void) Write(address uint32, value uint32, word bool, cycles int64) {
	v.Accesses++
	translate.Logf("bus: write to non-existent IO at $%04x", address)
}

func (v *Void) Reset(kind int) {}

func (v *Void) InterruptServiced(vector int) {}
