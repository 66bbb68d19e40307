// Package memory implements the MSP430 memory bus.
//
// The bus owns the byte addressable RAM/flash image, and dispatches every
// access below IO_SIZE to the memory mapped Device registered for that
// address. Unmapped I/O addresses resolve to the Void device.
package memory
