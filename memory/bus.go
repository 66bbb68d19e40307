package memory

import (
	"github.com/ezrec/wispsim/translate"
)

const (
	MAX_MEM   = 0x10000  // Address space of the MSP430.
	MAX_MEM_X = 0x100000 // Address space of the MSP430X.
	IO_SIZE   = 0x200    // Addresses below this are memory mapped I/O.
)

// Access modes.
const (
	MODE_BYTE   = 0 // 8 bit access.
	MODE_WORD   = 1 // 16 bit access.
	MODE_WORD20 = 2 // 20 bit access (MSP430X).
)

// Warning is the kind of a soft bus fault.
type Warning int

//go:generate go tool stringer -linecomment -type=Warning
const (
	WARN_MISALIGNED_READ  = Warning(0) // misaligned read
	WARN_MISALIGNED_WRITE = Warning(1) // misaligned write
	WARN_BOUNDS_READ      = Warning(2) // out of bounds read
	WARN_BOUNDS_WRITE     = Warning(3) // out of bounds write
)

// FlashController intercepts accesses to the flash regions of the memory map.
type FlashController interface {
	// Contains returns true if the address lies in flash.
	Contains(address uint32) bool
	// FlashWrite programs flash, instead of a plain RAM write.
	FlashWrite(address uint32, value uint32, word bool)
	// NotifyRead is called on reads from flash while the controller is busy.
	NotifyRead(address uint32)
	// Busy returns true while a program or erase operation is running.
	Busy() bool
}

// Bus is the memory bus. RAM and flash live in Memory, I/O below IO_SIZE is
// dispatched through In and Out.
type Bus struct {
	Verbose bool // Set to enable verbose logging.

	Memory []byte          // Memory contents.
	In     [IO_SIZE]Device // Read dispatch table.
	Out    [IO_SIZE]Device // Write dispatch table.
	Flash  FlashController // Optional flash controller.

	Warnings [4]int        // Count of soft faults, indexed by Warning.
	Pc       func() uint32 // Program counter, for warning messages.

	void *Void
}

// NewBus creates a bus with size bytes of memory, with all I/O unmapped.
func NewBus(size int) (bus *Bus) {
	bus = &Bus{
		Memory: make([]byte, size),
		void:   &Void{},
	}

	for n := range IO_SIZE {
		bus.In[n] = bus.void
		bus.Out[n] = bus.void
	}

	return
}

// Size of the addressable memory.
func (bus *Bus) Size() uint32 {
	return uint32(len(bus.Memory))
}

// Void returns the trap device used for unmapped I/O.
func (bus *Bus) Void() *Void {
	return bus.void
}

// SetIO maps a device at an address, and the following one if word is set.
func (bus *Bus) SetIO(address uint32, dev Device, word bool) {
	bus.In[address] = dev
	bus.Out[address] = dev
	if word {
		bus.In[address+1] = dev
		bus.Out[address+1] = dev
	}
}

// SetIORange maps a device over size addresses.
func (bus *Bus) SetIORange(address uint32, size int, dev Device) {
	for n := range uint32(size) {
		bus.SetIO(address+n, dev, false)
	}
}

// Devices returns the distinct mapped devices, in address order.
func (bus *Bus) Devices() (devs []Device) {
	seen := map[Device]bool{bus.void: true}
	for n := range IO_SIZE {
		for _, dev := range []Device{bus.In[n], bus.Out[n]} {
			if !seen[dev] {
				seen[dev] = true
				devs = append(devs, dev)
			}
		}
	}
	return
}

func (bus *Bus) warn(kind Warning, address uint32) {
	bus.Warnings[kind]++
	var pc uint32
	if bus.Pc != nil {
		pc = bus.Pc()
	}
	translate.Logf("bus: **** illegal %v at $%05x (pc $%04x)", kind, address, pc)
}

// wrap folds an out of bounds address back into memory.
func (bus *Bus) wrap(address uint32, kind Warning) uint32 {
	if address >= bus.Size() {
		bus.warn(kind, address)
		address %= bus.Size()
	}
	return address
}

func (bus *Bus) byteAt(address uint32) uint32 {
	return uint32(bus.Memory[address%bus.Size()])
}

// Read a byte, word or 20 bit word from the bus.
func (bus *Bus) Read(address uint32, mode int, cycles int64) (value uint32) {
	address = bus.wrap(address, WARN_BOUNDS_READ)
	word := mode != MODE_BYTE

	if address < IO_SIZE {
		value = bus.In[address].Read(address, word, cycles)
		if mode == MODE_WORD20 && address+2 < IO_SIZE {
			value |= (bus.In[address+2].Read(address+2, word, cycles) & 0xf) << 16
		}
		return
	}

	if bus.Flash != nil && bus.Flash.Busy() && bus.Flash.Contains(address) {
		bus.Flash.NotifyRead(address)
	}

	value = bus.byteAt(address)
	if mode == MODE_BYTE {
		return
	}

	if (address & 1) != 0 {
		bus.warn(WARN_MISALIGNED_READ, address)
	}
	value |= bus.byteAt(address+1) << 8
	if mode == MODE_WORD20 {
		value |= bus.byteAt(address+2) << 16
		value &= 0xfffff
	}

	return
}

// Write a byte, word or 20 bit word to the bus.
func (bus *Bus) Write(address uint32, value uint32, mode int, cycles int64) {
	address = bus.wrap(address, WARN_BOUNDS_WRITE)
	word := mode != MODE_BYTE

	if address < IO_SIZE {
		if !word {
			value &= 0xff
		}
		bus.Out[address].Write(address, value&0xffff, word, cycles)
		if mode == MODE_WORD20 && address+2 < IO_SIZE {
			bus.Out[address+2].Write(address+2, (value>>16)&0xf, word, cycles)
		}
		return
	}

	if bus.Flash != nil && bus.Flash.Contains(address) {
		if bus.Verbose {
			translate.Logf("bus: flash write $%04x at $%04x", value, address)
		}
		bus.Flash.FlashWrite(address, value&0xffff, word)
		if mode == MODE_WORD20 {
			bus.Flash.FlashWrite(address+2, (value>>16)&0xf, word)
		}
		return
	}

	size := bus.Size()
	bus.Memory[address] = byte(value)
	if !word {
		return
	}
	if (address & 1) != 0 {
		bus.warn(WARN_MISALIGNED_WRITE, address)
	}
	bus.Memory[(address+1)%size] = byte(value >> 8)
	if mode == MODE_WORD20 {
		bus.Memory[(address+2)%size] = byte(value>>16) & 0x0f
		bus.Memory[(address+3)%size] = 0
	}
}

// Load raw data into memory, bypassing I/O and flash.
func (bus *Bus) Load(address uint32, data []byte) (err error) {
	if uint64(address)+uint64(len(data)) > uint64(bus.Size()) {
		err = ErrLoadRange
		return
	}
	copy(bus.Memory[address:], data)
	return
}

// Snapshot returns a copy of memory.
func (bus *Bus) Snapshot() []byte {
	return append([]byte(nil), bus.Memory...)
}

// Restore memory from a snapshot.
func (bus *Bus) Restore(snapshot []byte) (err error) {
	if len(snapshot) != len(bus.Memory) {
		err = ErrSnapshotSize
		return
	}
	copy(bus.Memory, snapshot)
	return
}

// Reset all mapped devices.
func (bus *Bus) Reset(kind int) {
	for _, dev := range bus.Devices() {
		dev.Reset(kind)
	}
}
