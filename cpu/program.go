package cpu

import (
	"iter"
	"slices"

	"github.com/ezrec/wispsim/memory"
)

// Program is an assembled, or loaded, memory image.
type Program struct {
	Opcodes []Opcode          // Opcodes, in load order.
	Symbols map[string]uint32 // Label addresses.
}

type Debug struct {
	*Opcode
	Index int
}

// NewBinary creates a program from a raw binary image at an address.
func NewBinary(data []byte, address uint32) (prog *Program) {
	if len(data)%2 != 0 {
		data = append(slices.Clone(data), 0xff)
	}

	op := Opcode{Address: address}
	for n := 0; n < len(data); n += 2 {
		op.Codes = append(op.Codes, uint16(data[n])|uint16(data[n+1])<<8)
	}

	prog = &Program{
		Opcodes: []Opcode{op},
	}

	return
}

// Debug returns the opcode containing an address.
func (prog *Program) Debug(address uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if address >= op.Address && address < op.Address+uint32(len(op.Codes))*2 {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address-op.Address) / 2,
			}
			break
		}
	}

	return
}

// Symbol returns the address of a label.
func (prog *Program) Symbol(name string) (address uint32, ok bool) {
	address, ok = prog.Symbols[name]
	return
}

// Contains returns true if the program sets the word at an address.
func (prog *Program) Contains(address uint32) bool {
	return prog.Debug(address).Opcode != nil
}

// Words returns every word of the program, with its address.
func (prog *Program) Words() iter.Seq2[uint32, uint16] {
	return func(yield func(address uint32, word uint16) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Address+uint32(n)*2, code) {
					return
				}
			}
		}
	}
}

// Load writes the program into the bus memory.
func (prog *Program) Load(bus *memory.Bus) (err error) {
	for _, op := range prog.Opcodes {
		data := make([]byte, 0, len(op.Codes)*2)
		for _, code := range op.Codes {
			data = append(data, byte(code), byte(code>>8))
		}
		err = bus.Load(op.Address, data)
		if err != nil {
			return
		}
	}

	return
}
