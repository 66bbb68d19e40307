package io

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/wispsim/memory"
)

// Hardware multiplier registers.
const (
	MPY    = 0x0130 // Operand one, unsigned multiply.
	MPYS   = 0x0132 // Operand one, signed multiply.
	MAC    = 0x0134 // Operand one, unsigned multiply accumulate.
	MACS   = 0x0136 // Operand one, signed multiply accumulate.
	OP2    = 0x0138 // Operand two; writing starts the operation.
	RESLO  = 0x013a
	RESHI  = 0x013c
	SUMEXT = 0x013e

	MULTIPLIER_SIZE = 16
)

// Multiplier is the 16x16 hardware multiplier. Results are available
// immediately after OP2 is written.
type Multiplier struct {
	Operations int

	mode   uint32 // Address operand one was written to.
	op1    uint32
	op2    uint32
	reslo  uint32
	reshi  uint32
	sumext uint32
}

var _ memory.Device = (*Multiplier)(nil)

// Defines returns the assembler defines for the multiplier.
func (mp *Multiplier) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MPY":    fmt.Sprintf("0x%x", MPY),
		"MPYS":   fmt.Sprintf("0x%x", MPYS),
		"MAC":    fmt.Sprintf("0x%x", MAC),
		"MACS":   fmt.Sprintf("0x%x", MACS),
		"OP2":    fmt.Sprintf("0x%x", OP2),
		"RESLO":  fmt.Sprintf("0x%x", RESLO),
		"RESHI":  fmt.Sprintf("0x%x", RESHI),
		"SUMEXT": fmt.Sprintf("0x%x", SUMEXT),
	})
}

// Map the multiplier onto the bus.
func (mp *Multiplier) Map(bus *memory.Bus) {
	bus.SetIORange(MPY, MULTIPLIER_SIZE, mp)
}

func (mp *Multiplier) Read(address uint32, word bool, cycles int64) (value uint32) {
	switch address &^ 1 {
	case MPY, MPYS, MAC, MACS:
		value = mp.op1
	case OP2:
		value = mp.op2
	case RESLO:
		value = mp.reslo
	case RESHI:
		value = mp.reshi
	case SUMEXT:
		value = mp.sumext
	}
	if !word {
		if address&1 != 0 {
			value >>= 8
		}
		value &= 0xff
	}
	return
}

func (mp *Multiplier) Write(address uint32, value uint32, word bool, cycles int64) {
	if !word {
		value &= 0xff
	}

	switch address &^ 1 {
	case MPY, MPYS, MAC, MACS:
		mp.mode = address &^ 1
		mp.op1 = value
	case OP2:
		mp.op2 = value
		mp.multiply()
	case RESLO:
		mp.reslo = value
	case RESHI:
		mp.reshi = value
	}
}

// multiply runs the operation selected by the last operand one write.
func (mp *Multiplier) multiply() {
	mp.Operations++

	acc := mp.reshi<<16 | mp.reslo

	var result uint32
	switch mp.mode {
	case MPY:
		result = mp.op1 * mp.op2
		mp.sumext = 0
	case MPYS:
		product := int32(int16(mp.op1)) * int32(int16(mp.op2))
		result = uint32(product)
		mp.sumext = 0
		if product < 0 {
			mp.sumext = 0xffff
		}
	case MAC:
		sum := uint64(acc) + uint64(mp.op1*mp.op2)
		result = uint32(sum)
		mp.sumext = uint32(sum >> 32)
	case MACS:
		product := int32(int16(mp.op1)) * int32(int16(mp.op2))
		result = acc + uint32(product)
		mp.sumext = 0
		if int32(result) < 0 {
			mp.sumext = 0xffff
		}
	}

	mp.reslo = result & 0xffff
	mp.reshi = result >> 16
}

func (mp *Multiplier) Reset(kind int) {
	*mp = Multiplier{Operations: mp.Operations}
}

func (mp *Multiplier) InterruptServiced(vector int) {}
