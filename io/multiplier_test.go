package io

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/wispsim/memory"
)

func TestMultiplier(t *testing.T) {
	table := [](struct {
		name   string
		mode   uint32
		acc    uint32
		op1    uint32
		op2    uint32
		reslo  uint32
		reshi  uint32
		sumext uint32
	}){
		{"mpy", MPY, 0, 0x1234, 0x5678, 0x0060, 0x0626, 0},
		{"mpys", MPYS, 0, 0xfffe, 3, 0xfffa, 0xffff, 0xffff},
		{"mpys_positive", MPYS, 0, 0xfffe, 0xfffd, 6, 0, 0},
		{"mac", MAC, 0xffffffff, 1, 1, 0, 0, 1},
		{"mac_small", MAC, 10, 2, 3, 16, 0, 0},
		{"macs", MACS, 10, 0xfffe, 3, 4, 0, 0},
		{"macs_negative", MACS, 2, 0xfffe, 3, 0xfffc, 0xffff, 0xffff},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			mp := &Multiplier{}
			bus := memory.NewBus(memory.MAX_MEM)
			mp.Map(bus)

			bus.Write(RESLO, entry.acc&0xffff, memory.MODE_WORD, 0)
			bus.Write(RESHI, entry.acc>>16, memory.MODE_WORD, 0)
			bus.Write(entry.mode, entry.op1, memory.MODE_WORD, 0)
			bus.Write(OP2, entry.op2, memory.MODE_WORD, 0)

			assert.Equal(entry.reslo, bus.Read(RESLO, memory.MODE_WORD, 0))
			assert.Equal(entry.reshi, bus.Read(RESHI, memory.MODE_WORD, 0))
			assert.Equal(entry.sumext, bus.Read(SUMEXT, memory.MODE_WORD, 0))
			assert.Equal(entry.op1, bus.Read(entry.mode, memory.MODE_WORD, 0))
			assert.Equal(1, mp.Operations)
		})
	}
}

func TestMultiplierByte(t *testing.T) {
	assert := assert.New(t)

	mp := &Multiplier{}
	mp.Write(MPY, 0x1ff, false, 0)
	mp.Write(OP2, 0x02, false, 0)
	assert.Equal(uint32(0x01fe), mp.Read(RESLO, true, 0))
	assert.Equal(uint32(0xfe), mp.Read(RESLO, false, 0))
	assert.Equal(uint32(0x01), mp.Read(RESLO+1, false, 0))

	mp.Reset(memory.RESET_POR)
	assert.Equal(uint32(0), mp.Read(RESLO, true, 0))
	assert.Equal(1, mp.Operations)
}
