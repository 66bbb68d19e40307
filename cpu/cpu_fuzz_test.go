package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/wispsim/memory"
)

func FuzzStep(f *testing.F) {
	for _, code := range []uint16{0x0000, 0x4303, 0x4130, 0x1300, 0x12b0, 0x3fff, 0x018f, 0x13b1, 0x0110, 0xffff} {
		f.Add(code, uint16(0x1234), uint16(0x0200), false)
		f.Add(code, uint16(0xffff), uint16(0xfffe), true)
	}

	f.Fuzz(func(t *testing.T, opcode uint16, ext uint16, reg uint16, extended bool) {
		assert := assert.New(t)

		cpu := NewCpu()
		cpu.Extended = extended
		cpu.Bus.Write(0xfffe, ORIGIN, memory.MODE_WORD, 0)
		cpu.Bus.Write(ORIGIN, uint32(opcode), memory.MODE_WORD, 0)
		cpu.Bus.Write(ORIGIN+2, uint32(ext), memory.MODE_WORD, 0)
		cpu.Bus.Write(ORIGIN+4, uint32(ext), memory.MODE_WORD, 0)
		cpu.Reset()

		for n := 4; n < REGISTERS; n++ {
			cpu.Register[n] = uint32(reg)
		}
		cpu.Register[SP] = 0x0400

		result, err := cpu.Step(1000)
		if err != nil {
			var eo *ErrOpcode
			var end *ErrProgramEnd
			switch {
			case errors.As(err, &eo):
				assert.Equal(Code(opcode), eo.Code)
				assert.Equal(uint32(ORIGIN), eo.Pc)
			case errors.As(err, &end):
				assert.Equal(uint16(0), opcode)
			default:
				assert.ErrorIs(err, ErrCpuOff)
			}
			return
		}

		mask := uint32(MASK_16)
		if extended {
			mask = MASK_20
		}
		for n, value := range cpu.Register {
			assert.Equal(value&mask, value, "register %d", n)
		}
		assert.Equal(uint32(0), cpu.Register[PC]&1)
		assert.Equal(uint32(0), cpu.Register[SP]&1)
		assert.True(result.Executed || result.Suspended)
	})
}
