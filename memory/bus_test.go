package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type regDevice struct {
	regs   map[uint32]uint32
	resets int
}

func (rd *regDevice) Read(address uint32, word bool, cycles int64) uint32 {
	return rd.regs[address]
}

func (rd *regDevice) Write(address uint32, value uint32, word bool, cycles int64) {
	if rd.regs == nil {
		rd.regs = map[uint32]uint32{}
	}
	rd.regs[address] = value
}

func (rd *regDevice) Reset(kind int) {
	rd.resets++
	clear(rd.regs)
}

func (rd *regDevice) InterruptServiced(vector int) {}

func TestBusRam(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	assert.Equal(uint32(MAX_MEM), bus.Size())

	bus.Write(0x200, 0x1234, MODE_WORD, 0)
	assert.Equal(byte(0x34), bus.Memory[0x200])
	assert.Equal(byte(0x12), bus.Memory[0x201])
	assert.Equal(uint32(0x1234), bus.Read(0x200, MODE_WORD, 0))
	assert.Equal(uint32(0x34), bus.Read(0x200, MODE_BYTE, 0))

	bus.Write(0x203, 0xabcd, MODE_BYTE, 0)
	assert.Equal(uint32(0xcd), bus.Read(0x203, MODE_BYTE, 0))
	assert.Equal([4]int{}, bus.Warnings)
}

func TestBusMisaligned(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	bus.Write(0x301, 0xbeef, MODE_WORD, 0)
	assert.Equal(1, bus.Warnings[WARN_MISALIGNED_WRITE])
	assert.Equal(uint32(0xbeef), bus.Read(0x301, MODE_WORD, 0))
	assert.Equal(1, bus.Warnings[WARN_MISALIGNED_READ])

	assert.Equal("misaligned write", WARN_MISALIGNED_WRITE.String())
	assert.Equal("Warning(7)", Warning(7).String())
}

func TestBusWrap(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	bus.Write(MAX_MEM+0x400, 0x55aa, MODE_WORD, 0)
	assert.Equal(1, bus.Warnings[WARN_BOUNDS_WRITE])
	assert.Equal(uint32(0x55aa), bus.Read(0x400, MODE_WORD, 0))

	assert.Equal(uint32(0x55aa), bus.Read(MAX_MEM+0x400, MODE_WORD, 0))
	assert.Equal(1, bus.Warnings[WARN_BOUNDS_READ])

	// Top word of memory does not run off the end.
	bus.Write(0xfffe, 0xe000, MODE_WORD, 0)
	assert.Equal(uint32(0xe000), bus.Read(0xfffe, MODE_WORD, 0))
}

func TestBusIo(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	dev := &regDevice{}
	bus.SetIO(0x120, dev, true)
	bus.SetIORange(0x56, 3, dev)

	bus.Write(0x120, 0x5a80, MODE_WORD, 0)
	assert.Equal(uint32(0x5a80), dev.regs[0x120])
	assert.Equal(uint32(0x5a80), bus.Read(0x120, MODE_WORD, 0))

	bus.Write(0x57, 0x1ff, MODE_BYTE, 0)
	assert.Equal(uint32(0xff), dev.regs[0x57])

	// RAM behind the I/O page is untouched.
	assert.Equal(byte(0), bus.Memory[0x120])

	assert.Equal([]Device{dev}, bus.Devices())
	bus.Reset(RESET_POR)
	assert.Equal(1, dev.resets)
}

func TestBusWord20(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM_X)
	bus.Memory[0x403] = 0xff
	bus.Write(0x400, 0xabcde, MODE_WORD20, 0)
	assert.Equal([]byte{0xde, 0xbc, 0x0a, 0x00}, bus.Memory[0x400:0x404])
	assert.Equal(uint32(0xabcde), bus.Read(0x400, MODE_WORD20, 0))
	assert.Equal(uint32(0xbcde), bus.Read(0x400, MODE_WORD, 0))

	low := &regDevice{}
	high := &regDevice{}
	bus.SetIO(0x140, low, true)
	bus.SetIO(0x142, high, true)
	bus.Write(0x140, 0x5a5a5, MODE_WORD20, 0)
	assert.Equal(uint32(0xa5a5), low.regs[0x140])
	assert.Equal(uint32(0x5), high.regs[0x142])
	assert.NotContains(low.regs, uint32(0x142))
	assert.Equal(uint32(0x5a5a5), bus.Read(0x140, MODE_WORD20, 0))

	flash := &fakeFlash{writes: map[uint32]uint32{}}
	bus.Flash = flash
	bus.Write(0xe000, 0xfedcb, MODE_WORD20, 0)
	assert.Equal(uint32(0xedcb), flash.writes[0xe000])
	assert.Equal(uint32(0xf), flash.writes[0xe002])
	assert.Equal([4]int{}, bus.Warnings)
}

func TestBusVoid(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	assert.Equal(uint32(0), bus.Read(0x10, MODE_WORD, 0))
	bus.Write(0x10, 0x1234, MODE_WORD, 0)
	assert.Equal(2, bus.Void().Accesses)
	assert.Empty(bus.Devices())
}

type fakeFlash struct {
	writes map[uint32]uint32
	busy   bool
	reads  int
}

func (ff *fakeFlash) Contains(address uint32) bool { return address >= 0xe000 }
func (ff *fakeFlash) FlashWrite(address uint32, value uint32, word bool) {
	ff.writes[address] = value
}
func (ff *fakeFlash) NotifyRead(address uint32) { ff.reads++ }
func (ff *fakeFlash) Busy() bool                { return ff.busy }

func TestBusFlash(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	flash := &fakeFlash{writes: map[uint32]uint32{}}
	bus.Flash = flash

	bus.Write(0xe010, 0x4321, MODE_WORD, 0)
	assert.Equal(uint32(0x4321), flash.writes[0xe010])
	assert.Equal(byte(0), bus.Memory[0xe010])

	flash.busy = true
	bus.Read(0xe010, MODE_WORD, 0)
	assert.Equal(1, flash.reads)
	bus.Read(0x300, MODE_WORD, 0)
	assert.Equal(1, flash.reads)
}

func TestBusSnapshot(t *testing.T) {
	assert := assert.New(t)

	bus := NewBus(MAX_MEM)
	assert.NoError(bus.Load(0x200, []byte{1, 2, 3, 4}))
	snap := bus.Snapshot()

	bus.Write(0x200, 0xffff, MODE_WORD, 0)
	assert.NoError(bus.Restore(snap))
	assert.Equal(uint32(0x0201), bus.Read(0x200, MODE_WORD, 0))

	assert.ErrorIs(bus.Restore(snap[:10]), ErrSnapshotSize)
	assert.ErrorIs(bus.Load(0xfffe, []byte{1, 2, 3}), ErrLoadRange)
}
