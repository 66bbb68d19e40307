package cpu

import (
	"errors"

	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/translate"
)

// Operand timing classes, by source addressing mode.
const (
	TIMING_REGISTER  = 0 // Rn, and constant generator values.
	TIMING_INDIRECT  = 1 // @Rn
	TIMING_AUTOINC   = 2 // @Rn+
	TIMING_IMMEDIATE = 3 // #N
	TIMING_INDEXED   = 4 // X(Rn), &ADDR and ADDR.
)

// Destination timing classes.
const (
	DEST_REGISTER = 0 // Rm
	DEST_PC       = 1 // PC
	DEST_INDEXED  = 2 // X(Rm), &ADDR and ADDR.
)

const (
	JUMP_CYCLES      = 2 // Cycles of a jump, taken or not.
	RETI_CYCLES      = 5 // Cycles of RETI.
	MOVA_IMM_CYCLES  = 2 // Cycles of MOVA #imm20, Rdst.
	CALLA_IMM_CYCLES = 5 // Cycles of CALLA #imm20.
	RETA_CYCLES      = 4 // Cycles of RETA.
)

// Double operand cycles, by source timing class and destination class.
var doubleCycles = [5][3]int64{
	TIMING_REGISTER:  {1, 2, 4},
	TIMING_INDIRECT:  {2, 2, 5},
	TIMING_AUTOINC:   {2, 3, 5},
	TIMING_IMMEDIATE: {2, 3, 5},
	TIMING_INDEXED:   {3, 3, 6},
}

// Single operand cycles, by operand timing class.
var singleCycles = map[Code][5]int64{
	OP_RRC:  {1, 3, 3, 3, 4},
	OP_RRA:  {1, 3, 3, 3, 4},
	OP_SWPB: {1, 3, 3, 3, 4},
	OP_SXT:  {1, 3, 3, 3, 4},
	OP_PUSH: {3, 4, 4, 4, 5},
	OP_CALL: {4, 4, 5, 5, 5},
}

// operand is a decoded instruction operand.
type operand struct {
	reg      int    // Register, or -1.
	address  uint32 // Memory address, if reg < 0 and not constant.
	value    uint32 // Constant value.
	constant bool   // Operand is a constant.
	timing   int    // Timing class.
}

// width returns the value mask and sign bit of an operation.
func width(byteOp bool) (mask uint32, msb uint32) {
	if byteOp {
		return 0xff, 0x80
	}
	return 0xffff, 0x8000
}

// accessMode returns the bus access mode of an operation.
func accessMode(byteOp bool) int {
	if byteOp {
		return memory.MODE_BYTE
	}
	return memory.MODE_WORD
}

// fetch the word at PC, and advance PC.
func (cpu *Cpu) fetch() (word uint32) {
	word = cpu.Bus.Read(cpu.Register[PC], memory.MODE_WORD, cpu.Cycles())
	cpu.writeRegister(PC, cpu.Register[PC]+2)
	return
}

// indexed returns base plus the signed 16 bit offset.
func (cpu *Cpu) indexed(base uint32, offset uint32) uint32 {
	return (base + uint32(int32(int16(offset)))) & cpu.regMask()
}

// source decodes a source operand (or a single operand), fetching any
// extension word.
func (cpu *Cpu) source(reg int, as int, byteOp bool) (op operand) {
	op.reg = -1

	switch reg {
	case SR:
		switch as {
		case AM_REGISTER:
			op.reg = SR
			op.timing = TIMING_REGISTER
		case AM_INDEXED:
			op.address = cpu.fetch()
			op.timing = TIMING_INDEXED
		case AM_INDIRECT:
			op.constant, op.value = true, 4
			op.timing = TIMING_REGISTER
		case AM_AUTOINC:
			op.constant, op.value = true, 8
			op.timing = TIMING_REGISTER
		}
		return
	case CG:
		mask, _ := width(byteOp)
		op.constant = true
		op.timing = TIMING_REGISTER
		op.value = [4]uint32{0, 1, 2, mask}[as]
		return
	}

	switch as {
	case AM_REGISTER:
		op.reg = reg
		op.timing = TIMING_REGISTER
	case AM_INDEXED:
		// For PC, the base is the address of the extension word.
		base := cpu.Register[reg]
		op.address = cpu.indexed(base, cpu.fetch())
		op.timing = TIMING_INDEXED
	case AM_INDIRECT:
		op.address = cpu.Register[reg]
		op.timing = TIMING_INDIRECT
	case AM_AUTOINC:
		if reg == PC {
			op.constant = true
			op.value = cpu.fetch()
			op.timing = TIMING_IMMEDIATE
			return
		}
		op.address = cpu.Register[reg]
		step := uint32(2)
		if byteOp && reg != SP {
			step = 1
		}
		cpu.writeRegister(reg, cpu.Register[reg]+step)
		op.timing = TIMING_AUTOINC
	}

	return
}

// destination decodes a double operand destination, fetching any
// extension word.
func (cpu *Cpu) destination(reg int, ad int) (op operand) {
	op.reg = -1

	if ad == 0 {
		op.reg = reg
		op.timing = DEST_REGISTER
		if reg == PC {
			op.timing = DEST_PC
		}
		return
	}

	op.timing = DEST_INDEXED
	if reg == SR {
		op.address = cpu.fetch()
	} else {
		base := cpu.Register[reg]
		op.address = cpu.indexed(base, cpu.fetch())
	}

	return
}

// read the value of an operand.
func (cpu *Cpu) read(op operand, byteOp bool) uint32 {
	mask, _ := width(byteOp)
	switch {
	case op.constant:
		return op.value & mask
	case op.reg >= 0:
		return cpu.Register[op.reg] & mask
	}
	return cpu.Bus.Read(op.address, accessMode(byteOp), cpu.Cycles())
}

// write the value of an operand. Byte writes to a register clear the
// high byte.
func (cpu *Cpu) write(op operand, value uint32, byteOp bool) {
	mask, _ := width(byteOp)
	value &= mask
	switch {
	case op.constant:
		// Immediate destinations are discarded.
	case op.reg >= 0:
		cpu.writeRegister(op.reg, value)
	default:
		cpu.Bus.Write(op.address, value, accessMode(byteOp), cpu.Cycles())
	}
}

// setFlags sets the arithmetic flags of the status register.
func (cpu *Cpu) setFlags(carry, zero, negative, overflow bool) {
	sr := cpu.Register[SR] &^ (SR_CARRY | SR_ZERO | SR_NEGATIVE | SR_OVERFLOW)
	if carry {
		sr |= SR_CARRY
	}
	if zero {
		sr |= SR_ZERO
	}
	if negative {
		sr |= SR_NEGATIVE
	}
	if overflow {
		sr |= SR_OVERFLOW
	}
	cpu.Register[SR] = sr
}

func (cpu *Cpu) flag(bit uint32) bool {
	return (cpu.Register[SR] & bit) != 0
}

// execute fetches and executes one instruction.
func (cpu *Cpu) execute() (cycles int64, err error) {
	pc := cpu.Register[PC]
	code := Code(cpu.fetch())

	if cpu.Verbose {
		translate.Logf("%04x: %04x %v", pc, uint16(code), code)
	}

	if code == CODE_END {
		err = &ErrProgramEnd{Pc: pc, R15: cpu.Register[15], Cycles: cpu.Cycles()}
		return
	}

	switch code.Class() {
	case CLASS_DOUBLE:
		cycles, err = cpu.executeDouble(pc, code)
	case CLASS_SINGLE:
		cycles, err = cpu.executeSingle(pc, code)
	case CLASS_JUMP:
		cycles = cpu.executeJump(code)
	default:
		cycles, err = cpu.executeExtended(pc, code)
	}

	return
}

// invalid returns the error for an unsupported instruction.
func invalid(pc uint32, code Code) error {
	return errors.Join(&ErrOpcode{Pc: pc, Code: code}, ErrOpcodeInvalid)
}

func (cpu *Cpu) executeDouble(pc uint32, code Code) (cycles int64, err error) {
	byteOp := code.Byte()
	mask, msb := width(byteOp)

	src := cpu.source(code.SrcReg(), code.SrcMode(), byteOp)
	s := cpu.read(src, byteOp)
	dst := cpu.destination(code.DstReg(), code.DstMode())

	cycles = doubleCycles[src.timing][dst.timing]

	op := code.Op()
	var d uint32
	if op != OP_MOV {
		d = cpu.read(dst, byteOp)
	}

	carry := uint32(0)
	if cpu.flag(SR_CARRY) {
		carry = 1
	}

	var r uint32
	writeBack := true
	flags := true
	var c, v bool

	switch op {
	case OP_MOV:
		r = s
		flags = false
	case OP_ADD, OP_ADDC:
		if op == OP_ADD {
			carry = 0
		}
		r = d + s + carry
		c = r > mask
		r &= mask
		v = ((s ^ r) & (d ^ r) & msb) != 0
	case OP_SUB, OP_SUBC, OP_CMP:
		if op != OP_SUBC {
			carry = 1
		}
		r = d + (^s & mask) + carry
		c = r > mask
		r &= mask
		v = ((d ^ s) & (d ^ r) & msb) != 0
		writeBack = op != OP_CMP
	case OP_DADD:
		nibbles := 4
		if byteOp {
			nibbles = 2
		}
		for n := range nibbles {
			shift := uint(n * 4)
			t := (d>>shift)&0xf + (s>>shift)&0xf + carry
			carry = 0
			if t > 9 {
				t = (t + 6) & 0xf
				carry = 1
			}
			r |= t << shift
		}
		c = carry != 0
	case OP_BIT, OP_AND:
		r = s & d
		c = r != 0
		writeBack = op == OP_AND
	case OP_BIC:
		r = d &^ s
		flags = false
	case OP_BIS:
		r = d | s
		flags = false
	case OP_XOR:
		r = s ^ d
		c = r != 0
		v = (s&msb) != 0 && (d&msb) != 0
	default:
		err = invalid(pc, code)
		return
	}

	r &= mask
	if writeBack {
		cpu.write(dst, r, byteOp)
	}
	if flags {
		cpu.setFlags(c, r == 0, (r&msb) != 0, v)
	}

	if dst.reg == PC && writeBack {
		if code == CODE_RET {
			cpu.returned()
		} else if cpu.MainAddress != 0 && cpu.Register[PC] == cpu.MainAddress && cpu.Profiler != nil {
			cpu.Profiler.ProfileCall(cpu.MainAddress, cpu.Cycles(), pc)
		}
	}

	return
}

func (cpu *Cpu) executeSingle(pc uint32, code Code) (cycles int64, err error) {
	op := code.Op()
	byteOp := code.Byte()

	switch op {
	case OP_RETI:
		if code != OP_RETI {
			err = invalid(pc, code)
			return
		}
		cpu.writeStatus(cpu.pop())
		cpu.writeRegister(PC, cpu.pop())
		cpu.Interrupts.Return()
		if cpu.Profiler != nil {
			cpu.Profiler.ProfileReturn(cpu.Cycles())
		}
		cycles = RETI_CYCLES
		return
	case OP_CALLA_IMM:
		if !cpu.Extended {
			err = errors.Join(&ErrOpcode{Pc: pc, Code: code}, ErrOpcodeExtended)
			return
		}
		target := (uint32(code)&0xf)<<16 | cpu.fetch()
		cpu.call(pc, target, true)
		cycles = CALLA_IMM_CYCLES
		return
	case OP_SWPB, OP_SXT, OP_CALL:
		if byteOp {
			err = invalid(pc, code)
			return
		}
	}

	table, ok := singleCycles[op]
	if !ok {
		err = invalid(pc, code)
		return
	}

	mask, msb := width(byteOp)
	opnd := cpu.source(code.DstReg(), code.SrcMode(), byteOp)
	cycles = table[opnd.timing]
	d := cpu.read(opnd, byteOp)

	var r uint32
	switch op {
	case OP_RRC:
		r = d >> 1
		if cpu.flag(SR_CARRY) {
			r |= msb
		}
		cpu.write(opnd, r, byteOp)
		cpu.setFlags((d&1) != 0, r == 0, (r&msb) != 0, false)
	case OP_RRA:
		r = (d >> 1) | (d & msb)
		cpu.write(opnd, r, byteOp)
		cpu.setFlags((d&1) != 0, r == 0, (r&msb) != 0, false)
	case OP_SWPB:
		r = ((d & 0xff) << 8) | ((d >> 8) & 0xff)
		cpu.write(opnd, r, false)
	case OP_SXT:
		r = d & 0xff
		if (r & 0x80) != 0 {
			r |= 0xff00
		}
		r &= mask
		cpu.write(opnd, r, false)
		cpu.setFlags(r != 0, r == 0, (r&0x8000) != 0, false)
	case OP_PUSH:
		cpu.push(d, accessMode(byteOp))
	case OP_CALL:
		cpu.call(pc, d, false)
	}

	return
}

func (cpu *Cpu) executeJump(code Code) (cycles int64) {
	var taken bool
	n := cpu.flag(SR_NEGATIVE)
	v := cpu.flag(SR_OVERFLOW)

	switch code.Op() {
	case OP_JNE:
		taken = !cpu.flag(SR_ZERO)
	case OP_JEQ:
		taken = cpu.flag(SR_ZERO)
	case OP_JNC:
		taken = !cpu.flag(SR_CARRY)
	case OP_JC:
		taken = cpu.flag(SR_CARRY)
	case OP_JN:
		taken = n
	case OP_JGE:
		taken = n == v
	case OP_JL:
		taken = n != v
	case OP_JMP:
		taken = true
	}

	if taken {
		cpu.writeRegister(PC, cpu.Register[PC]+uint32(code.JumpOffset()*2))
	}

	cycles = JUMP_CYCLES
	return
}

func (cpu *Cpu) executeExtended(pc uint32, code Code) (cycles int64, err error) {
	op := code.Op()
	if op != OP_MOVA_IMM && op != OP_RETA {
		err = invalid(pc, code)
		return
	}

	if !cpu.Extended {
		err = errors.Join(&ErrOpcode{Pc: pc, Code: code}, ErrOpcodeExtended)
		return
	}

	switch op {
	case OP_MOVA_IMM:
		value := (uint32(code)>>8&0xf)<<16 | cpu.fetch()
		cpu.writeRegister(code.DstReg(), value)
		cycles = MOVA_IMM_CYCLES
	case OP_RETA:
		cpu.writeRegister(PC, cpu.pop20())
		cpu.returned()
		cycles = RETA_CYCLES
	}

	return
}

// call pushes the return address and jumps to target, informing the
// validator and profiler.
func (cpu *Cpu) call(pc uint32, target uint32, extended bool) {
	if cpu.Validator != nil {
		if cpu.Validator.IsCheckpoint(target) {
			cpu.Validator.PreCall(&cpu.Register, cpu.Bus, cpu.Cycles())
			cpu.Validator.PushCall(false)
		} else if cpu.Validator.InCheckpoint() {
			cpu.Validator.PushCall(false)
		}
	}

	ret := cpu.Register[PC]
	if extended {
		cpu.push20(ret)
	} else {
		cpu.push(ret&MASK_16, memory.MODE_WORD)
	}
	cpu.writeRegister(PC, target)

	if cpu.Verbose {
		translate.Logf("cpu: call $%05x from $%05x", target, pc)
	}

	if cpu.Profiler != nil {
		cpu.Profiler.ProfileCall(target, cpu.Cycles(), pc)
	}
}

// returned informs the profiler and validator of a subroutine return.
func (cpu *Cpu) returned() {
	if cpu.Profiler != nil {
		cpu.Profiler.ProfileReturn(cpu.Cycles())
	}

	if cpu.Validator == nil || !cpu.Validator.InCheckpoint() {
		return
	}

	if cpu.Validator.PopCall() == 0 {
		if !cpu.Validator.PostCall(&cpu.Register, cpu.Bus, cpu.Cycles()) {
			translate.Logf("cpu: bad checkpoint at $%04x, cycles=%d", cpu.Register[PC], cpu.Cycles())
		}
	}
}
