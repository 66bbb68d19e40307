package cpu

// Code is an instruction word.
type Code uint16

// CodeClass is the instruction format, by the range of the instruction
// word: extended below 0x1000, single below 0x2000, jump below 0x4000, and
// double operand above.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	CLASS_EXTENDED = CodeClass(0) // extended
	CLASS_SINGLE   = CodeClass(1) // single
	CLASS_JUMP     = CodeClass(2) // jump
	CLASS_DOUBLE   = CodeClass(3) // double
)

// Single operand instructions.
const (
	OP_RRC  = Code(0x1000) // rrc
	OP_SWPB = Code(0x1080) // swpb
	OP_RRA  = Code(0x1100) // rra
	OP_SXT  = Code(0x1180) // sxt
	OP_PUSH = Code(0x1200) // push
	OP_CALL = Code(0x1280) // call
	OP_RETI = Code(0x1300) // reti

	SINGLE_MASK = Code(0xff80)
)

// Jump instructions.
const (
	OP_JNE = Code(0x2000) // jne, jnz
	OP_JEQ = Code(0x2400) // jeq, jz
	OP_JNC = Code(0x2800) // jnc, jlo
	OP_JC  = Code(0x2c00) // jc, jhs
	OP_JN  = Code(0x3000) // jn
	OP_JGE = Code(0x3400) // jge
	OP_JL  = Code(0x3800) // jl
	OP_JMP = Code(0x3c00) // jmp

	JUMP_MASK = Code(0xfc00)
)

// Double operand instructions.
const (
	OP_MOV  = Code(0x4000) // mov
	OP_ADD  = Code(0x5000) // add
	OP_ADDC = Code(0x6000) // addc
	OP_SUBC = Code(0x7000) // subc
	OP_SUB  = Code(0x8000) // sub
	OP_CMP  = Code(0x9000) // cmp
	OP_DADD = Code(0xa000) // dadd
	OP_BIT  = Code(0xb000) // bit
	OP_BIC  = Code(0xc000) // bic
	OP_BIS  = Code(0xd000) // bis
	OP_XOR  = Code(0xe000) // xor
	OP_AND  = Code(0xf000) // and

	DOUBLE_MASK = Code(0xf000)
)

// Extended (MSP430X) instructions.
const (
	OP_MOVA_IMM  = Code(0x0080) // mova #imm20, rdst
	OP_RETA      = Code(0x0110) // reta
	OP_CALLA_IMM = Code(0x13b0) // calla #imm20

	MOVA_IMM_MASK  = Code(0xf0f0)
	CALLA_IMM_MASK = Code(0xfff0)
)

// Well known instruction words.
const (
	CODE_END = Code(0x0000) // Program terminated.
	CODE_RET = Code(0x4130) // mov @sp+, pc
	CODE_NOP = Code(0x4303) // mov #0, cg
)

// Addressing modes, in the As field.
const (
	AM_REGISTER = 0 // Rn
	AM_INDEXED  = 1 // X(Rn)
	AM_INDIRECT = 2 // @Rn
	AM_AUTOINC  = 3 // @Rn+
)

var singleName = map[Code]string{
	OP_RRC:  "rrc",
	OP_SWPB: "swpb",
	OP_RRA:  "rra",
	OP_SXT:  "sxt",
	OP_PUSH: "push",
	OP_CALL: "call",
	OP_RETI: "reti",
}

var jumpName = map[Code]string{
	OP_JNE: "jne",
	OP_JEQ: "jeq",
	OP_JNC: "jnc",
	OP_JC:  "jc",
	OP_JN:  "jn",
	OP_JGE: "jge",
	OP_JL:  "jl",
	OP_JMP: "jmp",
}

var doubleName = map[Code]string{
	OP_MOV:  "mov",
	OP_ADD:  "add",
	OP_ADDC: "addc",
	OP_SUBC: "subc",
	OP_SUB:  "sub",
	OP_CMP:  "cmp",
	OP_DADD: "dadd",
	OP_BIT:  "bit",
	OP_BIC:  "bic",
	OP_BIS:  "bis",
	OP_XOR:  "xor",
	OP_AND:  "and",
}

// Class returns the instruction format.
func (code Code) Class() CodeClass {
	switch {
	case code < 0x1000:
		return CLASS_EXTENDED
	case code < 0x2000:
		return CLASS_SINGLE
	case code < 0x4000:
		return CLASS_JUMP
	}
	return CLASS_DOUBLE
}

// Byte returns true for byte operations.
func (code Code) Byte() bool {
	return (code & 0x0040) != 0
}

// SrcMode returns the source addressing mode (As).
func (code Code) SrcMode() int {
	return int(code>>4) & 0x3
}

// DstMode returns the destination addressing mode (Ad).
func (code Code) DstMode() int {
	return int(code>>7) & 0x1
}

// SrcReg returns the source register of a double operand instruction.
func (code Code) SrcReg() int {
	return int(code>>8) & 0xf
}

// DstReg returns the destination register, or the operand register of a
// single operand instruction.
func (code Code) DstReg() int {
	return int(code) & 0xf
}

// JumpOffset returns the signed word offset of a jump.
func (code Code) JumpOffset() int32 {
	offset := int32(code & 0x03ff)
	if (offset & 0x200) != 0 {
		offset -= 0x400
	}
	return offset
}

// Op returns the operation of the instruction, with operands masked off.
func (code Code) Op() Code {
	switch code.Class() {
	case CLASS_SINGLE:
		if (code & CALLA_IMM_MASK) == OP_CALLA_IMM {
			return OP_CALLA_IMM
		}
		return code & SINGLE_MASK
	case CLASS_JUMP:
		return code & JUMP_MASK
	case CLASS_DOUBLE:
		return code & DOUBLE_MASK
	}

	switch {
	case code == CODE_END:
		return CODE_END
	case code == OP_RETA:
		return OP_RETA
	case (code & MOVA_IMM_MASK) == OP_MOVA_IMM:
		return OP_MOVA_IMM
	}
	return code
}

// String returns the mnemonic of the instruction.
func (code Code) String() (text string) {
	op := code.Op()
	var ok bool
	switch code.Class() {
	case CLASS_SINGLE:
		if op == OP_CALLA_IMM {
			return "calla"
		}
		text, ok = singleName[op]
	case CLASS_JUMP:
		text, ok = jumpName[op]
	case CLASS_DOUBLE:
		text, ok = doubleName[op]
	default:
		switch op {
		case CODE_END:
			text, ok = "end", true
		case OP_RETA:
			text, ok = "reta", true
		case OP_MOVA_IMM:
			text, ok = "mova", true
		}
	}

	if !ok {
		return f(".word 0x%04x", uint16(code))
	}

	if code.Byte() && (code.Class() == CLASS_DOUBLE || (code.Class() == CLASS_SINGLE && op != OP_RETI)) {
		text += ".b"
	}

	return
}
