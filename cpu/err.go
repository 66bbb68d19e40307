package cpu

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrCpuOff         = errors.New(f("cpu off with no wake source"))
	ErrOpcodeInvalid  = errors.New(f("opcode invalid"))
	ErrOpcodeExtended = errors.New(f("opcode requires MSP430X"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrDataSyntax         = errors.New(f("data syntax"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeMissing      = errors.New(f("operand missing"))
	ErrOperandInvalid     = errors.New(f("operand invalid"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrJumpRange          = errors.New(f("jump out of range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrJumpAlignment      = errors.New(f("jump target misaligned"))

	// Program errors
	ErrHexSyntax   = errors.New(f("intel hex syntax"))
	ErrHexChecksum = errors.New(f("intel hex checksum"))
	ErrHexRecord   = errors.New(f("intel hex record type unsupported"))
)

// ErrOpcode is an instruction that could not be executed.
type ErrOpcode struct {
	Pc   uint32 // Address of the instruction.
	Code Code   // Instruction word.
}

func (eo *ErrOpcode) Error() string {
	return f("bad opcode 0x%04x (%v) at $%04x", uint16(eo.Code), eo.Code.String(), eo.Pc)
}

func (eo *ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(*ErrOpcode)
	return
}

// ErrProgramEnd is the normal termination of a program, by executing the
// instruction word 0x0000.
type ErrProgramEnd struct {
	Pc     uint32 // Address of the terminating word.
	R15    uint32 // Return value register.
	Cycles int64  // Cycles in the final lifecycle.
}

func (err *ErrProgramEnd) Error() string {
	return f("program end at $%04x, r15=0x%04x, %d cycles", err.Pc, err.R15, err.Cycles)
}

func (err *ErrProgramEnd) Is(target error) (ok bool) {
	_, ok = target.(*ErrProgramEnd)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
