// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/wispsim/translate"
)

const (
	ORIGIN      = 0xe000 // Default assembly origin, the start of MSP430F2132 flash.
	EQUATE_LOOP = 8      // Maximum depth of equate substitution.
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// LinkKind is the kind of fixup of a label reference.
type LinkKind int

const (
	LINK_ABSOLUTE = LinkKind(0) // Word is the label address.
	LINK_SYMBOLIC = LinkKind(1) // Word is the label address relative to the word.
	LINK_JUMP     = LinkKind(2) // Jump offset field of the instruction word.
	LINK_MOVA     = LinkKind(3) // 20 bit address, high nibble in bits 11..8.
	LINK_CALLA    = LinkKind(4) // 20 bit address, high nibble in bits 3..0.
)

// Link is a reference from an opcode to a label.
type Link struct {
	Index int      // Index of the word in the opcode.
	Label string   // Label to link.
	Kind  LinkKind // Kind of fixup.
}

// Opcode is a single assembled source line.
type Opcode struct {
	LineNo  int      // Source line number.
	Address uint32   // Address of the first word.
	Words   []string // Source words.
	Codes   []uint16 // Assembled words.
	Links   []Link   // Unresolved label references.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the MSP430.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	address    uint32 // Current assembly address.
	expansions int    // Count of macro expansions, for local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// registerMap is a map of register names to register numbers.
var registerMap = map[string]int{
	"pc": PC,
	"sp": SP,
	"sr": SR,
	"cg": CG,
}

func init() {
	for n := range REGISTERS {
		registerMap[fmt.Sprintf("r%d", n)] = n
	}
}

// isLabel matches words that can be labels.
var isLabel = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	for range EQUATE_LOOP {
		equate, ok := asm.Equate[word]
		if !ok {
			break
		}
		word = equate
	}

	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	if invert {
		value = ^value
	}

	return
}

// resolve returns the value of a word, or the label it names.
func (asm *Assembler) resolve(word string) (value uint32, label string, err error) {
	value, err = asm.valueOf(word)
	if err == nil {
		return
	}

	if isLabel.MatchString(word) {
		if _, reg := registerMap[strings.ToLower(word)]; !reg {
			label, err = word, nil
			return
		}
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(key)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	for key, address := range asm.Label {
		pred[key] = starlark.MakeInt(int(address))
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// parseLine parses a single line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	// Operands are separated by commas, or spaces.
	line = strings.ReplaceAll(line, ",", " ")
	line = strings.ReplaceAll(line, "\t", " ")
	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Register aliases
		equate, ok := asm.Equate[word]
		if ok {
			if _, reg := registerMap[strings.ToLower(equate)]; reg {
				words[n] = equate
			}
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.address
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.address = ORIGIN
	asm.expansions = 0
	asm.Label = make(map[string]uint32, 16)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			translate.Logf("%v: %v", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		for _, link := range op.Links {
			address, ok := asm.Label[link.Label]
			if !ok {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			err = op.link(link, address)
			if err != nil {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				return
			}
		}
		op.Links = nil
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Symbols: maps.Clone(asm.Label),
	}

	return
}

// link resolves a reference to an address.
func (op *Opcode) link(link Link, address uint32) (err error) {
	word := &op.Codes[link.Index]

	switch link.Kind {
	case LINK_ABSOLUTE:
		*word = uint16(address)
	case LINK_SYMBOLIC:
		*word = uint16(address - (op.Address + uint32(link.Index)*2))
	case LINK_JUMP:
		offset := int32(address) - int32(op.Address+2)
		if (offset & 1) != 0 {
			err = ErrJumpAlignment
			return
		}
		offset /= 2
		if offset < -512 || offset > 511 {
			err = ErrJumpRange
			return
		}
		*word |= uint16(offset) & 0x3ff
	case LINK_MOVA:
		op.Codes[0] |= uint16((address>>16)&0xf) << 8
		*word = uint16(address)
	case LINK_CALLA:
		op.Codes[0] |= uint16((address >> 16) & 0xf)
		*word = uint16(address)
	}

	return
}

// reference is a word of an opcode that refers to a value or a label.
type reference struct {
	Link
	value uint32 // Value, if Label is empty.
}

// operandCode is an encoded operand.
type operandCode struct {
	reg  int        // Register field.
	mode int        // As or Ad field.
	ext  bool       // Operand has an extension word.
	ref  *reference // Reference for the extension word.
}

// immediate encodes a literal constant, using the constant generators
// where possible.
func immediate(value uint32, byteOp bool) (opnd operandCode, ok bool) {
	mask, _ := width(byteOp)
	ok = true
	switch value & mask {
	case 0:
		opnd = operandCode{reg: CG, mode: AM_REGISTER}
	case 1:
		opnd = operandCode{reg: CG, mode: AM_INDEXED}
	case 2:
		opnd = operandCode{reg: CG, mode: AM_INDIRECT}
	case 4:
		opnd = operandCode{reg: SR, mode: AM_INDIRECT}
	case 8:
		opnd = operandCode{reg: SR, mode: AM_AUTOINC}
	case mask:
		opnd = operandCode{reg: CG, mode: AM_AUTOINC}
	default:
		ok = false
	}
	return
}

// register returns the register number of a word.
func register(word string) (reg int, err error) {
	reg, ok := registerMap[strings.ToLower(word)]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// indexedRe matches X(Rn).
var indexedRe = regexp.MustCompile(`^(.+)\(([A-Za-z0-9]+)\)$`)

// operand encodes an operand word. Destinations only allow register,
// indexed, symbolic and absolute modes; @Rn is encoded as 0(Rn).
func (asm *Assembler) operand(word string, byteOp bool, dest bool) (opnd operandCode, err error) {
	if reg, ok := registerMap[strings.ToLower(word)]; ok {
		opnd = operandCode{reg: reg, mode: AM_REGISTER}
		return
	}

	ref := func(text string, kind LinkKind) (err error) {
		value, label, rerr := asm.resolve(text)
		if rerr != nil {
			err = ErrOperandInvalid
			return
		}
		opnd.ext = true
		opnd.ref = &reference{Link: Link{Label: label, Kind: kind}, value: value}
		return
	}

	switch {
	case strings.HasPrefix(word, "#"):
		if dest {
			err = ErrTargetInvalid
			return
		}
		text := word[1:]
		if value, verr := asm.valueOf(text); verr == nil {
			if cg, ok := immediate(value, byteOp); ok {
				opnd = cg
				return
			}
		}
		opnd = operandCode{reg: PC, mode: AM_AUTOINC}
		err = ref(text, LINK_ABSOLUTE)
	case strings.HasPrefix(word, "&"):
		opnd = operandCode{reg: SR, mode: AM_INDEXED}
		err = ref(word[1:], LINK_ABSOLUTE)
	case strings.HasPrefix(word, "@"):
		text := word[1:]
		autoinc := strings.HasSuffix(text, "+")
		text = strings.TrimSuffix(text, "+")
		var reg int
		reg, err = register(text)
		if err != nil {
			return
		}
		switch {
		case autoinc && dest:
			err = ErrTargetInvalid
		case autoinc:
			opnd = operandCode{reg: reg, mode: AM_AUTOINC}
		case dest:
			opnd = operandCode{reg: reg, mode: AM_INDEXED, ext: true, ref: &reference{}}
		default:
			opnd = operandCode{reg: reg, mode: AM_INDIRECT}
		}
	default:
		if match := indexedRe.FindStringSubmatch(word); match != nil {
			var reg int
			reg, err = register(match[2])
			if err != nil {
				return
			}
			opnd = operandCode{reg: reg, mode: AM_INDEXED}
			err = ref(match[1], LINK_ABSOLUTE)
			return
		}
		opnd = operandCode{reg: PC, mode: AM_INDEXED}
		err = ref(word, LINK_SYMBOLIC)
	}

	return
}

// emulation is an emulated instruction. A "%" argument is replaced by the
// operand of the emulated instruction.
type emulation struct {
	mnemonic string
	args     []string
}

var emulated = map[string]emulation{
	"nop":  {"mov", []string{"#0", "r3"}},
	"ret":  {"mov", []string{"@sp+", "pc"}},
	"br":   {"mov", []string{"%", "pc"}},
	"pop":  {"mov", []string{"@sp+", "%"}},
	"clr":  {"mov", []string{"#0", "%"}},
	"inc":  {"add", []string{"#1", "%"}},
	"incd": {"add", []string{"#2", "%"}},
	"dec":  {"sub", []string{"#1", "%"}},
	"decd": {"sub", []string{"#2", "%"}},
	"tst":  {"cmp", []string{"#0", "%"}},
	"inv":  {"xor", []string{"#-1", "%"}},
	"rla":  {"add", []string{"%", "%"}},
	"rlc":  {"addc", []string{"%", "%"}},
	"adc":  {"addc", []string{"#0", "%"}},
	"sbc":  {"subc", []string{"#0", "%"}},
	"dadc": {"dadd", []string{"#0", "%"}},
	"setc": {"bis", []string{"#1", "sr"}},
	"clrc": {"bic", []string{"#1", "sr"}},
	"setz": {"bis", []string{"#2", "sr"}},
	"clrz": {"bic", []string{"#2", "sr"}},
	"setn": {"bis", []string{"#4", "sr"}},
	"clrn": {"bic", []string{"#4", "sr"}},
	"eint": {"bis", []string{"#8", "sr"}},
	"dint": {"bic", []string{"#8", "sr"}},
	"jz":   {"jeq", []string{"%"}},
	"jnz":  {"jne", []string{"%"}},
	"jlo":  {"jnc", []string{"%"}},
	"jhs":  {"jc", []string{"%"}},
}

// mnemonicMap maps mnemonics to operations.
var mnemonicMap = map[string]Code{}

func init() {
	for _, names := range []map[Code]string{singleName, jumpName, doubleName} {
		for code, name := range names {
			mnemonicMap[name] = code
		}
	}
}

// expand replaces an emulated instruction by its core instruction.
func expand(mnemonic string, args []string) (string, []string, error) {
	emu, ok := emulated[mnemonic]
	if !ok {
		return mnemonic, args, nil
	}

	operands := 0
	for _, arg := range emu.args {
		if arg == "%" {
			operands = 1
		}
	}
	if len(args) > operands {
		return "", nil, ErrOpcodeExtraArgs
	}
	if len(args) < operands {
		return "", nil, ErrOpcodeMissing
	}

	out := make([]string, len(emu.args))
	for n, arg := range emu.args {
		if arg == "%" {
			arg = args[0]
		}
		out[n] = arg
	}

	return emu.mnemonic, out, nil
}

// data assembles .word and .byte directives.
func (asm *Assembler) data(words []string, byteData bool) (codes []uint16, refs []reference, err error) {
	if byteData {
		var bytes []byte
		for _, word := range words {
			var value uint32
			value, err = asm.valueOf(word)
			if err != nil {
				err = ErrDataSyntax
				return
			}
			bytes = append(bytes, byte(value))
		}
		if len(bytes)%2 != 0 {
			bytes = append(bytes, 0)
		}
		for n := 0; n < len(bytes); n += 2 {
			codes = append(codes, uint16(bytes[n])|uint16(bytes[n+1])<<8)
		}
		return
	}

	for n, word := range words {
		value, label, rerr := asm.resolve(word)
		if rerr != nil {
			err = ErrDataSyntax
			return
		}
		codes = append(codes, 0)
		refs = append(refs, reference{Link: Link{Index: n, Label: label, Kind: LINK_ABSOLUTE}, value: value})
	}

	return
}

// instruction assembles an instruction.
func (asm *Assembler) instruction(mnemonic string, args []string) (codes []uint16, refs []reference, err error) {
	byteOp := false
	switch {
	case strings.HasSuffix(mnemonic, ".b"):
		byteOp = true
		mnemonic = strings.TrimSuffix(mnemonic, ".b")
	case strings.HasSuffix(mnemonic, ".w"):
		mnemonic = strings.TrimSuffix(mnemonic, ".w")
	}

	mnemonic, args, err = expand(mnemonic, args)
	if err != nil {
		return
	}

	want := func(count int) error {
		switch {
		case len(args) < count:
			return ErrOpcodeMissing
		case len(args) > count:
			return ErrOpcodeExtraArgs
		}
		return nil
	}

	addExt := func(opnd operandCode) {
		if !opnd.ext {
			return
		}
		codes = append(codes, 0)
		opnd.ref.Index = len(codes) - 1
		refs = append(refs, *opnd.ref)
	}

	byteBit := uint16(0)
	if byteOp {
		byteBit = 0x40
	}

	switch mnemonic {
	case "reti":
		if err = want(0); err != nil {
			return
		}
		codes = []uint16{uint16(OP_RETI)}
		return
	case "reta":
		if err = want(0); err != nil {
			return
		}
		codes = []uint16{uint16(OP_RETA)}
		return
	case "mova":
		if err = want(2); err != nil {
			return
		}
		if !strings.HasPrefix(args[0], "#") {
			err = ErrOperandInvalid
			return
		}
		var reg int
		reg, err = register(args[1])
		if err != nil {
			return
		}
		var value uint32
		var label string
		value, label, err = asm.resolve(args[0][1:])
		if err != nil {
			return
		}
		codes = []uint16{uint16(OP_MOVA_IMM) | uint16(reg), 0}
		refs = append(refs, reference{Link: Link{Index: 1, Label: label, Kind: LINK_MOVA}, value: value})
		return
	case "calla":
		if err = want(1); err != nil {
			return
		}
		if !strings.HasPrefix(args[0], "#") {
			err = ErrOperandInvalid
			return
		}
		var value uint32
		var label string
		value, label, err = asm.resolve(args[0][1:])
		if err != nil {
			return
		}
		codes = []uint16{uint16(OP_CALLA_IMM), 0}
		refs = append(refs, reference{Link: Link{Index: 1, Label: label, Kind: LINK_CALLA}, value: value})
		return
	}

	op, ok := mnemonicMap[mnemonic]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	switch op.Class() {
	case CLASS_JUMP:
		if err = want(1); err != nil {
			return
		}
		var value uint32
		var label string
		value, label, err = asm.resolve(args[0])
		if err != nil {
			err = ErrOperandInvalid
			return
		}
		codes = []uint16{uint16(op)}
		refs = append(refs, reference{Link: Link{Index: 0, Label: label, Kind: LINK_JUMP}, value: value})
	case CLASS_SINGLE:
		if err = want(1); err != nil {
			return
		}
		if byteOp && (op == OP_SWPB || op == OP_SXT || op == OP_CALL) {
			err = ErrInstructionInvalid
			return
		}
		var opnd operandCode
		opnd, err = asm.operand(args[0], byteOp, false)
		if err != nil {
			return
		}
		codes = []uint16{uint16(op) | byteBit | uint16(opnd.mode)<<4 | uint16(opnd.reg)}
		addExt(opnd)
	case CLASS_DOUBLE:
		if err = want(2); err != nil {
			return
		}
		var src, dst operandCode
		src, err = asm.operand(args[0], byteOp, false)
		if err != nil {
			return
		}
		dst, err = asm.operand(args[1], byteOp, true)
		if err != nil {
			return
		}
		codes = []uint16{uint16(op) | uint16(src.reg)<<8 | uint16(dst.mode)<<7 | byteBit | uint16(src.mode)<<4 | uint16(dst.reg)}
		addExt(src)
		addExt(dst)
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint16
	var refs []reference

	// no-op
	if len(words) == 0 {
		return
	}

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	switch mnemonic {
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var address uint32
		address, err = asm.valueOf(args[0])
		if err != nil || (address&1) != 0 {
			err = ErrOrgSyntax
			return
		}
		asm.address = address
		return
	case ".word":
		codes, refs, err = asm.data(args, false)
	case ".byte":
		codes, refs, err = asm.data(args, true)
	default:
		codes, refs, err = asm.instruction(mnemonic, args)
	}
	if err != nil {
		return
	}

	op := Opcode{LineNo: lineno, Address: asm.address, Words: words, Codes: codes}
	for _, ref := range refs {
		if len(ref.Label) > 0 {
			op.Links = append(op.Links, ref.Link)
			continue
		}
		err = op.link(ref.Link, ref.value)
		if err != nil {
			return
		}
	}

	asm.Opcode = append(asm.Opcode, op)
	asm.address += uint32(len(codes)) * 2

	return
}
