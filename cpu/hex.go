package cpu

import (
	"bufio"
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"strings"
)

// Intel HEX record types.
const (
	HEX_DATA            = 0x00
	HEX_EOF             = 0x01
	HEX_SEGMENT_ADDRESS = 0x02
	HEX_SEGMENT_START   = 0x03
	HEX_LINEAR_ADDRESS  = 0x04
	HEX_LINEAR_START    = 0x05
)

// ERASED is the value of an erased flash byte.
const ERASED = 0xff

// LoadHex parses an Intel HEX image into a program. Contiguous data
// becomes one opcode per run of words; unset bytes of a partial word read
// as erased flash.
func LoadHex(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	image := map[uint32]byte{}
	base := uint32(0)

scan:
	for scanner.Scan() {
		lineno++
		line = strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		if line[0] != ':' {
			err = ErrHexSyntax
			return
		}

		var record []byte
		record, err = hex.DecodeString(line[1:])
		if err != nil || len(record) < 5 || int(record[0])+5 != len(record) {
			err = ErrHexSyntax
			return
		}

		var sum byte
		for _, b := range record {
			sum += b
		}
		if sum != 0 {
			err = ErrHexChecksum
			return
		}

		address := uint32(record[1])<<8 | uint32(record[2])
		data := record[4 : len(record)-1]

		switch record[3] {
		case HEX_DATA:
			for n, b := range data {
				image[base+address+uint32(n)] = b
			}
		case HEX_EOF:
			break scan
		case HEX_SEGMENT_ADDRESS:
			if len(data) != 2 {
				err = ErrHexSyntax
				return
			}
			base = (uint32(data[0])<<8 | uint32(data[1])) << 4
		case HEX_LINEAR_ADDRESS:
			if len(data) != 2 {
				err = ErrHexSyntax
				return
			}
			base = (uint32(data[0])<<8 | uint32(data[1])) << 16
		case HEX_SEGMENT_START, HEX_LINEAR_START:
			// Entry points come from the reset vector.
		default:
			err = ErrHexRecord
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	prog = &Program{}

	words := map[uint32]bool{}
	for address := range image {
		words[address&^1] = true
	}

	var op *Opcode
	for _, address := range slices.Sorted(maps.Keys(words)) {
		if op == nil || op.Address+uint32(len(op.Codes))*2 != address {
			prog.Opcodes = append(prog.Opcodes, Opcode{Address: address})
			op = &prog.Opcodes[len(prog.Opcodes)-1]
		}

		low, ok := image[address]
		if !ok {
			low = ERASED
		}
		high, ok := image[address+1]
		if !ok {
			high = ERASED
		}
		op.Codes = append(op.Codes, uint16(low)|uint16(high)<<8)
	}

	return
}
