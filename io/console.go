package io

import (
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/translate"
)

const (
	CONSOLE_ADDRESS = 0x01f0 // Data register.
	CONSOLE_STATUS  = 0x01f2 // Status register.
	CONSOLE_SIZE    = 4      // Bytes of I/O space used.
	CONSOLE_BUFFER  = 64     // Output line buffer.

	CONSOLE_RX_READY = 0x01 // A byte can be read from the data register.
	CONSOLE_TX_READY = 0x02 // A byte can be written to the data register.
	CONSOLE_EOF      = 0x04 // Input is exhausted.
)

// Console is a byte port. Reads of the data register take bytes from
// Input, writes are line buffered to Output.
type Console struct {
	Verbose bool // Set to enable verbose logging.

	Input  io.Reader
	Output io.Writer

	Written int // Bytes written by the program.

	out       Fifo
	hasInput  bool
	lastInput byte
	eof       bool
}

var _ memory.Device = (*Console)(nil)

// Defines returns the assembler defines for the console.
func (con *Console) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"CONSOLE":          fmt.Sprintf("0x%x", CONSOLE_ADDRESS),
		"CONSOLE_STATUS":   fmt.Sprintf("0x%x", CONSOLE_STATUS),
		"CONSOLE_RX_READY": fmt.Sprintf("0x%x", CONSOLE_RX_READY),
		"CONSOLE_TX_READY": fmt.Sprintf("0x%x", CONSOLE_TX_READY),
		"CONSOLE_EOF":      fmt.Sprintf("0x%x", CONSOLE_EOF),
	})
}

// Map the console onto the bus.
func (con *Console) Map(bus *memory.Bus) {
	bus.SetIORange(CONSOLE_ADDRESS, CONSOLE_SIZE, con)
}

// fill reads the next input byte, if there is none pending.
func (con *Console) fill() {
	if con.hasInput || con.eof {
		return
	}
	if con.Input == nil {
		con.eof = true
		return
	}

	var one [1]byte
	_, err := con.Input.Read(one[:])
	if err != nil {
		con.eof = true
		return
	}
	con.lastInput = one[0]
	con.hasInput = true
}

func (con *Console) Read(address uint32, word bool, cycles int64) (value uint32) {
	switch address &^ 1 {
	case CONSOLE_ADDRESS:
		con.fill()
		if con.hasInput {
			value = uint32(con.lastInput)
			con.hasInput = false
		}
	case CONSOLE_STATUS:
		con.fill()
		value = CONSOLE_TX_READY
		if con.hasInput {
			value |= CONSOLE_RX_READY
		}
		if con.eof {
			value |= CONSOLE_EOF
		}
	}
	return
}

func (con *Console) Write(address uint32, value uint32, word bool, cycles int64) {
	if address&^1 != CONSOLE_ADDRESS {
		return
	}

	if con.out.Capacity == 0 {
		con.out.Capacity = CONSOLE_BUFFER
	}

	ch := byte(value)
	con.Written++
	if con.out.Send(ch) != nil {
		con.Flush()
		con.out.Send(ch)
	}
	if ch == '\n' {
		con.Flush()
	}
}

// Flush the buffered output.
func (con *Console) Flush() {
	var line []byte
	for ch := range con.out.Receive() {
		line = append(line, ch)
	}
	if len(line) == 0 || con.Output == nil {
		return
	}

	if con.Verbose {
		translate.Logf("console: %q", line)
	}

	_, err := con.Output.Write(line)
	if err != nil {
		translate.Logf("console: %v", err)
	}
}

// Reset flushes pending output. Input is outside the node, and is kept.
func (con *Console) Reset(kind int) {
	con.Flush()
}

func (con *Console) InterruptServiced(vector int) {}
