package io

import (
	"iter"
)

// Fifo implements a circular buffer of bytes.
// It operates as a FIFO queue with a fixed capacity and separate read/write positions.
type Fifo struct {
	Capacity int // Capacity in bytes.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []byte
}

// Rewind resets the fifo to empty, resetting indices and reinitializing
// the data buffer.
func (fifo *Fifo) Rewind() {
	fifo.ReadIndex = 0
	fifo.WriteIndex = 0
	fifo.Size = 0
	fifo.Data = make([]byte, fifo.Capacity)
}

// Len returns the number of buffered bytes.
func (fifo *Fifo) Len() int {
	return fifo.Size
}

// Receive returns an iterator that yields bytes from the buffer until empty.
// The buffer wraps around at the capacity boundary.
func (fifo *Fifo) Receive() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		for fifo.Size > 0 {
			value := fifo.Data[fifo.ReadIndex]
			fifo.ReadIndex++
			if fifo.ReadIndex == fifo.Capacity {
				fifo.ReadIndex = 0
			}
			fifo.Size--
			if !yield(value) {
				return
			}
		}
	}
}

// Send writes a byte to the buffer at the current write position.
// Returns ErrFifoFull if the buffer has reached capacity.
func (fifo *Fifo) Send(value byte) (err error) {
	if len(fifo.Data) != fifo.Capacity {
		fifo.Rewind()
	}

	if fifo.Size >= fifo.Capacity {
		err = ErrFifoFull
		return
	}

	fifo.Data[fifo.WriteIndex] = value

	fifo.WriteIndex++
	if fifo.WriteIndex == fifo.Capacity {
		fifo.WriteIndex = 0
	}
	fifo.Size++

	return
}
