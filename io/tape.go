package io

import (
	"io"
	"iter"
)

// Tape provides sequential I/O operations for reading and writing byte streams.
// It wraps an io.Reader for input and io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	Received int // Bytes read from Input.
	Sent     int // Bytes written to Output.
}

var _ Channel = (*Tape)(nil)

// Rewind is not possible on a tape; only the counters are cleared.
func (tc *Tape) Rewind() {
	tc.Received = 0
	tc.Sent = 0
}

// Receive returns an iterator that yields bytes from the input stream,
// until the end of the stream or the first read error.
func (tc *Tape) Receive() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		if tc.Input == nil {
			return
		}
		var one [1]byte
		for {
			n, err := tc.Input.Read(one[:])
			if n == 1 {
				tc.Received++
				if !yield(one[0]) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// Send writes a byte to the output stream.
func (tc *Tape) Send(value byte) (err error) {
	if tc.Output == nil {
		err = ErrNoOutput
		return
	}

	_, err = tc.Output.Write([]byte{value})
	if err != nil {
		return
	}

	tc.Sent++

	return
}
