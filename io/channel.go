// Package io provides the byte channels attached to the svm emulator.
// A Tape streams bytes from an io.Reader and to an io.Writer; a Rom
// serves a fixed image from memory.
package io

import (
	"iter"
)

// Channel defines the interface for all I/O channels in the svm system.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Receive returns an iterator that yields bytes from the channel.
	Receive() iter.Seq[byte]
	// Send writes a single byte to the channel.
	Send(value byte) error
}
