package io

import (
	"iter"
)

// Rom is a read-only image held in memory.
type Rom struct {
	Data []byte
}

var _ Channel = (*Rom)(nil)

// Rewind has nothing to do; every Receive starts at the beginning.
func (rc *Rom) Rewind() {
}

func (rc *Rom) Receive() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		for _, data := range rc.Data {
			if !yield(data) {
				return
			}
		}
	}
}

func (rc *Rom) Send(value byte) error {
	return ErrChannelFull
}
