package cpu

import (
	"iter"
)

const (
	MEMORY_SIZE = 32768 // Bytes of addressable memory.
)

// Memory is the flat byte store shared by code and data.
type Memory [MEMORY_SIZE]byte

// Read8 reads the byte at an address.
func (mem *Memory) Read8(address uint16) (value uint8, err error) {
	if int(address) >= MEMORY_SIZE {
		err = ErrAddress(address)
		return
	}

	value = mem[address]
	return
}

// Read16 reads the big-endian word at an address.
func (mem *Memory) Read16(address uint16) (value uint16, err error) {
	if int(address)+1 >= MEMORY_SIZE {
		err = ErrAddress(address)
		return
	}

	value = (uint16(mem[address]) << 8) | uint16(mem[address+1])
	return
}

// Write16 writes a big-endian word at an address.
func (mem *Memory) Write16(address uint16, value uint16) (err error) {
	if int(address)+1 >= MEMORY_SIZE {
		err = ErrAddress(address)
		return
	}

	mem[address] = uint8(value >> 8)
	mem[address+1] = uint8(value)
	return
}

// Load copies bytes into memory starting at address 0.
// Bytes beyond the end of memory are not loaded, and truncated is set.
func (mem *Memory) Load(data iter.Seq[byte]) (count int, truncated bool) {
	for value := range data {
		if count == MEMORY_SIZE {
			truncated = true
			return
		}
		mem[count] = value
		count++
	}

	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}
