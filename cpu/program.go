package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated instruction.
type Opcode struct {
	LineNo int      // Source line number, 1 based.
	Pc     uint16   // Address of the first byte.
	Words  []string // Mnemonic and operands, as written.
	Code   Code     // Encoded instruction.
}

// Program is an assembled program listing.
type Program struct {
	Opcodes []Opcode
	Symbols SymbolTable
}

type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the instruction.
}

// Debug finds the instruction covering an address.
func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(pc) >= int(op.Pc) && int(pc) < int(op.Pc)+op.Code.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(pc - op.Pc),
			}
			break
		}
	}

	return
}

// Size returns the length of the binary image.
func (prog *Program) Size() (size int) {
	for _, op := range prog.Opcodes {
		size += op.Code.Size()
	}
	return
}

// Binary returns the binary image of the program.
func (prog *Program) Binary() (bins []byte) {
	bins = make([]byte, 0, prog.Size())
	for _, code := range prog.Codes() {
		bins = code.Append(bins)
	}

	return
}

// Codes iterates over the instructions and their addresses.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(pc uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Pc, op.Code) {
				return
			}
		}
	}
}
