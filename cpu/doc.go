// Package cpu implements the processor and assembler for the svm system.
//
// The CPU has two 16-bit data registers (R1, R2), two 16-bit address
// registers (A1, A2), a 16-bit program counter and the Z, N and O condition
// flags, attached to 32KiB of byte addressable memory holding both code and
// data. Instructions are 1, 2 or 4 bytes long, with big-endian immediates.
//
// The assembler is a two pass assembler. The first pass assigns an address
// to every line and binds labels; the second pass resolves operands and
// encodes instructions. Operands may use 'c' character literals and
// compile-time $(...) expressions.
package cpu
