package cpu

import (
	"fmt"
)

// CodeOp is an opcode byte, or the DATA pseudo-op.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_HALT   = CodeOp(0x31)  // HALT
	OP_LOAD   = CodeOp(0x60)  // LOAD
	OP_LOADI  = CodeOp(0x61)  // LOADI
	OP_STORE  = CodeOp(0x62)  // STORE
	OP_STOREI = CodeOp(0x63)  // STOREI
	OP_JMP    = CodeOp(0x64)  // JMP
	OP_JMPZ   = CodeOp(0x65)  // JMPZ
	OP_JMPN   = CodeOp(0x66)  // JMPN
	OP_JMPO   = CodeOp(0x67)  // JMPO
	OP_ADD    = CodeOp(0x68)  // ADD
	OP_ADDR   = CodeOp(0x69)  // ADDR
	OP_SUB    = CodeOp(0x6a)  // SUB
	OP_SUBR   = CodeOp(0x6b)  // SUBR
	OP_OUT    = CodeOp(0x6c)  // OUT
	OP_OUTC   = CodeOp(0x6d)  // OUTC
	OP_OUTR   = CodeOp(0x6e)  // OUTR
	OP_OUTRC  = CodeOp(0x6f)  // OUTRC
	OP_OUTI   = CodeOp(0x70)  // OUTI
	OP_OUTIC  = CodeOp(0x71)  // OUTIC
	OP_DATA   = CodeOp(0x100) // DATA
)

// CodeOps lists every reserved mnemonic, in opcode order.
var CodeOps = []CodeOp{
	OP_HALT,
	OP_LOAD, OP_LOADI, OP_STORE, OP_STOREI,
	OP_JMP, OP_JMPZ, OP_JMPN, OP_JMPO,
	OP_ADD, OP_ADDR, OP_SUB, OP_SUBR,
	OP_OUT, OP_OUTC, OP_OUTR, OP_OUTRC, OP_OUTI, OP_OUTIC,
	OP_DATA,
}

// CodeReg is a two bit register code.
type CodeReg int

//go:generate go tool stringer -linecomment -type=CodeReg
const (
	REG_R2 = CodeReg(0) // R2
	REG_R1 = CodeReg(1) // R1
	REG_A2 = CodeReg(2) // A2
	REG_A1 = CodeReg(3) // A1
)

// IsData returns true for the data registers R1 and R2.
func (reg CodeReg) IsData() bool {
	return reg == REG_R1 || reg == REG_R2
}

// IsAddress returns true for the address registers A1 and A2.
func (reg CodeReg) IsAddress() bool {
	return reg == REG_A1 || reg == REG_A2
}

// CodeForm is the operand layout of an instruction.
type CodeForm int

const (
	FORM_INVALID = CodeForm(iota)
	FORM_NONE    // [op]
	FORM_REG_IMM // [op][reg][imm16]
	FORM_PAIR    // [op][src<<6|dst]
	FORM_TARGET  // [op][unused][addr16]
	FORM_IMM     // [op][unused][imm16]
	FORM_REG     // [op][reg]
	FORM_WORD    // [imm16]
)

// Size returns the encoded length in bytes of the form.
func (form CodeForm) Size() int {
	switch form {
	case FORM_NONE:
		return 1
	case FORM_REG_IMM, FORM_TARGET, FORM_IMM:
		return 4
	case FORM_PAIR, FORM_REG, FORM_WORD:
		return 2
	}
	return 0
}

// RegClass restricts the registers an operand slot accepts.
type RegClass int

const (
	CLASS_NONE = RegClass(iota) // Slot unused.
	CLASS_ANY                   // Any of R1, R2, A1, A2.
	CLASS_DATA                  // R1 or R2.
	CLASS_ADDR                  // A1 or A2.
)

// Accepts returns true if the register is permitted in the slot.
func (class RegClass) Accepts(reg CodeReg) bool {
	switch class {
	case CLASS_ANY:
		return reg.IsData() || reg.IsAddress()
	case CLASS_DATA:
		return reg.IsData()
	case CLASS_ADDR:
		return reg.IsAddress()
	}
	return false
}

// Form returns the operand layout of the opcode.
func (op CodeOp) Form() CodeForm {
	switch op {
	case OP_HALT:
		return FORM_NONE
	case OP_LOAD, OP_STORE, OP_ADD, OP_SUB:
		return FORM_REG_IMM
	case OP_LOADI, OP_STOREI, OP_ADDR, OP_SUBR:
		return FORM_PAIR
	case OP_JMP, OP_JMPZ, OP_JMPN, OP_JMPO:
		return FORM_TARGET
	case OP_OUT, OP_OUTC:
		return FORM_IMM
	case OP_OUTR, OP_OUTRC, OP_OUTI, OP_OUTIC:
		return FORM_REG
	case OP_DATA:
		return FORM_WORD
	}
	return FORM_INVALID
}

// Size returns the number of bytes the opcode occupies, or 0 if unknown.
func (op CodeOp) Size() int {
	return op.Form().Size()
}

// Valid returns true for a reserved mnemonic.
func (op CodeOp) Valid() bool {
	return op.Form() != FORM_INVALID
}

// RegClasses returns the register classes of the register (or packed
// destination) slot and of the packed source slot.
func (op CodeOp) RegClasses() (dst, src RegClass) {
	switch op {
	case OP_LOAD:
		return CLASS_ANY, CLASS_NONE
	case OP_STORE, OP_ADD, OP_SUB, OP_OUTR, OP_OUTRC:
		return CLASS_DATA, CLASS_NONE
	case OP_OUTI, OP_OUTIC:
		return CLASS_ADDR, CLASS_NONE
	case OP_LOADI, OP_STOREI:
		// Any register may hold the pointer.
		return CLASS_ANY, CLASS_ANY
	case OP_ADDR, OP_SUBR:
		return CLASS_DATA, CLASS_DATA
	}
	return CLASS_NONE, CLASS_NONE
}

// MakeRegPair packs a destination and a source register into one byte.
// Bits 7-6 hold the source, bits 1-0 the destination.
func MakeRegPair(dst, src CodeReg) uint8 {
	return (uint8(src&3) << 6) | uint8(dst&3)
}

// RegPairDecode unpacks a byte built by MakeRegPair. Bits 5-2 are ignored.
func RegPairDecode(pair uint8) (dst, src CodeReg) {
	dst = CodeReg(pair & 3)
	src = CodeReg((pair >> 6) & 3)
	return
}

// Code is a single decoded instruction.
type Code struct {
	Op  CodeOp // Opcode.
	Arg uint8  // Register, packed register pair, or unused byte.
	Imm uint16 // Immediate, address or data word.
}

// MakeCodeHalt creates a HALT instruction.
func MakeCodeHalt() Code {
	return Code{Op: OP_HALT}
}

// MakeCodeRegImm creates a LOAD, STORE, ADD or SUB instruction.
func MakeCodeRegImm(op CodeOp, reg CodeReg, imm uint16) Code {
	return Code{Op: op, Arg: uint8(reg), Imm: imm}
}

// MakeCodePair creates a LOADI, STOREI, ADDR or SUBR instruction.
func MakeCodePair(op CodeOp, dst, src CodeReg) Code {
	return Code{Op: op, Arg: MakeRegPair(dst, src)}
}

// MakeCodeTarget creates a jump instruction.
func MakeCodeTarget(op CodeOp, target uint16) Code {
	return Code{Op: op, Imm: target}
}

// MakeCodeImm creates an OUT or OUTC instruction.
func MakeCodeImm(op CodeOp, imm uint16) Code {
	return Code{Op: op, Imm: imm}
}

// MakeCodeReg creates an OUTR, OUTRC, OUTI or OUTIC instruction.
func MakeCodeReg(op CodeOp, reg CodeReg) Code {
	return Code{Op: op, Arg: uint8(reg)}
}

// MakeCodeData creates a DATA word.
func MakeCodeData(value uint16) Code {
	return Code{Op: OP_DATA, Imm: value}
}

// Size returns the encoded length of the instruction.
func (code Code) Size() int {
	return code.Op.Size()
}

// Reg returns the single register operand.
func (code Code) Reg() CodeReg {
	return CodeReg(code.Arg)
}

// PairDecode returns the packed destination and source registers.
func (code Code) PairDecode() (dst, src CodeReg) {
	return RegPairDecode(code.Arg)
}

// Append appends the big-endian encoding of the instruction to buf.
func (code Code) Append(buf []byte) []byte {
	hi := byte(code.Imm >> 8)
	lo := byte(code.Imm)

	switch code.Op.Form() {
	case FORM_NONE:
		buf = append(buf, byte(code.Op))
	case FORM_REG_IMM, FORM_TARGET, FORM_IMM:
		buf = append(buf, byte(code.Op), code.Arg, hi, lo)
	case FORM_PAIR, FORM_REG:
		buf = append(buf, byte(code.Op), code.Arg)
	case FORM_WORD:
		buf = append(buf, hi, lo)
	}

	return buf
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	switch code.Op.Form() {
	case FORM_NONE:
		out = code.Op.String()
	case FORM_REG_IMM:
		out = fmt.Sprintf("%v %v, %d", code.Op, code.Reg(), code.Imm)
	case FORM_PAIR:
		dst, src := code.PairDecode()
		out = fmt.Sprintf("%v %v, %v", code.Op, dst, src)
	case FORM_TARGET, FORM_IMM, FORM_WORD:
		out = fmt.Sprintf("%v %d", code.Op, code.Imm)
	case FORM_REG:
		out = fmt.Sprintf("%v %v", code.Op, code.Reg())
	default:
		out = fmt.Sprintf("%v", code.Op)
	}

	return
}

// Validate checks the register operands against the classes the opcode
// permits. Unused bytes are not checked.
func (code Code) Validate() (err error) {
	dstClass, srcClass := code.Op.RegClasses()

	switch code.Op.Form() {
	case FORM_REG_IMM, FORM_REG:
		if code.Arg > 3 || !dstClass.Accepts(code.Reg()) {
			err = ErrRegisterClass(code.Arg)
		}
	case FORM_PAIR:
		dst, src := code.PairDecode()
		if !dstClass.Accepts(dst) {
			err = ErrRegisterClass(dst)
		} else if !srcClass.Accepts(src) {
			err = ErrRegisterClass(src)
		}
	}

	return
}
