package cpu

import (
	"errors"

	"github.com/ezrec/svm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted          = errors.New(f("halted"))
	ErrJumpInvalid     = errors.New(f("jump target invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))

	// Assembler errors
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrSymbolTableFull = errors.New(f("symbol table full"))
	ErrOperandExtra    = errors.New(f("excessive operands"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode is an undecodable opcode byte.
type ErrOpcode uint8

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x", uint8(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrAddress is a memory access at or beyond the end of memory.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address 0x%04x out of bounds", int(ea))
}

func (ea ErrAddress) Is(err error) (ok bool) {
	_, ok = err.(ErrAddress)
	return
}

// ErrFault is an execution error at a program counter.
type ErrFault struct {
	Pc   uint16
	Code Code
	Err  error
}

func (err *ErrFault) Error() string {
	return f("pc 0x%04x %v", err.Pc, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

func (err ErrParseRegister) Unwrap() error {
	return ErrRegisterInvalid
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrRegisterClass is a register code not permitted by the opcode.
type ErrRegisterClass CodeReg

func (err ErrRegisterClass) Error() string {
	return f("register %v not permitted", CodeReg(err).String())
}

func (err ErrRegisterClass) Unwrap() error {
	return ErrRegisterInvalid
}

type ErrParseMnemonic string

func (err ErrParseMnemonic) Error() string {
	return f("'%v' is not a mnemonic", string(err))
}

func (err ErrParseMnemonic) Unwrap() error {
	return ErrOpcodeInvalid
}
