// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strconv"

	"github.com/ezrec/svm/io"
)

// Channel is an I/O channel interface.
type Channel io.Channel

const (
	SIGN_BIT = uint16(0x8000) // Sign bit of a 16-bit word.
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE": strconv.Itoa(MEMORY_SIZE),
	"SIGN_BIT":    fmt.Sprintf("0x%x", SIGN_BIT),
	"R1":          strconv.Itoa(int(REG_R1)),
	"R2":          strconv.Itoa(int(REG_R2)),
	"A1":          strconv.Itoa(int(REG_A1)),
	"A2":          strconv.Itoa(int(REG_A2)),
}

func init() {
	for _, op := range CodeOps {
		if op != OP_DATA {
			_cpu_defines["OP_"+op.String()] = fmt.Sprintf("0x%02x", int(op))
		}
	}
}

// Cpu is the simulation context for the svm processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory Memory // Code and data.

	Reg1, Reg2   uint16 // Data registers.
	Addr1, Addr2 uint16 // Address registers.
	Pc           uint16 // Program counter.
	Z, N, O      bool   // Zero, negative and overflow flags.

	Halted bool // Set once HALT executes.
	Ticks  int  // Instructions executed.

	Console Channel // Output for the OUT family.
}

// NewCpu creates a new CPU with zeroed state and memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	flag := func(name string, set bool) string {
		if set {
			return name
		}
		return "-"
	}

	text += fmt.Sprintf("% 5s: %04X\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 5s: %04X (%d)\n", "r1", cpu.Reg1, int16(cpu.Reg1))
	text += fmt.Sprintf("% 5s: %04X (%d)\n", "r2", cpu.Reg2, int16(cpu.Reg2))
	text += fmt.Sprintf("% 5s: %04X\n", "a1", cpu.Addr1)
	text += fmt.Sprintf("% 5s: %04X\n", "a2", cpu.Addr2)
	text += fmt.Sprintf("% 5s: %v%v%v\n", "flags", flag("Z", cpu.Z), flag("N", cpu.N), flag("O", cpu.O))

	return
}

// Reset the CPU state.
// - Clears the registers, flags and memory.
// - Zeros the tick counter.
// - Rewinds the console.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	cpu.Reg1, cpu.Reg2 = 0, 0
	cpu.Addr1, cpu.Addr2 = 0, 0
	cpu.Pc = 0
	cpu.Z, cpu.N, cpu.O = false, false, false
	cpu.Halted = false
	cpu.Ticks = 0

	if cpu.Console != nil {
		cpu.Console.Rewind()
	}
}

// register returns the storage for a register code.
func (cpu *Cpu) register(reg CodeReg) (value *uint16) {
	switch reg {
	case REG_R1:
		value = &cpu.Reg1
	case REG_R2:
		value = &cpu.Reg2
	case REG_A1:
		value = &cpu.Addr1
	case REG_A2:
		value = &cpu.Addr2
	}
	return
}

// FetchCode decodes the instruction at the program counter, and advances
// the program counter past the bytes it occupies.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	pc := cpu.Pc

	opcode, err := cpu.Memory.Read8(pc)
	if err != nil {
		return
	}

	op := CodeOp(opcode)
	form := op.Form()
	if form == FORM_INVALID || form == FORM_WORD {
		err = ErrOpcode(opcode)
		return
	}

	code.Op = op

	switch form {
	case FORM_REG_IMM, FORM_TARGET, FORM_IMM:
		code.Arg, err = cpu.Memory.Read8(pc + 1)
		if err != nil {
			return
		}
		code.Imm, err = cpu.Memory.Read16(pc + 2)
		if err != nil {
			return
		}
	case FORM_PAIR, FORM_REG:
		code.Arg, err = cpu.Memory.Read8(pc + 1)
		if err != nil {
			return
		}
	}

	cpu.Pc = pc + uint16(form.Size())

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	pc := cpu.Pc

	code, err := cpu.FetchCode()
	if err == nil {
		err = cpu.Execute(code)
	}

	if err != nil {
		err = &ErrFault{Pc: pc, Code: code, Err: err}
		return
	}

	cpu.Ticks++

	return
}

// Execute executes a single decoded instruction. The program counter must
// already be past the instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("%04x: %v", int(cpu.Pc)-code.Size(), code)
	}

	err = code.Validate()
	if err != nil {
		return
	}

	switch code.Op {
	case OP_HALT:
		cpu.Halted = true
	case OP_LOAD:
		cpu.load(code.Reg(), code.Imm)
	case OP_STORE:
		err = cpu.Memory.Write16(code.Imm, *cpu.register(code.Reg()))
	case OP_LOADI:
		dst, addr := code.PairDecode()
		var value uint16
		value, err = cpu.Memory.Read16(*cpu.register(addr))
		if err != nil {
			return
		}
		cpu.load(dst, value)
	case OP_STOREI:
		src, addr := code.PairDecode()
		err = cpu.Memory.Write16(*cpu.register(addr), *cpu.register(src))
	case OP_ADD, OP_SUB:
		target := cpu.register(code.Reg())
		*target = cpu.doAlu(code.Op, *target, code.Imm)
	case OP_ADDR, OP_SUBR:
		dst, src := code.PairDecode()
		target := cpu.register(dst)
		*target = cpu.doAlu(code.Op, *target, *cpu.register(src))
	case OP_JMP, OP_JMPZ, OP_JMPN, OP_JMPO:
		var jump bool
		switch code.Op {
		case OP_JMP:
			jump = true
		case OP_JMPZ:
			jump = cpu.Z
		case OP_JMPN:
			jump = cpu.N
		case OP_JMPO:
			jump = cpu.O
		}
		if jump {
			if int(code.Imm) >= MEMORY_SIZE {
				err = ErrJumpInvalid
				return
			}
			cpu.Pc = code.Imm
		}
	case OP_OUT:
		err = cpu.outDecimal(code.Imm)
	case OP_OUTC:
		err = cpu.outChar(uint8(code.Imm))
	case OP_OUTR:
		err = cpu.outDecimal(*cpu.register(code.Reg()))
	case OP_OUTRC:
		err = cpu.outChar(uint8(*cpu.register(code.Reg())))
	case OP_OUTI:
		var value uint16
		value, err = cpu.Memory.Read16(*cpu.register(code.Reg()))
		if err != nil {
			return
		}
		err = cpu.outDecimal(value)
	case OP_OUTIC:
		var value uint8
		value, err = cpu.Memory.Read8(*cpu.register(code.Reg()))
		if err != nil {
			return
		}
		err = cpu.outChar(value)
	default:
		// DATA words are never executed.
		err = ErrOpcode(uint8(code.Op))
	}

	return
}

// load sets a register, updating Z and N for data registers.
func (cpu *Cpu) load(reg CodeReg, value uint16) {
	*cpu.register(reg) = value

	if reg.IsData() {
		cpu.Z = value == 0
		cpu.N = (value & SIGN_BIT) != 0
	}
}

// doAlu performs an ADD or SUB, updates the flags, and returns the wrapped
// result.
func (cpu *Cpu) doAlu(op CodeOp, input uint16, value uint16) (output uint16) {
	a := input & SIGN_BIT
	b := value & SIGN_BIT

	switch op {
	case OP_ADD, OP_ADDR:
		output = input + value
		cpu.O = a == b && (output&SIGN_BIT) != a
	case OP_SUB, OP_SUBR:
		output = input - value
		cpu.O = a != b && (output&SIGN_BIT) != a
	}

	cpu.Z = output == 0
	cpu.N = (output & SIGN_BIT) != 0

	return
}

// outDecimal writes a word as a signed decimal number.
func (cpu *Cpu) outDecimal(value uint16) (err error) {
	return cpu.send(strconv.Itoa(int(int16(value))))
}

// outChar writes a single byte.
func (cpu *Cpu) outChar(value uint8) (err error) {
	return cpu.send(string([]byte{value}))
}

// send writes text to the console, if one is attached.
func (cpu *Cpu) send(text string) (err error) {
	if cpu.Console == nil {
		return
	}

	for _, c := range []byte(text) {
		err = cpu.Console.Send(c)
		if err != nil {
			return
		}
	}

	return
}
