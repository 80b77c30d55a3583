package cpu

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/svm/io"
)

func newTestCpu(codes ...Code) (cpu *Cpu, out *bytes.Buffer) {
	cpu = NewCpu()
	out = &bytes.Buffer{}
	cpu.Console = &io.Tape{Output: out}

	var image []byte
	for _, code := range codes {
		image = code.Append(image)
	}
	cpu.Memory.Load(slices.Values(image))

	return
}

func runCpu(cpu *Cpu) (err error) {
	for !cpu.Halted && cpu.Ticks < 10000 {
		err = cpu.Tick()
		if err != nil {
			return
		}
	}
	return
}

func TestCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.Equal(uint16(0), cpu.Pc)
	assert.Equal(uint16(0), cpu.Reg1)
	assert.Equal(uint16(0), cpu.Addr2)
	assert.False(cpu.Z || cpu.N || cpu.O)
	assert.False(cpu.Halted)
	assert.Equal(0, cpu.Ticks)

	// No console attached.
	cpu.Memory.Load(slices.Values(MakeCodeImm(OP_OUT, 7).Append(nil)))
	assert.NoError(cpu.Tick())
	assert.Equal(uint16(4), cpu.Pc)
}

func TestCpuReset(t *testing.T) {
	assert := assert.New(t)

	tape := &io.Tape{Output: &bytes.Buffer{}}
	cpu := NewCpu()
	cpu.Console = tape

	cpu.Reg1, cpu.Reg2, cpu.Addr1, cpu.Addr2, cpu.Pc = 1, 2, 3, 4, 5
	cpu.Z, cpu.N, cpu.O, cpu.Halted = true, true, true, true
	cpu.Ticks = 10
	cpu.Memory[100] = 0xaa
	assert.NoError(tape.Send('x'))

	cpu.Reset()
	assert.Equal(NewCpu().String(), cpu.String())
	assert.False(cpu.Halted)
	assert.Equal(0, cpu.Ticks)
	assert.Equal(uint8(0), cpu.Memory[100])
	assert.Equal(0, tape.Sent)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Reg1 = 0xffff
	cpu.Pc = 0x10
	cpu.Z = true
	cpu.O = true

	expected := "   pc: 0010\n" +
		"   r1: FFFF (-1)\n" +
		"   r2: 0000 (0)\n" +
		"   a1: 0000\n" +
		"   a2: 0000\n" +
		"flags: Z-O\n"
	assert.Equal(expected, cpu.String())
}

func TestCpuDefines(t *testing.T) {
	assert := assert.New(t)

	defines := map[string]string{}
	for key, value := range NewCpu().Defines() {
		defines[key] = value
	}

	assert.Equal("32768", defines["MEMORY_SIZE"])
	assert.Equal("0x8000", defines["SIGN_BIT"])
	assert.Equal("3", defines["A1"])
	assert.Equal("0x31", defines["OP_HALT"])
	assert.Equal("0x71", defines["OP_OUTIC"])
	_, ok := defines["OP_DATA"]
	assert.False(ok)
}

func TestCpuAlu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op      CodeOp
		a, b    uint16
		result  uint16
		z, n, o bool
	}){
		{OP_ADD, 1, 2, 3, false, false, false},
		{OP_ADD, 0x7fff, 1, 0x8000, false, true, true},
		{OP_ADD, 0xffff, 1, 0, true, false, false},
		{OP_ADD, 0x8000, 0x8000, 0, true, false, true},
		{OP_ADDR, 0xfffe, 0xffff, 0xfffd, false, true, false},
		{OP_SUB, 5, 5, 0, true, false, false},
		{OP_SUB, 0, 1, 0xffff, false, true, false},
		{OP_SUB, 0x8000, 1, 0x7fff, false, false, true},
		{OP_SUBR, 0x7fff, 0xffff, 0x8000, false, true, true},
		{OP_SUBR, 0xffff, 0xffff, 0, true, false, false},
	}

	for _, entry := range table {
		cpu := NewCpu()
		result := cpu.doAlu(entry.op, entry.a, entry.b)
		assert.Equal(entry.result, result, entry)
		assert.Equal(entry.z, cpu.Z, entry)
		assert.Equal(entry.n, cpu.N, entry)
		assert.Equal(entry.o, cpu.O, entry)
	}
}

func TestCpuOverflow(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(
		MakeCodeRegImm(OP_ADD, REG_R1, 32767),
		MakeCodeRegImm(OP_ADD, REG_R1, 1),
		MakeCodeHalt(),
	)

	assert.NoError(runCpu(cpu))
	assert.Equal(uint16(0x8000), cpu.Reg1)
	assert.True(cpu.O)
	assert.True(cpu.N)
	assert.False(cpu.Z)
	assert.Equal(3, cpu.Ticks)
	assert.Equal(uint16(9), cpu.Pc)
}

func TestCpuLoadFlags(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	cpu.O = true
	cpu.load(REG_R1, 0)
	assert.True(cpu.Z)
	assert.False(cpu.N)
	assert.True(cpu.O)

	cpu.load(REG_R2, 0x8000)
	assert.False(cpu.Z)
	assert.True(cpu.N)

	// Address registers leave the flags alone.
	cpu.load(REG_A1, 0)
	assert.False(cpu.Z)
	assert.True(cpu.N)
	assert.Equal(uint16(0), cpu.Addr1)
}

func TestCpuJump(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op     CodeOp
		r1     uint16
		output string
	}){
		{OP_JMP, 1, "2"},
		{OP_JMPZ, 0, "2"},
		{OP_JMPZ, 1, "12"},
		{OP_JMPN, 0xffff, "2"},
		{OP_JMPN, 1, "12"},
	}

	for _, entry := range table {
		cpu, out := newTestCpu(
			MakeCodeRegImm(OP_LOAD, REG_R1, entry.r1), // 0
			MakeCodeTarget(entry.op, 12),              // 4
			MakeCodeImm(OP_OUT, 1),                    // 8
			MakeCodeImm(OP_OUT, 2),                    // 12
			MakeCodeHalt(),                            // 16
		)
		assert.NoError(runCpu(cpu), entry)
		assert.Equal(entry.output, out.String(), entry)
	}

	// JMPO follows an overflowing ADD.
	cpu, out := newTestCpu(
		MakeCodeRegImm(OP_ADD, REG_R2, 0x7fff), // 0
		MakeCodeRegImm(OP_ADD, REG_R2, 1),      // 4
		MakeCodeTarget(OP_JMPO, 16),            // 8
		MakeCodeImm(OP_OUT, 1),                 // 12
		MakeCodeImm(OP_OUT, 2),                 // 16
		MakeCodeHalt(),                         // 20
	)
	assert.NoError(runCpu(cpu))
	assert.Equal("2", out.String())

	// An untaken jump is never checked.
	cpu, out = newTestCpu(
		MakeCodeTarget(OP_JMPZ, 0x9000),
		MakeCodeImm(OP_OUT, 3),
		MakeCodeHalt(),
	)
	assert.NoError(runCpu(cpu))
	assert.Equal("3", out.String())
}

func TestCpuAddressing(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(
		MakeCodeRegImm(OP_LOAD, REG_A1, 100),
		MakeCodeRegImm(OP_LOAD, REG_R1, 1234),
		MakeCodeRegImm(OP_STORE, REG_R1, 100),
		MakeCodePair(OP_LOADI, REG_R2, REG_A1),
		MakeCodeRegImm(OP_LOAD, REG_R1, 77),
		MakeCodeRegImm(OP_LOAD, REG_A2, 200),
		MakeCodePair(OP_STOREI, REG_R1, REG_A2),
		MakeCodePair(OP_LOADI, REG_A1, REG_A2),
		MakeCodeHalt(),
	)

	assert.NoError(runCpu(cpu))
	assert.Equal(uint16(1234), cpu.Reg2)
	assert.Equal(uint8(0x04), cpu.Memory[100])
	assert.Equal(uint8(0xd2), cpu.Memory[101])

	value, err := cpu.Memory.Read16(200)
	assert.NoError(err)
	assert.Equal(uint16(77), value)
	assert.Equal(uint16(77), cpu.Addr1)
}

func TestCpuDataPointer(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(
		MakeCodeRegImm(OP_LOAD, REG_R1, 0x1234),
		MakeCodeRegImm(OP_STORE, REG_R1, 100),
		MakeCodeRegImm(OP_LOAD, REG_R2, 100),
		MakeCodePair(OP_LOADI, REG_R1, REG_R2),
		MakeCodeRegImm(OP_LOAD, REG_R1, 200),
		MakeCodePair(OP_STOREI, REG_R2, REG_R1),
		MakeCodeRegImm(OP_LOAD, REG_A1, 200),
		MakeCodeReg(OP_OUTI, REG_A1),
		MakeCodeHalt(),
	)

	assert.NoError(runCpu(cpu))
	assert.Equal("100", out.String())

	value, err := cpu.Memory.Read16(200)
	assert.NoError(err)
	assert.Equal(uint16(100), value)
	assert.Equal(uint16(200), cpu.Reg1)
}

func TestCpuRegisterArithmetic(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(
		MakeCodeRegImm(OP_LOAD, REG_R1, 10),
		MakeCodeRegImm(OP_LOAD, REG_R2, 3),
		MakeCodePair(OP_ADDR, REG_R1, REG_R2),
		MakeCodePair(OP_SUBR, REG_R2, REG_R1),
		MakeCodeHalt(),
	)

	assert.NoError(runCpu(cpu))
	assert.Equal(uint16(13), cpu.Reg1)
	assert.Equal(uint16(0xfff6), cpu.Reg2)
	assert.True(cpu.N)
}

func TestCpuOutput(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(
		MakeCodeImm(OP_OUT, 65535),
		MakeCodeImm(OP_OUTC, ' '),
		MakeCodeImm(OP_OUTC, 0x148),
		MakeCodeRegImm(OP_LOAD, REG_R1, 0xfffe),
		MakeCodeReg(OP_OUTR, REG_R1),
		MakeCodeRegImm(OP_LOAD, REG_R2, 0x4142),
		MakeCodeReg(OP_OUTRC, REG_R2),
		MakeCodeRegImm(OP_STORE, REG_R2, 200),
		MakeCodeRegImm(OP_LOAD, REG_A2, 200),
		MakeCodeReg(OP_OUTIC, REG_A2),
		MakeCodeReg(OP_OUTI, REG_A2),
		MakeCodeHalt(),
	)

	assert.NoError(runCpu(cpu))
	assert.Equal("-1 H-2BA16706", out.String())
}

func TestCpuFaults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		codes []Code
		pc    uint16
		err   error
	}){
		{"data", []Code{MakeCodeData(0)}, 0, ErrOpcode(0)},
		{"jump", []Code{MakeCodeImm(OP_OUT, 0), MakeCodeTarget(OP_JMP, MEMORY_SIZE)}, 4, ErrJumpInvalid},
		{"store", []Code{MakeCodeRegImm(OP_STORE, REG_R1, MEMORY_SIZE-1)}, 0, ErrAddress(0)},
		{"loadi", []Code{
			MakeCodeRegImm(OP_LOAD, REG_A1, 0xffff),
			MakeCodePair(OP_LOADI, REG_R1, REG_A1),
		}, 4, ErrAddress(0)},
		{"outic", []Code{
			MakeCodeRegImm(OP_LOAD, REG_A1, MEMORY_SIZE),
			MakeCodeReg(OP_OUTIC, REG_A1),
		}, 4, ErrAddress(0)},
		{"pair", []Code{{Op: OP_ADDR, Arg: MakeRegPair(REG_R1, REG_A1)}}, 0, ErrRegisterInvalid},
		{"loadi-pointer", []Code{
			MakeCodeRegImm(OP_LOAD, REG_R2, MEMORY_SIZE-1),
			MakeCodePair(OP_LOADI, REG_R1, REG_R2),
		}, 4, ErrAddress(0)},
		{"reg", []Code{{Op: OP_LOAD, Arg: 7}}, 0, ErrRegisterInvalid},
		{"outi", []Code{MakeCodeReg(OP_OUTI, REG_R1)}, 0, ErrRegisterInvalid},
		{"store-addr", []Code{MakeCodeRegImm(OP_STORE, REG_A1, 0)}, 0, ErrRegisterInvalid},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(entry.codes...)
		err := runCpu(cpu)
		assert.ErrorIs(err, entry.err, entry.name)

		var fault *ErrFault
		if assert.True(errors.As(err, &fault), entry.name) {
			assert.Equal(entry.pc, fault.Pc, entry.name)
		}
	}
}

func TestCpuFetch(t *testing.T) {
	assert := assert.New(t)

	// Unknown opcode.
	cpu := NewCpu()
	cpu.Memory[0] = 0x20
	err := cpu.Tick()
	assert.ErrorIs(err, ErrOpcode(0x20))
	assert.Equal(uint16(0), cpu.Pc)

	// Instruction crosses the end of memory.
	cpu = NewCpu()
	cpu.Memory[MEMORY_SIZE-2] = byte(OP_LOAD)
	cpu.Memory[MEMORY_SIZE-1] = byte(REG_R1)
	cpu.Pc = MEMORY_SIZE - 2
	err = cpu.Tick()
	assert.ErrorIs(err, ErrAddress(0))

	// Program counter beyond the end of memory.
	cpu = NewCpu()
	cpu.Pc = MEMORY_SIZE
	err = cpu.Tick()
	assert.ErrorIs(err, ErrAddress(0))

	// HALT in the last byte.
	cpu = NewCpu()
	cpu.Memory[MEMORY_SIZE-1] = byte(OP_HALT)
	cpu.Pc = MEMORY_SIZE - 1
	assert.NoError(cpu.Tick())
	assert.True(cpu.Halted)
}

func TestCpuHalted(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(MakeCodeHalt())
	assert.NoError(cpu.Tick())
	assert.True(cpu.Halted)
	assert.Equal(1, cpu.Ticks)

	err := cpu.Tick()
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(1, cpu.Ticks)
	assert.Equal(uint16(1), cpu.Pc)
}

func TestCpuConsoleFull(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(MakeCodeImm(OP_OUT, 1), MakeCodeHalt())
	cpu.Console = &io.Rom{}

	err := cpu.Tick()
	assert.ErrorIs(err, io.ErrChannelFull)
}
