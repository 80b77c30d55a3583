// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"iter"
	"log"
	"maps"
	"strconv"

	"github.com/ezrec/svm/cpu"
	"github.com/ezrec/svm/internal"
	"github.com/ezrec/svm/io"
)

var _emulator_defines = map[string]string{
	"SYMBOL_LIMIT": strconv.Itoa(cpu.SYMBOL_LIMIT),
}

// Emulator state. CPU + program listing + IO channels.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Tape io.Tape // Tape IO channel; boot input and console output.
	Rom  io.Rom  // ROM IO channel; boot image of Program.

	Limit int // If non-zero, Run stops after this many ticks.

	Loaded    int  // Bytes loaded by the last Reset.
	Truncated bool // Set if the last boot image did not fit in memory.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.Console = &emu.Tape

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset the machine, and load memory from the boot channel starting at
// address 0. An image larger than memory is silently truncated.
func (emu *Emulator) Reset(boot io.Channel) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()

	emu.Loaded, emu.Truncated = emu.Cpu.Memory.Load(boot.Receive())

	if emu.Verbose {
		log.Printf("emulator: loaded %d bytes", emu.Loaded)
		if emu.Truncated {
			log.Printf("emulator: boot image truncated at %d bytes", cpu.MEMORY_SIZE)
		}
	}

	return
}

// Boot resets the machine, and loads the Program through the ROM.
func (emu *Emulator) Boot() (err error) {
	emu.Rom.Data = emu.Program.Binary()

	return emu.Reset(&emu.Rom)
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// Code returns the current instruction code from the listing.
func (emu *Emulator) Code() cpu.Code {
	for pc, code := range emu.Program.Codes() {
		if emu.Cpu.Pc == pc {
			return code
		}
	}

	return cpu.Code{}
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.Opcode.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Pc: pc, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted

	return
}

// Run ticks the emulator until HALT, a fault, or the tick limit.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		if emu.Limit > 0 && emu.Cpu.Ticks >= emu.Limit {
			err = ErrTickLimit
			return
		}

		done, err = emu.Tick()
		if err != nil {
			if emu.Verbose {
				log.Printf("emulator: %v\n%v", err, emu.Cpu.String())
			}
			return
		}
	}

	return
}
