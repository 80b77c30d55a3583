// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ezrec/svm/cpu"
	"github.com/ezrec/svm/emulator"
	"github.com/ezrec/svm/internal"
	"github.com/ezrec/svm/translate"
)

var ErrTerminal = errors.New(translate.From("refusing to write binary to a terminal (use --force)"))

var (
	verbose bool
	output  string
	defines []string
	symbols bool
	listing bool
	force   bool
	limit   int
	locale  string
)

// openInput opens a named file, or stdin for "-".
func openInput(name string) (inf io.ReadCloser, err error) {
	if name == "-" {
		inf = io.NopCloser(os.Stdin)
		return
	}

	inf, err = os.Open(name)
	return
}

// inputName returns the input file argument, defaulting to stdin.
func inputName(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// assemble parses an assembly source file.
func assemble(name string) (prog *cpu.Program, err error) {
	inf, err := openInput(name)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	for attr, val := range emulator.NewEmulator().Defines() {
		asm.Predefine(attr, val)
	}
	for _, define := range defines {
		attr, val, _ := strings.Cut(define, "=")
		asm.Predefine(attr, val)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", name, err)
		return
	}

	if symbols {
		printer := pp.New()
		printer.SetOutput(os.Stderr)
		printer.SetColoringEnabled(term.IsTerminal(int(os.Stderr.Fd())))
		printer.Println(prog.Symbols.Labels)
	}

	if listing {
		fmt.Fprint(os.Stderr, prog.Source())
	}

	return
}

// execute runs the emulator, writing the console to stdout.
func execute(emu *emulator.Emulator) (err error) {
	stdout := bufio.NewWriter(os.Stdout)
	defer func() {
		ferr := stdout.Flush()
		if err == nil {
			err = ferr
		}
	}()

	emu.Tape.Output = stdout
	emu.Limit = limit

	err = emu.Run()
	return
}

var rootCmd = &cobra.Command{
	Use:   "svm",
	Short: "Assembler and virtual machine for the svm instruction set",
	Long: `Svm translates mnemonic assembly source into the svm binary encoding,
and executes svm binaries on an emulated 16-bit processor with 32KiB of
memory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if len(locale) > 0 {
			translate.SetLocales(locale)
		}
	},
}

var asmCmd = &cobra.Command{
	Use:   "asm [source]",
	Short: "Assemble source into a binary image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		prog, err := assemble(inputName(args))
		if err != nil {
			return
		}

		var ouf io.Writer
		if output == "-" {
			if !force && term.IsTerminal(int(os.Stdout.Fd())) {
				return ErrTerminal
			}
			ouf = os.Stdout
		} else {
			var file *os.File
			file, err = os.Create(output)
			if err != nil {
				return
			}
			defer func() {
				cerr := file.Close()
				if err == nil {
					err = cerr
				}
			}()
			ouf = file
		}

		_, err = ouf.Write(prog.Binary())
		return
	},
}

var runCmd = &cobra.Command{
	Use:   "run [binary]",
	Short: "Run a binary image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		inf, err := openInput(inputName(args))
		if err != nil {
			return
		}
		defer inf.Close()

		emu := emulator.NewEmulator()
		emu.Verbose = verbose
		emu.Tape.Input = bufio.NewReader(inf)

		err = emu.Reset(&emu.Tape)
		if err != nil {
			return
		}

		return execute(emu)
	},
}

var execCmd = &cobra.Command{
	Use:   "exec source",
	Short: "Assemble and run source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		prog, err := assemble(args[0])
		if err != nil {
			return
		}

		emu := emulator.NewEmulator()
		emu.Verbose = verbose
		emu.Program = prog

		err = emu.Boot()
		if err != nil {
			return
		}

		err = execute(emu)
		if err != nil {
			err = fmt.Errorf("%v: %w", args[0], err)
		}
		return
	},
}

var disCmd = &cobra.Command{
	Use:   "dis [binary]",
	Short: "Disassemble a binary image",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		inf, err := openInput(inputName(args))
		if err != nil {
			return
		}
		defer inf.Close()

		data, err := io.ReadAll(inf)
		if err != nil {
			return
		}

		prog := cpu.Disassemble(data)
		_, err = fmt.Fprint(os.Stdout, prog.Source())
		return
	},
}

var definesCmd = &cobra.Command{
	Use:   "defines",
	Short: "List the names predefined for $() expressions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		for attr, val := range internal.IterSeq2Sorted(emulator.NewEmulator().Defines()) {
			_, err = fmt.Fprintf(os.Stdout, "%v=%v\n", attr, val)
			if err != nil {
				return
			}
		}
		return
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Locale for diagnostics (default from the environment)")

	asmCmd.Flags().StringVarP(&output, "output", "o", "-", "Binary output")
	asmCmd.Flags().BoolVar(&force, "force", false, "Write binary output to a terminal")

	for _, cmd := range []*cobra.Command{asmCmd, execCmd} {
		cmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "Predefine NAME=VALUE for $() expressions")
		cmd.Flags().BoolVar(&symbols, "symbols", false, "Dump the symbol table to stderr")
		cmd.Flags().BoolVar(&listing, "listing", false, "Write the assembly listing to stderr")
	}

	for _, cmd := range []*cobra.Command{runCmd, execCmd} {
		cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many instructions (0 for no limit)")
	}

	rootCmd.AddCommand(asmCmd, runCmd, execCmd, disCmd, definesCmd)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix(os.Args[0] + ": ")

	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
