// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	COMMENT          = '#'     // Starts a comment that runs to the end of the line.
	EXPRESSION_STEPS = 1 << 16 // Execution budget of a $() expression.
)

// opMap maps mnemonics, including the DATA pseudo-op, to opcodes.
var opMap = map[string]CodeOp{}

func init() {
	for _, op := range CodeOps {
		opMap[op.String()] = op
	}
}

// regMap maps register names to register codes.
var regMap = map[string]CodeReg{
	"R1": REG_R1,
	"R2": REG_R2,
	"A1": REG_A1,
	"A2": REG_A2,
}

// ParseCodeOp returns the opcode for a reserved mnemonic.
func ParseCodeOp(word string) (op CodeOp, ok bool) {
	op, ok = opMap[word]
	return
}

// ParseCodeReg returns the register code for a register name.
func ParseCodeReg(word string) (reg CodeReg, ok bool) {
	reg, ok = regMap[word]
	return
}

// Preprocess strips the comment and the surrounding whitespace from a line.
func Preprocess(line string) string {
	if n := strings.IndexByte(line, COMMENT); n >= 0 {
		line = line[:n]
	}

	return strings.TrimSpace(line)
}

// splitWord splits a trimmed line into its first word and the rest.
func splitWord(line string) (word, rest string) {
	n := strings.IndexFunc(line, isSpace)
	if n < 0 {
		word = line
		return
	}

	word = line[:n]
	rest = strings.TrimLeftFunc(line[n:], isSpace)
	return
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// splitOperands splits the operand text of an instruction.
// With a comma, the first operand is everything before it (untrimmed), and
// the second is the first word after it. Otherwise only the first word is
// an operand. Trailing text is ignored.
func splitOperands(text string) (operands []string) {
	if n := strings.IndexByte(text, ','); n > 0 {
		second, _ := splitWord(strings.TrimLeftFunc(text[n+1:], isSpace))
		if len(second) > 0 {
			operands = []string{text[:n], second}
			return
		}
	}

	first, _ := splitWord(text)
	if len(first) > 0 {
		operands = []string{first}
	}

	return
}

// atoi parses a decimal literal as C atoi() does: optional sign, then
// digits up to the first non-digit. No digits yields zero. The value wraps
// to 16 bits.
func atoi(word string) (value uint16) {
	word = strings.TrimLeftFunc(word, isSpace)

	negative := false
	if len(word) > 0 && (word[0] == '-' || word[0] == '+') {
		negative = word[0] == '-'
		word = word[1:]
	}

	for _, c := range []byte(word) {
		if c < '0' || c > '9' {
			break
		}
		value = value*10 + uint16(c-'0')
	}

	if negative {
		value = -value
	}

	return
}

// sourceLine is a line that survived preprocessing.
type sourceLine struct {
	LineNo int    // Line number, 1 based.
	Line   string // Original text.
	Op     CodeOp // Mnemonic.
	Text   string // Operand text.
	Pc     uint16 // Location counter.
}

// Assembler is a two pass assembler for the svm instruction set.
type Assembler struct {
	Verbose bool        // If set, verbosely logs the assembler actions.
	Opcode  []Opcode    // List of generated opcodes.
	Symbols SymbolTable // Labels resolved by the first pass.

	predefine map[string]string // Predefines for $() expressions.
}

// Predefine defines a new name, or redefines an existing name, for use in
// $() expressions. Predefines are not labels.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Parse parses an input stream into a Program. No program is returned
// if any line fails to assemble.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var lines []string

	scanner := bufio.NewScanner(input)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	asm.Opcode = asm.Opcode[:0]
	asm.Symbols.Reset()

	source, err := asm.resolve(lines)
	if err != nil {
		return
	}

	err = asm.encode(source)
	if err != nil {
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Symbols: asm.Symbols.Clone(),
	}

	return
}

// resolve is the first pass. It assigns every line an address, and binds
// every label to the address of the instruction that follows it.
func (asm *Assembler) resolve(lines []string) (source []sourceLine, err error) {
	var pc uint16
	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	for n, text := range lines {
		lineno = n + 1
		line = text

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		body := Preprocess(text)
		if len(body) == 0 {
			continue
		}

		word, rest := splitWord(body)

		// A leading word that is not a mnemonic is a label, but only when
		// an instruction follows it on the same line.
		if _, reserved := opMap[word]; !reserved && len(rest) > 0 {
			err = asm.Symbols.Add(word, pc)
			if err != nil {
				return
			}
			word, rest = splitWord(rest)
		}

		op, ok := ParseCodeOp(word)
		if !ok {
			err = ErrParseMnemonic(word)
			return
		}

		source = append(source, sourceLine{
			LineNo: lineno,
			Line:   text,
			Op:     op,
			Text:   rest,
			Pc:     pc,
		})

		pc += uint16(op.Size())
	}

	return
}

// encode is the second pass. It resolves operands and generates opcodes.
func (asm *Assembler) encode(source []sourceLine) (err error) {
	var src sourceLine

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: src.LineNo, Line: src.Line, Err: err}
		}
	}()

	for _, src = range source {
		var text string
		text, err = asm.expand(src.Text)
		if err != nil {
			return
		}

		operands := splitOperands(text)

		var code Code
		code, err = asm.encodeCode(src.Op, operands)
		if err != nil {
			return
		}

		if code.Size() != src.Op.Size() {
			panic(fmt.Sprintf("%v: encoded %d bytes, expected %d", src.Op, code.Size(), src.Op.Size()))
		}

		if asm.Verbose {
			log.Printf("%04x: %v\n", src.Pc, code)
		}

		asm.Opcode = append(asm.Opcode, Opcode{
			LineNo: src.LineNo,
			Pc:     src.Pc,
			Words:  append([]string{src.Op.String()}, operands...),
			Code:   code,
		})
	}

	return
}

// operandCount verifies the number of operands.
func operandCount(operands []string, want int) (err error) {
	switch {
	case len(operands) < want:
		err = ErrOperandMissing
	case len(operands) > want:
		err = ErrOperandExtra
	}
	return
}

// encodeCode encodes a single instruction.
func (asm *Assembler) encodeCode(op CodeOp, operands []string) (code Code, err error) {
	dstClass, srcClass := op.RegClasses()

	switch op.Form() {
	case FORM_NONE:
		err = operandCount(operands, 0)
		if err != nil {
			return
		}
		code = MakeCodeHalt()
	case FORM_REG_IMM:
		err = operandCount(operands, 2)
		if err != nil {
			return
		}
		var reg CodeReg
		reg, err = asm.register(operands[0], dstClass)
		if err != nil {
			return
		}
		code = MakeCodeRegImm(op, reg, asm.valueOf(operands[1]))
	case FORM_PAIR:
		err = operandCount(operands, 2)
		if err != nil {
			return
		}
		var dst, src CodeReg
		dst, err = asm.register(operands[0], dstClass)
		if err != nil {
			return
		}
		src, err = asm.register(operands[1], srcClass)
		if err != nil {
			return
		}
		code = MakeCodePair(op, dst, src)
	case FORM_TARGET:
		err = operandCount(operands, 1)
		if err != nil {
			return
		}
		// Jump targets must be labels; there is no literal fallback.
		target, ok := asm.Symbols.Find(operands[0])
		if !ok {
			err = ErrLabelMissing(operands[0])
			return
		}
		code = MakeCodeTarget(op, target)
	case FORM_IMM:
		err = operandCount(operands, 1)
		if err != nil {
			return
		}
		code = MakeCodeImm(op, asm.valueOf(operands[0]))
	case FORM_REG:
		err = operandCount(operands, 1)
		if err != nil {
			return
		}
		var reg CodeReg
		reg, err = asm.register(operands[0], dstClass)
		if err != nil {
			return
		}
		code = MakeCodeReg(op, reg)
	case FORM_WORD:
		err = operandCount(operands, 1)
		if err != nil {
			return
		}
		code = MakeCodeData(asm.valueOf(operands[0]))
	default:
		err = ErrParseMnemonic(op.String())
	}

	return
}

// register parses a register operand permitted by the class.
func (asm *Assembler) register(word string, class RegClass) (reg CodeReg, err error) {
	reg, ok := ParseCodeReg(word)
	if !ok {
		err = ErrParseRegister(word)
		return
	}

	if !class.Accepts(reg) {
		err = ErrRegisterClass(reg)
		return
	}

	return
}

// valueOf resolves a value operand: a label if one is defined, otherwise a
// decimal literal.
func (asm *Assembler) valueOf(word string) (value uint16) {
	value, ok := asm.Symbols.Find(word)
	if ok {
		return
	}

	value = atoi(word)
	return
}

var (
	charRegexp  = regexp.MustCompile(`'\\?[^']'`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
)

// expand replaces 'c' character literals and $() expressions with their
// decimal values.
func (asm *Assembler) expand(text string) (out string, err error) {
	out = charRegexp.ReplaceAllStringFunc(text, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' && len(str) == 2 {
			switch str[1] {
			case '\\':
				str = "\\"
			case 'n':
				str = "\n"
			case 'r':
				str = "\r"
			case 't':
				str = "\t"
			case 'e':
				str = "\033"
			case '0':
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return strconv.Itoa(int(str[0]))
	})

	out = parenRegexp.ReplaceAllStringFunc(out, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.Itoa(int(value))
	})

	return
}

// parenEval does compile-time $(...) evaluations. Labels and predefines
// are visible as integers.
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	thread.SetMaxExecutionSteps(EXPRESSION_STEPS)
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.predefine {
		v64, _err := strconv.ParseInt(str, 0, 64)
		if _err != nil {
			// Ignore non-integer predefines.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for name, address := range asm.Symbols.All() {
		pred[name] = starlark.MakeInt(int(address))
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}
