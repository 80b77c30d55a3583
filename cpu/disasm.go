package cpu

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble decodes a binary image into a program listing.
//
// Bytes that do not decode as an instruction are listed as DATA words. Jump
// targets are given labels, so that the listing from Source() reassembles
// to the same image; a jump into the middle of another instruction, or
// beyond the image, is listed as DATA words instead. A trailing odd byte
// is listed as the high byte of a DATA word.
func Disassemble(data []byte) (prog *Program) {
	prog = &Program{}

	dis := NewCpu()
	size := min(len(data), MEMORY_SIZE)
	copy(dis.Memory[:], data[:size])

	for pc := 0; pc < size; {
		dis.Pc = uint16(pc)
		code, err := dis.FetchCode()
		if err != nil || pc+code.Size() > size || !canonical(code) {
			var value uint16
			if pc+1 < size {
				value = (uint16(data[pc]) << 8) | uint16(data[pc+1])
			} else {
				value = uint16(data[pc]) << 8
			}
			code = MakeCodeData(value)
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			Pc:    uint16(pc),
			Words: codeWords(code),
			Code:  code,
		})

		pc += code.Size()
	}

	starts := make(map[uint16]bool, len(prog.Opcodes))
	for _, op := range prog.Opcodes {
		starts[op.Pc] = true
	}

	opcodes := make([]Opcode, 0, len(prog.Opcodes))
	for _, op := range prog.Opcodes {
		if op.Code.Op.Form() != FORM_TARGET {
			opcodes = append(opcodes, op)
			continue
		}

		label := fmt.Sprintf("L%04X", op.Code.Imm)
		_, ok := prog.Symbols.Find(label)
		if !ok && starts[op.Code.Imm] {
			ok = prog.Symbols.Add(label, op.Code.Imm) == nil
		}
		if !ok {
			// No label can name the target.
			opcodes = append(opcodes, dataWords(op)...)
			continue
		}

		op.Words[1] = label
		opcodes = append(opcodes, op)
	}
	prog.Opcodes = opcodes

	return
}

// dataWords lists the bytes of an instruction as DATA words.
func dataWords(op Opcode) (ops []Opcode) {
	buf := op.Code.Append(nil)
	for n := 0; n+1 < len(buf); n += 2 {
		code := MakeCodeData((uint16(buf[n]) << 8) | uint16(buf[n+1]))
		ops = append(ops, Opcode{
			Pc:    op.Pc + uint16(n),
			Words: codeWords(code),
			Code:  code,
		})
	}
	return
}

// canonical returns true if the assembler would encode the instruction
// to the same bytes.
func canonical(code Code) bool {
	if code.Validate() != nil {
		return false
	}

	switch code.Op.Form() {
	case FORM_PAIR:
		dst, src := code.PairDecode()
		return code.Arg == MakeRegPair(dst, src)
	case FORM_TARGET, FORM_IMM:
		return code.Arg == 0
	}

	return true
}

// codeWords splits an instruction into its mnemonic and operand words.
func codeWords(code Code) (words []string) {
	words = []string{code.Op.String()}

	switch code.Op.Form() {
	case FORM_REG_IMM:
		words = append(words, code.Reg().String(), strconv.Itoa(int(code.Imm)))
	case FORM_PAIR:
		dst, src := code.PairDecode()
		words = append(words, dst.String(), src.String())
	case FORM_TARGET, FORM_IMM, FORM_WORD:
		words = append(words, strconv.Itoa(int(code.Imm)))
	case FORM_REG:
		words = append(words, code.Reg().String())
	}

	return
}

// Source returns the listing as assembly text, one instruction per line,
// with labels in front of the instructions they are bound to.
func (prog *Program) Source() string {
	labels := make(map[uint16]string, prog.Symbols.Len())
	for name, address := range prog.Symbols.All() {
		if _, ok := labels[address]; !ok {
			labels[address] = name
		}
	}

	var text strings.Builder
	for _, op := range prog.Opcodes {
		if label, ok := labels[op.Pc]; ok {
			text.WriteString(label)
		}
		text.WriteString("\t")
		if len(op.Words) > 0 {
			text.WriteString(op.Words[0])
		}
		if len(op.Words) > 1 {
			text.WriteString(" ")
			text.WriteString(strings.Join(op.Words[1:], ", "))
		}
		fmt.Fprintf(&text, "\t%c %04x\n", COMMENT, op.Pc)
	}

	return text.String()
}
