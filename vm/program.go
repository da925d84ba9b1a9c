package vm

import (
	"fmt"
	"io"
	"iter"
)

const (
	PROGRAM_CAPACITY = 1024 // Maximum program length, in instructions.
)

// Opcode represents a line of assembled code with its source location.
type Opcode struct {
	LineNo    int         // Source line, or 0 if synthesized.
	Ip        Word        // Program address of Code.
	Words     []string    // Source words of the instruction.
	Code      Instruction // Generated instruction.
	LinkLabel string      // Label Code's jump target was linked from.
}

// Program is an assembled program listing.
type Program struct {
	Opcodes []Opcode
}

// NewProgram creates a listing, without source information, from a sequence
// of instructions.
func NewProgram(codes []Instruction) (prog *Program) {
	prog = &Program{
		Opcodes: make([]Opcode, len(codes)),
	}

	for n, code := range codes {
		prog.Opcodes[n] = Opcode{Ip: Word(n), Code: code}
	}

	return
}

// Len returns the number of instructions in the program.
func (prog *Program) Len() int {
	return len(prog.Opcodes)
}

type Debug struct {
	*Opcode
}

// Debug returns the listing entry at ip. The Opcode is nil when ip is
// outside of the program.
func (prog *Program) Debug(ip Word) (dbg Debug) {
	if ip < 0 || ip >= Word(len(prog.Opcodes)) {
		return
	}

	dbg.Opcode = &prog.Opcodes[ip]

	return
}

// Codes iterates over the program's addresses and instructions.
func (prog *Program) Codes() iter.Seq2[Word, Instruction] {
	return func(yield func(ip Word, code Instruction) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Ip, op.Code) {
				return
			}
		}
	}
}

// Instructions returns a copy of the program's instructions.
func (prog *Program) Instructions() (codes []Instruction) {
	codes = make([]Instruction, 0, len(prog.Opcodes))
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}

	return
}

// Disassemble writes the program as assembly text, one instruction per line.
func (prog *Program) Disassemble(w io.Writer) (err error) {
	for _, code := range prog.Codes() {
		_, err = fmt.Fprintln(w, code.String())
		if err != nil {
			return
		}
	}

	return
}
