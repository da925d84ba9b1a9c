// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"io"
	"log"
	"maps"
	"slices"
	"strings"
)

// Assembler is a two pass assembler for the bm machine.
//
// Labels are bound as they are seen; jumps to labels are emitted unresolved
// and linked once the whole source has been read.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]Word   // Map of jump labels to program addresses.
}

// Predefine defines a new equate or redefines an existing equate, for
// use in $(...) operand expressions.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// currentIp gets the address of the next instruction.
func (asm *Assembler) currentIp() Word {
	return Word(len(asm.Opcode))
}

// newContext creates the context of a pass, with the predefines as equates.
func (asm *Assembler) newContext() (ctx *Context) {
	ctx = NewContext()

	for _, equ := range slices.Sorted(maps.Keys(asm.predefine)) {
		value, err := valueOf(asm.predefine[equ])
		if err != nil {
			// Non-integer predefines cannot take part in expressions.
			if asm.Verbose {
				log.Printf("predefine %v: %v", equ, err)
			}
			continue
		}
		ctx.Equate[equ] = value
	}

	return
}

// Parse parses an input stream into a Program.
//
// The returned program always ends with a halt, and all jumps in it are
// resolved.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	ctx := asm.newContext()
	asm.Opcode = asm.Opcode[:0]
	asm.Label = ctx.Label

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(text)
		if len(strings.TrimSpace(stripComment(line))) == 0 {
			continue
		}

		var result LineResult
		result, err = ParseLine(line, asm.currentIp(), ctx)
		if err != nil {
			return
		}

		asm.Opcode = append(asm.Opcode, Opcode{
			LineNo: lineno,
			Ip:     asm.currentIp(),
			Words:  result.Words,
			Code:   result.Code,
		})
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Mark end of program.
	asm.Opcode = append(asm.Opcode, Opcode{
		Ip:    asm.currentIp(),
		Words: []string{OP_HALT.String()},
		Code:  MakeCode(OP_HALT),
	})

	if len(asm.Opcode) > PROGRAM_CAPACITY {
		line = ""
		err = ErrProgramFull
		return
	}

	// Final linking of jump labels.
	for _, def := range ctx.Deferred {
		op := &asm.Opcode[def.Ip]

		ip, ok := ctx.Label[def.Label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(def.Label)
			return
		}
		if !op.Code.Op.IsJump() || !op.Code.Unresolved {
			log.Fatalf("Unable to link label '%s' to line %d: %v", def.Label, op.LineNo, op.Words)
		}
		op.Code = op.Code.Resolve(ip)
		op.LinkLabel = def.Label
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
