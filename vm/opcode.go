package vm

import (
	"fmt"
)

// Word is the only value type of the machine. Addresses are Words too.
type Word = int64

// CodeOp is the operation of an instruction.
type CodeOp int

const (
	OP_NOP         = CodeOp(0)  // nop
	OP_PUSH        = CodeOp(1)  // push
	OP_DUP         = CodeOp(2)  // dup
	OP_PLUS        = CodeOp(3)  // plus
	OP_MINUS       = CodeOp(4)  // minus
	OP_DIV         = CodeOp(5)  // div
	OP_MULT        = CodeOp(6)  // mult
	OP_JUMP        = CodeOp(7)  // jmp
	OP_JUMPIF      = CodeOp(8)  // jmpif
	OP_EQ          = CodeOp(9)  // eq
	OP_HALT        = CodeOp(10) // halt
	OP_PRINT_DEBUG = CodeOp(11) // print_debug

	OP_COUNT = 12 // Number of opcodes.
)

var opcodeName = [OP_COUNT]string{
	OP_NOP:         "nop",
	OP_PUSH:        "push",
	OP_DUP:         "dup",
	OP_PLUS:        "plus",
	OP_MINUS:       "minus",
	OP_DIV:         "div",
	OP_MULT:        "mult",
	OP_JUMP:        "jmp",
	OP_JUMPIF:      "jmpif",
	OP_EQ:          "eq",
	OP_HALT:        "halt",
	OP_PRINT_DEBUG: "print_debug",
}

// opcodeMap maps mnemonics to opcodes.
var opcodeMap = func() map[string]CodeOp {
	m := make(map[string]CodeOp, OP_COUNT)
	for op, name := range opcodeName {
		m[name] = CodeOp(op)
	}
	return m
}()

// Valid returns true if the opcode is one of the machine's operations.
func (op CodeOp) Valid() bool {
	return op >= 0 && op < OP_COUNT
}

// HasOperand returns true if the opcode carries a Word operand.
func (op CodeOp) HasOperand() bool {
	switch op {
	case OP_PUSH, OP_DUP, OP_JUMP, OP_JUMPIF:
		return true
	}
	return false
}

// IsJump returns true if the opcode operand is a program address.
func (op CodeOp) IsJump() bool {
	return op == OP_JUMP || op == OP_JUMPIF
}

func (op CodeOp) String() string {
	if !op.Valid() {
		return fmt.Sprintf("CodeOp(%d)", int(op))
	}
	return opcodeName[op]
}

// Instruction is a single machine instruction.
//
// Operand is only meaningful for opcodes where HasOperand() is true.
// Unresolved marks a jump whose target label has not been linked yet; such
// instructions never reach the machine.
type Instruction struct {
	Op         CodeOp
	Operand    Word
	Unresolved bool
}

// MakeCode creates an instruction without an operand.
func MakeCode(op CodeOp) Instruction {
	return Instruction{Op: op}
}

// MakePush creates a push of a literal value.
func MakePush(value Word) Instruction {
	return Instruction{Op: OP_PUSH, Operand: value}
}

// MakeDup creates a duplicate of the stack entry n below the top.
func MakeDup(n Word) Instruction {
	return Instruction{Op: OP_DUP, Operand: n}
}

// MakeJump creates an unconditional jump to an address.
func MakeJump(addr Word) Instruction {
	return Instruction{Op: OP_JUMP, Operand: addr}
}

// MakeJumpIf creates a conditional jump to an address.
func MakeJumpIf(addr Word) Instruction {
	return Instruction{Op: OP_JUMPIF, Operand: addr}
}

// makeUnresolved creates a jump placeholder waiting for its label.
func makeUnresolved(op CodeOp) Instruction {
	return Instruction{Op: op, Unresolved: true}
}

// Resolve returns the instruction with its jump target set to addr.
func (code Instruction) Resolve(addr Word) Instruction {
	code.Operand = addr
	code.Unresolved = false
	return code
}

// Address returns the jump target, and false if it is still unresolved.
func (code Instruction) Address() (addr Word, ok bool) {
	if !code.Op.IsJump() || code.Unresolved {
		return
	}
	return code.Operand, true
}

// String returns the assembly language representation of this instruction.
func (code Instruction) String() (out string) {
	switch {
	case !code.Op.HasOperand():
		out = code.Op.String()
	case code.Unresolved:
		out = fmt.Sprintf("%v ?", code.Op)
	default:
		out = fmt.Sprintf("%v %d", code.Op, code.Operand)
	}

	return
}
