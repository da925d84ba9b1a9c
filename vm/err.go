package vm

import (
	"errors"

	"github.com/ezrec/bm/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrDivideByZero   = errors.New(f("divide by zero"))
	ErrIllegalOperand = errors.New(f("illegal operand"))
	ErrProgramFull    = errors.New(f("program full"))

	// Assembler errors
	ErrEmptyLine          = errors.New(f("empty line"))
	ErrOperandNotFound    = errors.New(f("operand not found"))
	ErrInvalidOperand     = errors.New(f("invalid operand"))
	ErrInvalidInstruction = errors.New(f("invalid instruction"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelLonely        = errors.New(f("label without instruction"))
)

// ErrIllegalInstructionAccess is returned when the IP leaves the program.
type ErrIllegalInstructionAccess Word

func (err ErrIllegalInstructionAccess) Error() string {
	return f("illegal instruction access at ip %d", Word(err))
}

// ErrInstruction tags an execution error with the instruction that raised it.
type ErrInstruction Instruction

func (ei ErrInstruction) Error() string {
	return f("instruction '%v'", Instruction(ei).String())
}

func (ei ErrInstruction) Is(err error) (ok bool) {
	_, ok = err.(ErrInstruction)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
