package codec

import (
	"errors"

	"github.com/ezrec/bm/translate"
	"github.com/ezrec/bm/vm"
)

var f = translate.From

var (
	// Image errors
	ErrMagic      = errors.New(f("not a bm program image"))
	ErrUnresolved = errors.New(f("unresolved jump in program"))
	ErrTooLarge   = errors.New(f("program image exceeds program capacity"))
	ErrTruncated  = errors.New(f("program image truncated"))
	ErrTrailing   = errors.New(f("trailing data after program image"))
)

// ErrOpcodeUnknown is returned for an opcode byte outside of the instruction set.
type ErrOpcodeUnknown byte

func (err ErrOpcodeUnknown) Error() string {
	return f("unknown opcode 0x%02x", byte(err))
}

// ErrOpcodeInvalid is returned when encoding an instruction whose opcode is
// outside of the instruction set.
type ErrOpcodeInvalid vm.CodeOp

func (err ErrOpcodeInvalid) Error() string {
	return f("invalid opcode %d", int(err))
}

// ErrImage locates a decoding error within the image.
type ErrImage struct {
	Index int // Instruction index being decoded.
	Err   error
}

func (err *ErrImage) Error() string {
	return f("instruction %d: %v", err.Index, err.Err)
}

func (err *ErrImage) Unwrap() error {
	return err.Err
}
