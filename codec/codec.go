// Package codec reads and writes bm program images.
//
// An image is the 4 byte magic "BM\x00\x01", the instruction count as an
// unsigned varint, and then each instruction as its opcode byte followed,
// for opcodes that carry one, by the operand as a signed varint.
package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/ezrec/bm/vm"
)

// Magic identifies a bm program image.
var Magic = [4]byte{'B', 'M', 0x00, 0x01}

// Append appends the image of codes to buf.
func Append(buf []byte, codes []vm.Instruction) (out []byte, err error) {
	out = append(buf, Magic[:]...)
	out = binary.AppendUvarint(out, uint64(len(codes)))

	for n, code := range codes {
		if code.Unresolved {
			err = &ErrImage{Index: n, Err: ErrUnresolved}
			return
		}
		if !code.Op.Valid() {
			err = &ErrImage{Index: n, Err: ErrOpcodeInvalid(code.Op)}
			return
		}
		out = append(out, byte(code.Op))
		if code.Op.HasOperand() {
			out = binary.AppendVarint(out, code.Operand)
		}
	}

	return
}

// Marshal returns the image of codes.
func Marshal(codes []vm.Instruction) (data []byte, err error) {
	return Append(nil, codes)
}

// Encode writes the image of codes to w.
func Encode(w io.Writer, codes []vm.Instruction) (err error) {
	data, err := Marshal(codes)
	if err != nil {
		return
	}

	_, err = w.Write(data)
	return
}

// Unmarshal decodes an image held in memory. Trailing bytes are an error.
func Unmarshal(data []byte) (codes []vm.Instruction, err error) {
	rd := bytes.NewReader(data)
	codes, err = decode(rd)
	if err != nil {
		return
	}

	if rd.Len() != 0 {
		err = ErrTrailing
		codes = nil
	}

	return
}

// Decode reads an image from r.
func Decode(r io.Reader) (codes []vm.Instruction, err error) {
	return decode(bufio.NewReader(r))
}

func decode(rd io.ByteReader) (codes []vm.Instruction, err error) {
	defer func() {
		if err != nil {
			codes = nil
		}
	}()

	var magic [4]byte
	for n := range magic {
		magic[n], err = rd.ReadByte()
		if err != nil {
			err = truncated(err)
			return
		}
	}
	if magic != Magic {
		err = ErrMagic
		return
	}

	count, err := binary.ReadUvarint(rd)
	if err != nil {
		err = truncated(err)
		return
	}
	if count > vm.PROGRAM_CAPACITY {
		err = ErrTooLarge
		return
	}

	codes = make([]vm.Instruction, 0, count)
	for n := range int(count) {
		var op byte
		op, err = rd.ReadByte()
		if err != nil {
			err = &ErrImage{Index: n, Err: truncated(err)}
			return
		}
		code := vm.MakeCode(vm.CodeOp(op))
		if !code.Op.Valid() {
			err = &ErrImage{Index: n, Err: ErrOpcodeUnknown(op)}
			return
		}
		if code.Op.HasOperand() {
			code.Operand, err = binary.ReadVarint(rd)
			if err != nil {
				err = &ErrImage{Index: n, Err: truncated(err)}
				return
			}
		}
		codes = append(codes, code)
	}

	return
}

// truncated maps an early end of input to ErrTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Join(ErrTruncated, io.ErrUnexpectedEOF)
	}
	return err
}
