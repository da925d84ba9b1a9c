// Package vm implements the bm stack machine and its assembler.
//
// The machine consists of an instruction pointer (IP), a halt flag, a
// bounded evaluation stack of 64-bit words, and a bounded program of
// instructions. Every value on the stack, every operand, and every jump
// target is a Word.
//
// The assembler reads the line oriented basm language, binds labels to
// program addresses, and patches jump operands once every label is known.
package vm
