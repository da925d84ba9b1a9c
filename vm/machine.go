package vm

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"

	"github.com/ezrec/bm/channel"
)

// Channel is the debug output channel interface.
type Channel channel.Channel

var _machine_defines = map[string]string{
	"STACK_CAPACITY":   fmt.Sprintf("%v", STACK_CAPACITY),
	"PROGRAM_CAPACITY": fmt.Sprintf("%v", PROGRAM_CAPACITY),
}

// Machine is the execution context of a bm program.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Ip      Word          // Current instruction pointer.
	Halted  bool          // Set once a halt has executed.
	Stack   Stack         // Evaluation stack.
	Program []Instruction // Loaded program.

	Debug Channel // Receives print_debug values.

	Ticks int // Executed instruction counter.
}

// NewMachine creates an empty machine that prints debug values to stdout.
func NewMachine() (m *Machine) {
	m = &Machine{
		Debug: &channel.Tape{Output: os.Stdout},
	}

	return
}

// Defines for the machine
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Load replaces the machine program, and resets the machine state.
// Loading more than PROGRAM_CAPACITY instructions is a caller error.
func (m *Machine) Load(program []Instruction) {
	if len(program) > PROGRAM_CAPACITY {
		panic(fmt.Sprintf("program of %d instructions exceeds capacity %d", len(program), PROGRAM_CAPACITY))
	}

	m.Program = append(m.Program[:0], program...)
	m.Reset()
}

// Append adds a single instruction to the end of the loaded program.
func (m *Machine) Append(code Instruction) {
	if len(m.Program) >= PROGRAM_CAPACITY {
		panic(fmt.Sprintf("program exceeds capacity %d", PROGRAM_CAPACITY))
	}

	m.Program = append(m.Program, code)
}

// Reset the machine state, keeping the loaded program.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("vm: reset")
	}

	m.Ip = 0
	m.Halted = false
	m.Ticks = 0
	m.Stack.Reset()
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text += fmt.Sprintf("% 7s: %d\n", "ip", m.Ip)
	text += fmt.Sprintf("% 7s: %v\n", "halted", m.Halted)
	text += fmt.Sprintf("% 7s: %d\n", "depth", m.Stack.Depth())

	top := "----"
	if val, ok := m.Stack.Peek(); ok {
		top = fmt.Sprintf("%d", val)
	}
	text += fmt.Sprintf("% 7s: %v\n", "top", top)

	return
}

// DumpStack writes the stack contents, bottom first.
func (m *Machine) DumpStack(w io.Writer) (err error) {
	_, err = fmt.Fprintln(w, "Stack: ")
	if err != nil {
		return
	}

	if m.Stack.Empty() {
		_, err = fmt.Fprintln(w, "   [empty]")
		return
	}

	for _, val := range m.Stack.Data {
		_, err = fmt.Fprintf(w, "   %d\n", val)
		if err != nil {
			return
		}
	}

	return
}

// Run executes instructions until the machine halts, an error occurs, or
// limit instructions have executed. A negative limit runs without bound.
// Running out of the limit is not an error; check Halted.
func (m *Machine) Run(limit int) (err error) {
	for steps := 0; limit < 0 || steps < limit; steps++ {
		if m.Halted {
			return
		}

		err = m.Execute()
		if err != nil {
			return
		}
	}

	return
}

// Execute executes the instruction at the IP.
func (m *Machine) Execute() (err error) {
	if m.Ip < 0 || m.Ip >= Word(len(m.Program)) {
		err = ErrIllegalInstructionAccess(m.Ip)
		return
	}

	code := m.Program[m.Ip]

	defer func() {
		if err != nil {
			err = errors.Join(ErrInstruction(code), err)
		}
	}()

	if m.Verbose {
		log.Printf("%03d: %v", m.Ip, code)
	}

	next_ip := m.Ip + 1
	stack := &m.Stack

	switch code.Op {
	case OP_NOP:
		// pass
	case OP_PUSH:
		if stack.Full() {
			err = ErrStackOverflow
			return
		}
		stack.Push(code.Operand)
	case OP_DUP:
		if code.Operand < 0 {
			err = ErrIllegalOperand
			return
		}
		if Word(stack.Depth()) <= code.Operand {
			err = ErrStackUnderflow
			return
		}
		if stack.Full() {
			err = ErrStackOverflow
			return
		}
		val, _ := stack.At(int(code.Operand))
		stack.Push(val)
	case OP_PLUS, OP_MINUS, OP_MULT, OP_DIV, OP_EQ:
		if stack.Depth() < 2 {
			err = ErrStackUnderflow
			return
		}
		b, _ := stack.At(0)
		a, _ := stack.At(1)
		var output Word
		output, err = doAlu(code.Op, a, b)
		if err != nil {
			return
		}
		stack.Pop()
		stack.Data[stack.Depth()-1] = output
	case OP_JUMP:
		next_ip = m.target(code)
	case OP_JUMPIF:
		addr := m.target(code)
		cond, ok := stack.Peek()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		if cond == 1 {
			stack.Pop()
			next_ip = addr
		}
	case OP_HALT:
		m.Halted = true
		next_ip = m.Ip
	case OP_PRINT_DEBUG:
		val, ok := stack.Peek()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		if m.Debug != nil {
			err = m.Debug.Send(val)
			if err != nil {
				return
			}
		}
		stack.Pop()
	default:
		panic(fmt.Sprintf("unknown opcode %v", code.Op))
	}

	m.Ip = next_ip
	m.Ticks += 1

	return
}

// target returns the address of a resolved jump.
func (m *Machine) target(code Instruction) Word {
	addr, ok := code.Address()
	if !ok {
		panic(fmt.Sprintf("unresolved jump '%v' at ip %d", code, m.Ip))
	}

	return addr
}

// doAlu performs a binary stack operation on a (second) and b (top).
func doAlu(op CodeOp, a, b Word) (output Word, err error) {
	switch op {
	case OP_PLUS:
		output = a + b
	case OP_MINUS:
		output = a - b
	case OP_MULT:
		output = a * b
	case OP_DIV:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		output = a / b
	case OP_EQ:
		if a == b {
			output = 1
		}
	}

	return
}
