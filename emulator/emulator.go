// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"
	"os"

	"github.com/ezrec/bm/channel"
	"github.com/ezrec/bm/internal"
	"github.com/ezrec/bm/vm"
)

const (
	EXECUTION_LIMIT = -1 // Default step limit: run until halt.
)

var _emulator_defines = map[string]string{
	"EXECUTION_LIMIT": fmt.Sprintf("%v", EXECUTION_LIMIT),
}

// Emulator state. Machine + program listing + debug output.
type Emulator struct {
	Verbose     bool        // If set, enables verbose logging.
	*vm.Machine             // Reference to the machine simulation.
	Program     *vm.Program // Reference to the currently running program listing.

	Tape channel.Tape // Debug output channel.
}

// NewEmulator creates a new emulator, printing debug values to stdout.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: vm.NewMachine(),
		Program: &vm.Program{},
	}

	emu.Tape.Output = os.Stdout
	emu.Machine.Debug = &emu.Tape

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Machine.Defines(),
		emu.Machine.Debug.Defines(),
	)
}

// Reset loads the program listing into the machine.
func (emu *Emulator) Reset() (err error) {
	emu.Machine.Verbose = emu.Verbose

	if emu.Program.Len() > vm.PROGRAM_CAPACITY {
		err = vm.ErrProgramFull
		return
	}

	emu.Machine.Load(emu.Program.Instructions())
	emu.Machine.Debug.Rewind()

	return
}

// Buffer routes print_debug values into a capture of at most capacity
// values, instead of the tape. Flush writes the captured values out.
func (emu *Emulator) Buffer(capacity int) (temp *channel.Temporary) {
	temp = &channel.Temporary{Capacity: capacity}
	temp.Rewind()
	emu.Machine.Debug = temp

	return
}

// Flush writes any captured debug values to the tape, oldest first.
func (emu *Emulator) Flush() (err error) {
	temp, ok := emu.Machine.Debug.(*channel.Temporary)
	if !ok {
		return
	}

	for value := range temp.Receive() {
		err = emu.Tape.Send(value)
		if err != nil {
			return
		}
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Machine.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() vm.Word {
	return emu.Machine.Ip
}

// Code returns the current instruction.
func (emu *Emulator) Code() vm.Instruction {
	dbg := emu.Program.Debug(emu.Machine.Ip)
	if dbg.Opcode == nil {
		return vm.Instruction{}
	}

	return dbg.Code
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Machine.Ip)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set machine verbosity
	emu.Machine.Verbose = emu.Verbose

	if emu.Machine.Halted {
		done = true
		return
	}

	lineno := emu.LineNo()
	ip := emu.Machine.Ip
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Ip: ip, Err: err}
		}
	}()

	err = emu.Machine.Execute()
	if err != nil {
		return
	}

	done = emu.Machine.Halted

	return
}

// Run ticks until the program halts, an error occurs, or limit ticks have
// passed. A negative limit runs until halt.
func (emu *Emulator) Run(limit int) (done bool, err error) {
	for ticks := 0; limit < 0 || ticks < limit; ticks++ {
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
	}

	done = emu.Machine.Halted

	return
}
