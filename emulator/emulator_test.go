package emulator

import (
	"bytes"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/bm/channel"
	"github.com/ezrec/bm/vm"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Machine)
	assert.Equal(&emu.Tape, emu.Machine.Debug)
	assert.Equal(0, emu.LineNo())
	assert.Equal(vm.Instruction{}, emu.Code())
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	defines := maps.Collect(emu.Defines())

	assert.Equal("-1", defines["EXECUTION_LIMIT"])
	assert.Equal("1024", defines["STACK_CAPACITY"])
	assert.Equal("1024", defines["PROGRAM_CAPACITY"])

	emu.Machine.Debug = &channel.Temporary{Capacity: 8}
	defines = maps.Collect(emu.Defines())
	assert.Equal("8", defines["TEMP_CAPACITY"])
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) (output string) {
	assert := assert.New(t)

	asm := &vm.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(err) {
		t.FailNow()
	}
	emu.Program = prog

	tape_output := &bytes.Buffer{}
	emu.Tape.Output = tape_output

	err = emu.Reset()
	assert.NoError(err)

	for _, op := range prog.Opcodes[:len(prog.Opcodes)-1] {
		assert.Equal(op.LineNo, emu.LineNo())
		here := program[emu.LineNo()-1]
		assert.Equal(op.Ip, emu.Ip(), here)
		assert.Equal(op.Code, emu.Code(), here)

		done, err := emu.Tick()
		if err != nil {
			t.Log(emu.Machine.String())
			t.Fatalf("%v", err)
		}
		assert.False(done, here)
	}

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)

	output = tape_output.String()
	return
}

func TestEmulator_Tick(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	output := doRunSingle(emu, []string{
		"push 2",
		"push 3",
		"mult",
		"print_debug",
		"push 7",
		"push 2",
		"div",
		"print_debug",
	}, t)

	assert.Equal("6\n3\n", output)
	assert.Equal(9, emu.Ticks())
	assert.Equal(2, emu.Tape.Written)

	// Ticks on a halted machine do nothing.
	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(9, emu.Ticks())
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	asm := &vm.Assembler{}
	asm.Predefine("STACK_CAPACITY", "1024")
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"      push 1",
		"loop: dup 0",
		"      print_debug",
		"      push 1",
		"      plus",
		"      dup 0",
		"      push $(STACK_CAPACITY // 256 + 1)",
		"      eq",
		"      jmpif done",
		"      plus",
		"      jmp loop",
		"done: halt",
	}, "\n")))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog

	buf := &bytes.Buffer{}
	emu.Tape.Output = buf
	assert.NoError(emu.Reset())

	done, err := emu.Run(3)
	assert.NoError(err)
	assert.False(done)
	assert.Equal(3, emu.Ticks())

	done, err = emu.Run(EXECUTION_LIMIT)
	assert.NoError(err)
	assert.True(done)
	assert.Equal("1\n2\n3\n4\n", buf.String())
	assert.True(emu.Machine.Halted)

	// Reset rewinds the debug channel and restarts the program.
	assert.NoError(emu.Reset())
	assert.Equal(0, emu.Tape.Written)
	assert.Equal(0, emu.Ticks())
	assert.Equal(vm.Word(0), emu.Ip())
	assert.Equal(1, emu.LineNo())
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	asm := &vm.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"# divide by zero",
		"push 1",
		"",
		"push 0",
		"div",
	}, "\n")))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog
	assert.NoError(emu.Reset())

	done, err := emu.Run(EXECUTION_LIMIT)
	assert.False(done)
	assert.ErrorIs(err, vm.ErrDivideByZero)

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal(5, rt.LineNo)
	assert.Equal(vm.Word(2), rt.Ip)
	assert.True(strings.HasPrefix(rt.Error(), "line 5 ip 2 "), rt.Error())

	// The failing instruction left the machine in place.
	assert.Equal(vm.Word(2), emu.Ip())
	assert.Equal(2, emu.Machine.Stack.Depth())
}

func TestEmulator_RuntimeErrorNoSource(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Program = vm.NewProgram([]vm.Instruction{
		vm.MakeJump(5),
	})
	assert.NoError(emu.Reset())

	done, err := emu.Run(EXECUTION_LIMIT)
	assert.False(done)
	assert.ErrorIs(err, vm.ErrIllegalInstructionAccess(5))

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal(0, rt.LineNo)
	assert.Equal(vm.Word(5), rt.Ip)
	assert.True(strings.HasPrefix(rt.Error(), "ip 5 "), rt.Error())
}

func TestEmulator_ResetProgramFull(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Program = vm.NewProgram(make([]vm.Instruction, vm.PROGRAM_CAPACITY+1))

	assert.ErrorIs(emu.Reset(), vm.ErrProgramFull)
}

func TestEmulator_DebugChannelFull(t *testing.T) {
	assert := assert.New(t)

	temp := &channel.Temporary{Capacity: 1}

	emu := NewEmulator()
	emu.Machine.Debug = temp
	emu.Program = vm.NewProgram([]vm.Instruction{
		vm.MakePush(1),
		vm.MakePush(2),
		vm.MakeCode(vm.OP_PRINT_DEBUG),
		vm.MakeCode(vm.OP_PRINT_DEBUG),
		vm.MakeCode(vm.OP_HALT),
	})
	assert.NoError(emu.Reset())

	_, err := emu.Run(EXECUTION_LIMIT)
	assert.ErrorIs(err, channel.ErrChannelFull)
	assert.Equal(vm.Word(3), emu.Ip())
	assert.Equal(1, emu.Machine.Stack.Depth())

	for value := range temp.Receive() {
		assert.Equal(int64(2), value)
	}
}

func TestEmulator_Buffer(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	buf := &bytes.Buffer{}
	emu.Tape.Output = buf

	temp := emu.Buffer(2)
	assert.Equal(temp, emu.Machine.Debug)

	emu.Program = vm.NewProgram([]vm.Instruction{
		vm.MakePush(1),
		vm.MakeCode(vm.OP_PRINT_DEBUG),
		vm.MakePush(2),
		vm.MakeCode(vm.OP_PRINT_DEBUG),
		vm.MakePush(3),
		vm.MakeCode(vm.OP_PRINT_DEBUG),
		vm.MakeCode(vm.OP_HALT),
	})
	assert.NoError(emu.Reset())

	// The capture holds two values; the third send fails.
	_, err := emu.Run(EXECUTION_LIMIT)
	assert.ErrorIs(err, channel.ErrChannelFull)
	assert.Equal(vm.Word(5), emu.Ip())
	assert.Equal("", buf.String())

	assert.NoError(emu.Flush())
	assert.Equal("1\n2\n", buf.String())
	assert.Equal(2, emu.Tape.Written)

	// Flushing an empty capture writes nothing.
	assert.NoError(emu.Flush())
	assert.Equal("1\n2\n", buf.String())
}

func TestEmulator_FlushTape(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Tape.Output = nil

	// Without a capture, values already went to the tape.
	assert.NoError(emu.Flush())
}
