// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/bm/codec"
	"github.com/ezrec/bm/emulator"
	"github.com/ezrec/bm/vm"
)

var (
	verbose bool
	defines []string
	limit   int
	buffer  int
)

func main() {
	log.SetFlags(0)
	log.SetPrefix(os.Args[0] + ": ")

	var rootCmd = &cobra.Command{
		Use:   "bm",
		Short: "bm stack machine assembler and emulator",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().StringArrayVarP(&defines, "define", "D", nil, "Predefine NAME=VALUE for $(...) expressions")

	var asmCmd = &cobra.Command{
		Use:   "asm <input.basm> <output.bm>",
		Short: "Assemble a program into a binary image",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			prog := assemble(args[0])

			err := writeImage(args[1], prog)
			if err != nil {
				log.Fatalf("%v: %v", args[1], err)
			}
		},
	}

	var runCmd = &cobra.Command{
		Use:   "run <input.bm>",
		Short: "Execute a binary image",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execute(load(args[0]))
		},
	}
	runCmd.Flags().IntVarP(&limit, "limit", "l", emulator.EXECUTION_LIMIT, "Maximum instructions to execute (negative for no limit)")
	runCmd.Flags().IntVarP(&buffer, "buffer", "b", 0, "Capture up to N debug values, printed when the program stops")

	var execCmd = &cobra.Command{
		Use:   "exec <input.basm>",
		Short: "Assemble and execute a program",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execute(assemble(args[0]))
		},
	}
	execCmd.Flags().IntVarP(&limit, "limit", "l", emulator.EXECUTION_LIMIT, "Maximum instructions to execute (negative for no limit)")
	execCmd.Flags().IntVarP(&buffer, "buffer", "b", 0, "Capture up to N debug values, printed when the program stops")

	var disCmd = &cobra.Command{
		Use:   "dis <input.bm>",
		Short: "Disassemble a binary image",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := load(args[0]).Disassemble(os.Stdout)
			if err != nil {
				log.Fatal(err)
			}
		},
	}

	rootCmd.AddCommand(asmCmd, runCmd, execCmd, disCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// assemble compiles a basm source file.
func assemble(input string) (prog *vm.Program) {
	inf, err := os.Open(input)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
	defer inf.Close()

	asm := &vm.Assembler{Verbose: verbose}
	for name, value := range emulator.NewEmulator().Defines() {
		asm.Predefine(name, value)
	}
	for _, define := range defines {
		name, value, ok := strings.Cut(define, "=")
		if !ok {
			log.Fatalf("-D %v: expected NAME=VALUE", define)
		}
		asm.Predefine(name, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	return
}

// writeImage encodes the program to a binary image file. A failed close is
// reported, since it may be the write that failed.
func writeImage(output string, prog *vm.Program) (err error) {
	ouf, err := os.Create(output)
	if err != nil {
		return
	}

	err = codec.Encode(ouf, prog.Instructions())
	if err != nil {
		ouf.Close()
		return
	}

	err = ouf.Close()
	return
}

// load decodes a binary image file.
func load(input string) (prog *vm.Program) {
	inf, err := os.Open(input)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
	defer inf.Close()

	codes, err := codec.Decode(inf)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	prog = vm.NewProgram(codes)

	return
}

// execute runs the program, reporting the stack on stderr when it stops.
func execute(prog *vm.Program) {
	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = verbose
	if buffer > 0 {
		emu.Buffer(buffer)
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	_, err = emu.Run(limit)
	flush(emu)
	if err != nil {
		log.Print(err)
		dumpStack(emu, os.Stderr)
		os.Exit(1)
	}

	dumpStack(emu, os.Stderr)
}

func flush(emu *emulator.Emulator) {
	err := emu.Flush()
	if err != nil {
		log.Fatal(err)
	}
}

func dumpStack(emu *emulator.Emulator, w io.Writer) {
	err := emu.DumpStack(w)
	if err != nil {
		log.Fatal(err)
	}
}
