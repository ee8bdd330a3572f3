// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	goio "io"
	"iter"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/basicml/config"
	"github.com/ezrec/basicml/cpu"
	"github.com/ezrec/basicml/internal"
	"github.com/ezrec/basicml/io"
	"github.com/ezrec/basicml/memory"
	"github.com/ezrec/basicml/program"
	"github.com/ezrec/basicml/word"
)

// Emulator state. CPU + memory + console tape.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.
	Config   config.Config

	Tape io.Tape // Console IO channel.

	policy memory.LoadPolicy
}

// NewEmulator creates a new emulator for a machine configuration.
func NewEmulator(cfg config.Config) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	policy, err := memory.ParseLoadPolicy(cfg.LoadPolicy)
	if err != nil {
		return
	}

	codec := word.Codec{Width: cfg.WordWidth}

	emu = &Emulator{
		Config:  cfg,
		Program: &cpu.Program{},
		policy:  policy,
	}
	emu.Tape.Codec = codec

	mem := memory.New(cfg.MemorySize, codec)
	emu.Cpu = cpu.NewCpu(mem, &emu.Tape, cpu.Decoder{OperandWidth: cfg.Operand()}, cfg.MaxSteps)
	emu.Cpu.TestNoop = cfg.TestNoop

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(emu.Memory.Defines(), emu.Cpu.Defines())
}

// Assembler returns an assembler producing programs for this machine.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{
		Verbose: emu.Verbose,
		Codec:   emu.Memory.Codec(),
		Decoder: emu.Cpu.Decoder,
		Size:    emu.Memory.Size(),
		Noop:    emu.Cpu.TestNoop,
	}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// Assemble assembles mnemonic source and loads it into memory.
func (emu *Emulator) Assemble(input goio.Reader) (err error) {
	prog, err := emu.Assembler().Parse(input)
	if err != nil {
		return
	}

	emu.Memory.Clear()
	err = emu.Memory.Load(prog.Words, memory.LOAD_STRICT)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.Reset()

	return
}

// Load reads a word-per-line program into memory, using the configured
// load policy.
func (emu *Emulator) Load(input goio.Reader) (err error) {
	words, err := program.Read(input)
	if err != nil {
		return
	}

	return emu.LoadWords(words)
}

// LoadWords loads a memory image, using the configured load policy. Word
// n is listed as source line n+1. Memory past the image is cleared; on
// error memory is left as it was.
func (emu *Emulator) LoadWords(words []string) (err error) {
	err = emu.Memory.Load(words, emu.policy)
	if err != nil {
		return
	}

	for address := len(words); address < emu.Memory.Size(); address++ {
		err = emu.Memory.WriteInt(address, 0)
		if err != nil {
			return
		}
	}

	prog := &cpu.Program{Words: emu.Memory.Words()[:len(words)]}
	for address, text := range words {
		prog.Listing = append(prog.Listing, cpu.Line{
			LineNo:  address + 1,
			Address: address,
			Text:    text,
			Word:    prog.Words[address],
		})
	}

	emu.Program = prog
	emu.Reset()

	return
}

// Reset boots the CPU, leaving memory as loaded.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.BootUp()
}

// LineNo returns the source line number of the next instruction, or 0 if
// the program has no listing.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Cpu.Pc)
}

// runtimeError locates a CPU error in the program listing.
func (emu *Emulator) runtimeError(address int, err error) error {
	var ei cpu.ErrInstruction
	if errors.As(err, &ei) {
		address = ei.Address
	}

	return &ErrRuntime{
		Address: address,
		LineNo:  emu.Program.LineNo(address),
		Err:     err,
	}
}

// Tick performs a single instruction of the emulator. Once the program
// has halted, Tick reports done without executing.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.State == cpu.STATE_HALTED {
		done = true
		return
	}

	address := emu.Cpu.Pc

	result, err := emu.Cpu.Step()
	if err != nil {
		err = emu.runtimeError(address, err)
		return
	}

	done = result == cpu.RESULT_HALT

	return
}

// Run executes the loaded program from address 0 until it halts.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	return emu.run(ctx, false)
}

// Continue resumes the program at the current program counter.
func (emu *Emulator) Continue(ctx context.Context) (err error) {
	return emu.run(ctx, true)
}

func (emu *Emulator) run(ctx context.Context, cont bool) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Run(ctx, cont)
	if err != nil {
		err = emu.runtimeError(emu.Cpu.Pc, err)
	}

	if emu.Verbose {
		logrus.WithFields(logrus.Fields{
			"ticks": emu.Cpu.Ticks,
			"state": emu.Cpu.State.String(),
		}).Debug("emulator: run complete")
	}

	return
}

// Dump writes the CPU registers and a memory map.
func (emu *Emulator) Dump(w goio.Writer) (err error) {
	_, err = fmt.Fprintf(w, "%v%v\n", emu.Cpu.String(), emu.Memory.String())
	return
}

// Disassemble writes a listing of memory, one address per line.
func (emu *Emulator) Disassemble(w goio.Writer) (err error) {
	codec := emu.Memory.Codec()
	digits := len(strconv.Itoa(max(emu.Memory.Size()-1, 0)))

	for address, value := range emu.Memory.Values() {
		text, _ := codec.Format(value)
		asm := emu.Cpu.Decoder.Disassemble(codec, value)
		_, err = fmt.Fprintf(w, "%0*d %v  %v\n", max(digits, 2), address, text, asm)
		if err != nil {
			return
		}
	}

	return
}
