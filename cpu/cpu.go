package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/basicml/internal"
	"github.com/ezrec/basicml/io"
	"github.com/ezrec/basicml/memory"
	"github.com/ezrec/basicml/word"
)

// Channel is an I/O channel interface.
type Channel io.Channel

// State of the CPU run cycle.
type State int

//go:generate go tool stringer -linecomment -type=State,Result -output=state_string.go
const (
	STATE_READY   = State(iota) // Ready
	STATE_RUNNING               // Running
	STATE_HALTED                // Halted
	STATE_ABORTED               // Aborted
)

// Result of executing a single instruction.
type Result int

const (
	RESULT_CONTINUE = Result(iota) // Continue
	RESULT_HALT                    // Halt
	RESULT_FAULT                   // Fault
)

// MAX_STEPS is the default step budget of a run.
const MAX_STEPS = 1000

// Cpu is the simulation context for the accumulator machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   *memory.Memory // Memory the program runs from.
	Channel  Channel        // Console I/O for READ and WRITE.
	Decoder  Decoder        // Instruction word decoder.
	MaxSteps int            // Step budget of a run.
	TestNoop bool           // Accept the reserved NOOP instruction.

	Accumulator int   // Arithmetic register.
	Pc          int   // Address of the next instruction.
	Halted      bool  // Set once HALT executes.
	Steps       int   // Remaining step budget.
	State       State // Run cycle state.

	Ticks int // Executed instruction counter.
}

// NewCpu creates a CPU attached to memory and a console channel, booted
// and ready to run.
func NewCpu(mem *memory.Memory, channel Channel, decoder Decoder, maxSteps int) (cpu *Cpu) {
	if maxSteps <= 0 {
		maxSteps = MAX_STEPS
	}

	cpu = &Cpu{
		Memory:   mem,
		Channel:  channel,
		Decoder:  decoder,
		MaxSteps: maxSteps,
	}

	cpu.BootUp()

	return
}

// Defines for the cpu, as assembler equates.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"OPERAND_WIDTH": strconv.Itoa(cpu.Decoder.OperandWidth),
		"MAX_STEPS":     strconv.Itoa(cpu.MaxSteps),
	}
	for _, op := range Opcodes {
		defines["OP_"+op.String()] = strconv.Itoa(int(op))
	}

	return internal.Sorted2(defines)
}

// BootUp returns the CPU to its power-on state. Memory is not touched.
func (cpu *Cpu) BootUp() {
	if cpu.Verbose {
		logrus.Debug("cpu: boot")
	}

	cpu.Accumulator = 0
	cpu.Pc = 0
	cpu.Halted = false
	cpu.Steps = cpu.MaxSteps
	cpu.State = STATE_READY
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{"acc", "pc", "halt", "state", "steps"}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "acc":
			strval = strconv.Itoa(cpu.Accumulator)
			if spelled, err := cpu.Memory.Codec().Format(cpu.Accumulator); err == nil {
				strval = spelled
			}
		case "pc":
			strval = fmt.Sprintf("%02d", cpu.Pc)
		case "halt":
			strval = strconv.FormatBool(cpu.Halted)
		case "state":
			strval = cpu.State.String()
		case "steps":
			strval = strconv.Itoa(cpu.Steps)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Run executes instructions until HALT, a fault, cancellation, or the
// step budget is spent.
//
// Unless cont is set the CPU is booted first. A continued run resumes at
// the current program counter with a budget of MaxSteps less the program
// counter.
func (cpu *Cpu) Run(ctx context.Context, cont bool) (err error) {
	if !cont {
		cpu.BootUp()
	} else {
		cpu.Halted = false
		cpu.State = STATE_READY
		cpu.Steps = cpu.MaxSteps - cpu.Pc
	}

	for {
		if ctx_err := ctx.Err(); ctx_err != nil {
			cpu.State = STATE_ABORTED
			err = errors.Join(ErrInterrupted, ctx_err)
			return
		}

		var result Result
		result, err = cpu.Step()
		if err != nil {
			return
		}

		if result == RESULT_HALT {
			return
		}
	}
}

// Step fetches, decodes, and executes the instruction at the program
// counter.
func (cpu *Cpu) Step() (result Result, err error) {
	switch cpu.State {
	case STATE_HALTED, STATE_ABORTED:
		result = RESULT_FAULT
		err = ErrNotReady
		return
	}

	if cpu.Steps <= 0 {
		cpu.State = STATE_ABORTED
		result = RESULT_FAULT
		err = ErrStepLimit
		return
	}

	cpu.State = STATE_RUNNING

	defer func() {
		cpu.Steps--
		if cpu.Steps == 0 && result == RESULT_CONTINUE {
			cpu.State = STATE_ABORTED
			result = RESULT_FAULT
			err = ErrStepLimit
		}
	}()

	address := cpu.Pc
	code, err := cpu.Memory.Read(address)
	if err != nil {
		cpu.State = STATE_ABORTED
		result = RESULT_FAULT
		return
	}

	// Advance before executing, so branches simply overwrite the pc.
	cpu.Pc++

	result, err = cpu.Execute(code)
	if err != nil {
		cpu.State = STATE_ABORTED
		result = RESULT_FAULT
		err = ErrInstruction{Address: address, Word: code, Err: err}
		return
	}

	if result == RESULT_HALT {
		cpu.Halted = true
		cpu.State = STATE_HALTED
	}

	return
}

// Explain describes an instruction word without executing it.
func (cpu *Cpu) Explain(code int) (text string, err error) {
	return cpu.Decoder.Explain(cpu.Memory.Codec(), code)
}

// doAlu applies an arithmetic instruction to the accumulator. Results
// outside of word range are kept; STORE reports them.
func (cpu *Cpu) doAlu(op Opcode, acc int, value int) (result int, err error) {
	defer func() {
		if errors.Is(err, ErrAccumulatorOverflow) {
			err = errors.Join(word.ErrRange, err)
		}
	}()

	switch op {
	case OP_ADD:
		result = acc + value
		if (value > 0 && result < acc) || (value < 0 && result > acc) {
			err = errors.Join(ErrAccumulatorOverflow, fmt.Errorf("%d + %d", acc, value))
		}
	case OP_SUBTRACT:
		result = acc - value
		if (value < 0 && result < acc) || (value > 0 && result > acc) {
			err = errors.Join(ErrAccumulatorOverflow, fmt.Errorf("%d - %d", acc, value))
		}
	case OP_MULTIPLY:
		result = acc * value
		if acc != 0 && (result/acc != value || (acc == -1 && value == math.MinInt)) {
			err = errors.Join(ErrAccumulatorOverflow, fmt.Errorf("%d * %d", acc, value))
		}
	case OP_DIVIDE:
		if value == 0 {
			err = ErrDivideByZero
			return
		}
		if acc == math.MinInt && value == -1 {
			err = errors.Join(ErrAccumulatorOverflow, fmt.Errorf("%d / %d", acc, value))
			return
		}
		result = acc / value
	default:
		err = ErrOpcodeInvalid
	}

	return
}

// Execute decodes and executes a single instruction word against the
// current CPU state.
func (cpu *Cpu) Execute(code int) (result Result, err error) {
	op, operand, err := cpu.Decoder.Decode(code)
	if err != nil {
		result = RESULT_FAULT
		return
	}

	if cpu.Verbose {
		logrus.WithFields(logrus.Fields{
			"pc":      cpu.Pc - 1,
			"word":    code,
			"op":      op.String(),
			"operand": operand,
			"acc":     cpu.Accumulator,
		}).Debug("cpu: execute")
	}

	if !op.Valid(cpu.TestNoop) {
		result = RESULT_FAULT
		err = errors.Join(ErrOpcodeInvalid, fmt.Errorf("%d", int(op)))
		return
	}

	cpu.Ticks++

	switch op {
	case OP_READ:
		if cpu.Channel == nil {
			err = ErrChannelMissing
			break
		}
		var value int
		value, err = cpu.Channel.Input()
		if err != nil {
			break
		}
		err = cpu.Memory.WriteInt(operand, value)
	case OP_WRITE:
		if cpu.Channel == nil {
			err = ErrChannelMissing
			break
		}
		var value int
		value, err = cpu.Memory.Read(operand)
		if err != nil {
			break
		}
		cpu.Channel.Output(value)
	case OP_LOAD:
		cpu.Accumulator, err = cpu.Memory.Read(operand)
	case OP_STORE:
		err = cpu.Memory.WriteInt(operand, cpu.Accumulator)
	case OP_ADD, OP_SUBTRACT, OP_DIVIDE, OP_MULTIPLY:
		var value int
		value, err = cpu.Memory.Read(operand)
		if err != nil {
			break
		}
		var acc int
		acc, err = cpu.doAlu(op, cpu.Accumulator, value)
		if err != nil {
			break
		}
		cpu.Accumulator = acc
	case OP_BRANCH:
		cpu.Pc = operand
	case OP_BRANCHNEG:
		if cpu.Accumulator < 0 {
			cpu.Pc = operand
		}
	case OP_BRANCHZERO:
		if cpu.Accumulator == 0 {
			cpu.Pc = operand
		}
	case OP_HALT:
		result = RESULT_HALT
		return
	case OP_NOOP:
		// pass
	}

	if err != nil {
		result = RESULT_FAULT
		return
	}

	result = RESULT_CONTINUE

	return
}
