package cpu

import (
	"context"
	"errors"
	"maps"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/basicml/io"
	"github.com/ezrec/basicml/memory"
	"github.com/ezrec/basicml/word"
)

// newTestCpu builds a classic 100 word machine with the program loaded
// at address 0.
func newTestCpu(t *testing.T, program ...string) (cpu *Cpu, queue *io.Queue) {
	mem := memory.New(100, word.Codec{Width: 4})
	err := mem.Load(program, memory.LOAD_STRICT)
	if err != nil {
		t.Fatal(err)
	}

	queue = &io.Queue{}
	cpu = NewCpu(mem, queue, Decoder{OperandWidth: 2}, MAX_STEPS)

	return
}

func poke(t *testing.T, cpu *Cpu, address int, text string) {
	err := cpu.Memory.Write(address, text)
	if err != nil {
		t.Fatal(err)
	}
}

func peek(cpu *Cpu, address int) (text string) {
	text, _ = cpu.Memory.ReadWord(address)
	return
}

func TestCpuArithmetic(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+2010", "+3011", "+2100", "+4300")
	poke(t, cpu, 10, "+0008")
	poke(t, cpu, 11, "+0016")

	err := cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.Equal(24, cpu.Accumulator)
	assert.Equal("+0024", peek(cpu, 0))
	assert.True(cpu.Halted)
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Equal(4, cpu.Pc)
	assert.Equal(4, cpu.Ticks)
	assert.Equal(MAX_STEPS-4, cpu.Steps)
}

func TestCpuAlu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		op     Opcode
		acc    int
		value  string
		result int
		err    error
	}){
		{"add", OP_ADD, 5, "+0007", 12, nil},
		{"add_wide", OP_ADD, 9999, "+9999", 19998, nil},
		{"sub", OP_SUBTRACT, 5, "+0007", -2, nil},
		{"mul", OP_MULTIPLY, -3, "+0007", -21, nil},
		{"div", OP_DIVIDE, 7, "+0002", 3, nil},
		{"div_trunc", OP_DIVIDE, -7, "+0002", -3, nil},
		{"div_neg", OP_DIVIDE, 7, "-0002", -3, nil},
		{"div_zero", OP_DIVIDE, 7, "+0000", 7, ErrDivideByZero},
		{"add_overflow", OP_ADD, math.MaxInt, "+0001", math.MaxInt, ErrAccumulatorOverflow},
		{"sub_overflow", OP_SUBTRACT, math.MinInt, "+0001", math.MinInt, ErrAccumulatorOverflow},
		{"mul_overflow", OP_MULTIPLY, math.MaxInt, "+0002", math.MaxInt, ErrAccumulatorOverflow},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(t)
		poke(t, cpu, 50, entry.value)
		cpu.Accumulator = entry.acc

		code, err := cpu.Decoder.Encode(entry.op, 50)
		assert.NoError(err, entry.name)

		result, err := cpu.Execute(code)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.name)
			assert.Equal(RESULT_FAULT, result, entry.name)
		} else {
			assert.NoError(err, entry.name)
			assert.Equal(RESULT_CONTINUE, result, entry.name)
		}
		assert.Equal(entry.result, cpu.Accumulator, entry.name)
	}
}

func TestCpuOverflowIsRange(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	_, err := cpu.doAlu(OP_ADD, math.MaxInt, 1)
	assert.ErrorIs(err, ErrAccumulatorOverflow)
	assert.ErrorIs(err, word.ErrRange)

	_, err = cpu.doAlu(OP_DIVIDE, 1, 0)
	assert.ErrorIs(err, ErrDivideByZero)
	assert.False(errors.Is(err, word.ErrRange))
}

func TestCpuBranch(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)

	result, err := cpu.Execute(4259)
	assert.NoError(err)
	assert.Equal(RESULT_CONTINUE, result)
	assert.Equal(59, cpu.Pc)

	cpu.Accumulator = 5
	cpu.Pc = 1
	_, err = cpu.Execute(4120)
	assert.NoError(err)
	assert.Equal(1, cpu.Pc)
	_, err = cpu.Execute(4220)
	assert.NoError(err)
	assert.Equal(1, cpu.Pc)

	cpu.Accumulator = -5
	_, err = cpu.Execute(4120)
	assert.NoError(err)
	assert.Equal(20, cpu.Pc)

	_, err = cpu.Execute(4033)
	assert.NoError(err)
	assert.Equal(33, cpu.Pc)
}

func TestCpuBranchZeroStep(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+2010", "+3110", "+4259")
	poke(t, cpu, 10, "+0033")

	for range 2 {
		_, err := cpu.Step()
		assert.NoError(err)
	}
	assert.Equal(0, cpu.Accumulator)

	result, err := cpu.Step()
	assert.NoError(err)
	assert.Equal(RESULT_CONTINUE, result)
	assert.Equal(59, cpu.Pc)
}

func TestCpuHalt(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+4300")

	err := cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.True(cpu.Halted)
	assert.Equal(1, cpu.Pc)

	result, err := cpu.Step()
	assert.ErrorIs(err, ErrNotReady)
	assert.Equal(RESULT_FAULT, result)
	assert.Equal(1, cpu.Pc)

	err = cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.True(cpu.Halted)
	assert.Equal(1, cpu.Pc)
	assert.Equal(1, cpu.Ticks)

	for _, code := range []int{4300, 4301, 4399} {
		result, err = cpu.Execute(code)
		assert.NoError(err, code)
		assert.Equal(RESULT_HALT, result, code)
	}
}

func TestCpuBootUp(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+2010")
	cpu.Accumulator = 77
	cpu.Pc = 12
	cpu.Halted = true
	cpu.Steps = 3
	cpu.State = STATE_ABORTED
	cpu.Ticks = 9

	cpu.BootUp()
	cpu.BootUp()

	assert.Equal(0, cpu.Accumulator)
	assert.Equal(0, cpu.Pc)
	assert.False(cpu.Halted)
	assert.Equal(cpu.MaxSteps, cpu.Steps)
	assert.Equal(STATE_READY, cpu.State)
	assert.Equal(0, cpu.Ticks)
	assert.Equal("+2010", peek(cpu, 0))
}

func TestCpuStepLimit(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+4000")

	err := cpu.Run(context.Background(), false)
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(MAX_STEPS, cpu.Ticks)
	assert.Equal(0, cpu.Steps)
	assert.Equal(STATE_ABORTED, cpu.State)
	assert.False(cpu.Halted)

	_, err = cpu.Step()
	assert.ErrorIs(err, ErrNotReady)

	cpu.MaxSteps = 5
	err = cpu.Run(context.Background(), false)
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(5, cpu.Ticks)
}

func TestCpuContinue(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+4300", "+2010", "+4300")
	poke(t, cpu, 10, "-0042")

	err := cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.Equal(1, cpu.Pc)
	assert.Equal(0, cpu.Accumulator)

	err = cpu.Run(context.Background(), true)
	assert.NoError(err)
	assert.Equal(3, cpu.Pc)
	assert.Equal(-42, cpu.Accumulator)
	assert.Equal(MAX_STEPS-1-2, cpu.Steps)
	assert.True(cpu.Halted)

	cpu.Pc = MAX_STEPS
	cpu.State = STATE_READY
	err = cpu.Run(context.Background(), true)
	assert.ErrorIs(err, ErrStepLimit)
}

func TestCpuReadWrite(t *testing.T) {
	assert := assert.New(t)

	cpu, queue := newTestCpu(t, "+1020", "+1120", "+4300")
	queue.Push(-42)

	err := cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.Equal("-0042", peek(cpu, 20))
	assert.Equal([]int{-42}, queue.Outputs)

	err = cpu.Run(context.Background(), false)
	assert.ErrorIs(err, io.ErrChannelEmpty)
	assert.Equal(STATE_ABORTED, cpu.State)

	cpu.Channel = nil
	cpu.BootUp()
	_, err = cpu.Step()
	assert.ErrorIs(err, ErrChannelMissing)
}

func TestCpuReadRange(t *testing.T) {
	assert := assert.New(t)

	cpu, queue := newTestCpu(t, "+1020", "+4300")
	queue.Push(10000)

	err := cpu.Run(context.Background(), false)
	assert.ErrorIs(err, word.ErrRange)
	assert.Equal("+0000", peek(cpu, 20))
}

func TestCpuStoreRange(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+2010", "+3010", "+2111", "+4300")
	poke(t, cpu, 10, "+9999")

	err := cpu.Run(context.Background(), false)
	assert.ErrorIs(err, word.ErrRange)
	assert.Equal(19998, cpu.Accumulator)
	assert.Equal("+0000", peek(cpu, 11))

	var ei ErrInstruction
	assert.ErrorAs(err, &ei)
	assert.Equal(2, ei.Address)
	assert.Equal(2111, ei.Word)
	assert.Equal(3, cpu.Pc)
}

func TestCpuFault(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		err     error
		address int
	}){
		{"opcode", []string{"+5000"}, ErrOpcodeInvalid, 0},
		{"noop", []string{"+9900"}, ErrOpcodeInvalid, 0},
		{"negative", []string{"+4300", "-2010"}, ErrNegativeOperation, 0},
		{"small", []string{"+0050"}, ErrOperationTooSmall, 0},
		{"empty", []string{"+4099"}, ErrOperationTooSmall, 99},
		{"divide", []string{"+2010", "+3211"}, ErrDivideByZero, 1},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(t, entry.program...)
		if entry.name == "negative" {
			cpu.Pc = 1
			cpu.State = STATE_READY
			_, err := cpu.Step()
			assert.ErrorIs(err, entry.err, entry.name)
			var ei ErrInstruction
			assert.ErrorAs(err, &ei, entry.name)
			assert.Equal(1, ei.Address, entry.name)
			continue
		}

		err := cpu.Run(context.Background(), false)
		assert.ErrorIs(err, entry.err, entry.name)
		assert.Equal(STATE_ABORTED, cpu.State, entry.name)

		var ei ErrInstruction
		assert.ErrorAs(err, &ei, entry.name)
		assert.Equal(entry.address, ei.Address, entry.name)
	}
}

func TestCpuNoop(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+9900", "+9912", "+4300")
	cpu.TestNoop = true

	err := cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.Equal(3, cpu.Ticks)
}

func TestCpuFetchRange(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	cpu.Pc = 100

	result, err := cpu.Step()
	assert.ErrorIs(err, memory.ErrAddressRange)
	assert.Equal(RESULT_FAULT, result)
	assert.Equal(STATE_ABORTED, cpu.State)
	assert.Equal(100, cpu.Pc)
}

func TestCpuInterrupt(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+4000")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cpu.Run(ctx, false)
	assert.ErrorIs(err, ErrInterrupted)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, cpu.Ticks)
	assert.Equal(STATE_ABORTED, cpu.State)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "+2010", "+3011", "+2100", "+4300")
	poke(t, cpu, 10, "+0008")
	poke(t, cpu, 11, "+0016")

	assert.Equal("  acc: +0000\n   pc: 00\n halt: false\nstate: Ready\nsteps: 1000\n", cpu.String())

	err := cpu.Run(context.Background(), false)
	assert.NoError(err)
	assert.Equal("  acc: +0024\n   pc: 04\n halt: true\nstate: Halted\nsteps: 996\n", cpu.String())

	cpu.Accumulator = 12345
	assert.Contains(cpu.String(), "  acc: 12345\n")
}

func TestCpuExplain(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	cpu.Accumulator = 3

	text, err := cpu.Explain(3011)
	assert.NoError(err)
	assert.Equal("+3011: ADD (30)\nAdd the word from memory location 11 to the word in the accumulator.", text)
	assert.Equal(3, cpu.Accumulator)
	assert.Equal(0, cpu.Ticks)
}

func TestCpuDefines(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	defines := maps.Collect(cpu.Defines())

	assert.Equal("20", defines["OP_LOAD"])
	assert.Equal("43", defines["OP_HALT"])
	assert.Equal("2", defines["OPERAND_WIDTH"])
	assert.Equal("1000", defines["MAX_STEPS"])
	assert.NotContains(defines, "OP_NOOP")
}
