package cpu

import (
	"errors"

	"github.com/ezrec/basicml/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrNotReady            = errors.New(f("cpu not ready, boot required"))
	ErrStepLimit           = errors.New(f("step limit reached"))
	ErrInterrupted         = errors.New(f("interrupted"))
	ErrDivideByZero        = errors.New(f("divide by zero"))
	ErrAccumulatorOverflow = errors.New(f("accumulator overflow"))
	ErrChannelMissing      = errors.New(f("no i/o channel"))

	// Instruction decode errors
	ErrNegativeOperation = errors.New(f("negative operation"))
	ErrOperationTooSmall = errors.New(f("operation too small"))
	ErrOpcodeInvalid     = errors.New(f("opcode invalid"))
	ErrOperandRange      = errors.New(f("operand out of range"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrOrgSyntax       = errors.New(f(".org syntax"))
	ErrOrgOverlap      = errors.New(f(".org overlaps earlier words"))
	ErrWordSyntax      = errors.New(f(".word syntax"))
	ErrDirective       = errors.New(f("directive unknown"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrProgramSize     = errors.New(f("program larger than memory"))
)

// ErrInstruction locates a fault at an address.
type ErrInstruction struct {
	Address int
	Word    int
	Err     error
}

func (err ErrInstruction) Error() string {
	return f("address %d word %d %v", err.Address, err.Word, err.Err)
}

func (err ErrInstruction) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrMnemonic string

func (em ErrMnemonic) Error() string {
	return f("'%v' is not an instruction", string(em))
}

func (em ErrMnemonic) Unwrap() error {
	return ErrOpcodeInvalid
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
