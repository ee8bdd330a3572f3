package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/basicml/word"
)

// Opcode is the operator part of an instruction word.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_READ       = Opcode(10) // READ
	OP_WRITE      = Opcode(11) // WRITE
	OP_LOAD       = Opcode(20) // LOAD
	OP_STORE      = Opcode(21) // STORE
	OP_ADD        = Opcode(30) // ADD
	OP_SUBTRACT   = Opcode(31) // SUBTRACT
	OP_DIVIDE     = Opcode(32) // DIVIDE
	OP_MULTIPLY   = Opcode(33) // MULTIPLY
	OP_BRANCH     = Opcode(40) // BRANCH
	OP_BRANCHNEG  = Opcode(41) // BRANCHNEG
	OP_BRANCHZERO = Opcode(42) // BRANCHZERO
	OP_HALT       = Opcode(43) // HALT
	OP_NOOP       = Opcode(99) // NOOP
)

// Opcodes is the instruction set, in opcode order.
var Opcodes = []Opcode{
	OP_READ, OP_WRITE,
	OP_LOAD, OP_STORE,
	OP_ADD, OP_SUBTRACT, OP_DIVIDE, OP_MULTIPLY,
	OP_BRANCH, OP_BRANCHNEG, OP_BRANCHZERO, OP_HALT,
}

var _opcode_help = map[Opcode]string{
	OP_READ:       "Read a word from the keyboard into memory location %d.",
	OP_WRITE:      "Write the word from memory location %d to screen.",
	OP_LOAD:       "Load the word from memory location %d into the accumulator.",
	OP_STORE:      "Store the word from the accumulator into memory location %d.",
	OP_ADD:        "Add the word from memory location %d to the word in the accumulator.",
	OP_SUBTRACT:   "Subtract the word from memory location %d from the word in the accumulator.",
	OP_DIVIDE:     "Divide the word in the accumulator by the word from memory location %d.",
	OP_MULTIPLY:   "Multiply the word in the accumulator by the word from memory location %d.",
	OP_BRANCH:     "Branch to memory location %d.",
	OP_BRANCHNEG:  "Branch to memory location %d if the accumulator is negative.",
	OP_BRANCHZERO: "Branch to memory location %d if the accumulator is zero.",
	OP_HALT:       "Halt the program.",
	OP_NOOP:       "Do nothing.",
}

// Valid returns true for an opcode of the instruction set. The reserved
// no-op is only valid when noop is set.
func (op Opcode) Valid(noop bool) bool {
	if op == OP_NOOP {
		return noop
	}
	_, ok := _opcode_help[op]
	return ok
}

// HasOperand returns true if the instruction uses its operand.
func (op Opcode) HasOperand() bool {
	return op != OP_HALT && op != OP_NOOP
}

// ParseOpcode looks up an instruction by mnemonic, ignoring case. The
// reserved NOOP is not part of the instruction set, and is rejected.
func ParseOpcode(mnemonic string) (op Opcode, err error) {
	name := strings.ToUpper(mnemonic)
	for _, op = range Opcodes {
		if op.String() == name {
			return
		}
	}

	op = 0
	err = ErrMnemonic(mnemonic)
	return
}

// Decoder splits instruction words into operator and operand.
type Decoder struct {
	OperandWidth int // Number of operand digits.
}

// scale is the operand modulus, ie 100 for two operand digits.
func (dec Decoder) scale() int {
	return word.Pow10(dec.OperandWidth)
}

// Threshold returns the smallest word that can hold an instruction: the
// lowest operator (10) with operand zero.
func (dec Decoder) Threshold() int {
	return dec.scale() * 10
}

// Decode returns the operator and operand of an instruction word. Neither
// is validated here: opcodes are checked at dispatch and operands when
// memory is accessed.
func (dec Decoder) Decode(code int) (op Opcode, operand int, err error) {
	switch {
	case code < 0:
		err = ErrNegativeOperation
		return
	case code < dec.Threshold():
		err = ErrOperationTooSmall
		return
	}

	scale := dec.scale()
	op = Opcode(code / scale)
	operand = code % scale

	return
}

// Encode builds an instruction word.
func (dec Decoder) Encode(op Opcode, operand int) (code int, err error) {
	scale := dec.scale()
	switch {
	case operand < 0 || operand >= scale:
		err = ErrOperandRange
		return
	case int(op) < 10:
		err = ErrOpcodeInvalid
		return
	}

	code = int(op)*scale + operand

	return
}

// Explain describes an instruction word for display, ie
// "+2010: LOAD (20)\nLoad the word from memory location 10 into the accumulator."
func (dec Decoder) Explain(codec word.Codec, code int) (text string, err error) {
	op, operand, err := dec.Decode(code)
	if err != nil {
		return
	}

	help, ok := _opcode_help[op]
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	spelled, err := codec.Format(code)
	if err != nil {
		return
	}

	if op.HasOperand() {
		help = f(help, operand)
	} else {
		help = f(help)
	}

	text = fmt.Sprintf("%v: %v (%d)\n%v", spelled, op.String(), int(op), help)

	return
}

// Disassemble returns the assembler form of an instruction word, ie
// "LOAD 10". Words that are not instructions are shown as data.
func (dec Decoder) Disassemble(codec word.Codec, code int) (text string) {
	op, operand, err := dec.Decode(code)
	if err == nil && op.Valid(true) {
		if op.HasOperand() {
			return fmt.Sprintf("%v %d", op.String(), operand)
		}
		return op.String()
	}

	spelled, err := codec.Format(code)
	if err != nil {
		spelled = fmt.Sprint(code)
	}
	return ".word " + spelled
}
