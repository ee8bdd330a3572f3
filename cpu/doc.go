// Package cpu implements the execution engine and assembler for the
// BasicML machine.
//
// The CPU consists of a single accumulator, a program counter, and a
// fetch-decode-execute cycle over twelve instructions. Instruction words
// split into an operator and an operand address; the program
// counter advances before each instruction executes, so branches simply
// overwrite it. A step budget stops runaway programs.
//
// The assembler accepts mnemonic source with labels, equates, and
// compile-time expression evaluation, and produces memory images.
package cpu
