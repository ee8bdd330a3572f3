// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the word-addressable store of the BasicML
// machine.
package memory

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/basicml/word"
)

// LoadPolicy selects how Load treats a malformed word.
type LoadPolicy int

const (
	LOAD_ZERO   = LoadPolicy(0) // Replace the word with zero and continue.
	LOAD_STRICT = LoadPolicy(1) // Reject the program, leaving memory untouched.
)

// ParseLoadPolicy converts a policy name ("zero" or "strict").
func ParseLoadPolicy(name string) (policy LoadPolicy, err error) {
	switch name {
	case "", "zero":
		policy = LOAD_ZERO
	case "strict":
		policy = LOAD_STRICT
	default:
		err = errors.Join(ErrLoadPolicyUnknown, errors.New(name))
	}
	return
}

func (policy LoadPolicy) String() string {
	if policy == LOAD_STRICT {
		return "strict"
	}
	return "zero"
}

// Memory is a fixed number of words. Every slot always holds a value in
// word range.
type Memory struct {
	codec word.Codec
	cell  []int
}

// New allocates memory of size words, all zero.
func New(size int, codec word.Codec) (mem *Memory) {
	mem = &Memory{
		codec: codec,
		cell:  make([]int, size),
	}

	return
}

// Size returns the number of words.
func (mem *Memory) Size() int {
	return len(mem.cell)
}

// Codec returns the word codec of the memory.
func (mem *Memory) Codec() word.Codec {
	return mem.codec
}

// Defines returns the memory geometry as assembler equates.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": strconv.Itoa(mem.Size()),
		"WORD_WIDTH":  strconv.Itoa(mem.codec.Width),
		"WORD_MAX":    strconv.Itoa(mem.codec.Max()),
	})
}

func (mem *Memory) check(address int) (err error) {
	if address < 0 || address >= len(mem.cell) {
		err = ErrAddress{Address: address, Size: len(mem.cell)}
	}
	return
}

// Read returns the value at an address.
func (mem *Memory) Read(address int) (value int, err error) {
	err = mem.check(address)
	if err != nil {
		return
	}

	value = mem.cell[address]
	return
}

// ReadWord returns the canonical text at an address.
func (mem *Memory) ReadWord(address int) (text string, err error) {
	value, err := mem.Read(address)
	if err != nil {
		return
	}

	return mem.codec.Format(value)
}

// Write stores a word given as text.
func (mem *Memory) Write(address int, text string) (err error) {
	err = mem.check(address)
	if err != nil {
		return
	}

	value, err := mem.codec.Parse(text)
	if err != nil {
		return
	}

	mem.cell[address] = value
	return
}

// WriteInt stores a word given as a value.
func (mem *Memory) WriteInt(address int, value int) (err error) {
	err = mem.check(address)
	if err != nil {
		return
	}

	err = mem.codec.Check(value)
	if err != nil {
		return
	}

	mem.cell[address] = value
	return
}

// Clear zeros all of memory.
func (mem *Memory) Clear() {
	clear(mem.cell)
}

// Words returns a snapshot of memory as canonical text.
func (mem *Memory) Words() (words []string) {
	words = make([]string, len(mem.cell))
	for n, value := range mem.cell {
		words[n], _ = mem.codec.Format(value)
	}
	return
}

// Values returns a snapshot of memory as values.
func (mem *Memory) Values() []int {
	return slices.Clone(mem.cell)
}

// Load writes words[n] to address n.
//
// With LOAD_ZERO a malformed word is logged and stored as zero. With
// LOAD_STRICT every word is checked before any is written.
func (mem *Memory) Load(words []string, policy LoadPolicy) (err error) {
	if len(words) > len(mem.cell) {
		err = errors.Join(word.ErrRange, ErrProgramTooLarge,
			fmt.Errorf("%d > %d", len(words), len(mem.cell)))
		return
	}

	values := make([]int, len(words))
	for address, text := range words {
		var value int
		value, err = mem.codec.Parse(text)
		if err == nil {
			values[address] = value
			continue
		}

		if policy == LOAD_STRICT {
			err = ErrLoad{Address: address, Text: text, Err: err}
			return
		}

		logrus.WithFields(logrus.Fields{
			"address": address,
			"word":    text,
		}).WithError(err).Warn(f("invalid word, zeroing address"))
		values[address] = 0
		err = nil
	}

	copy(mem.cell, values)

	return
}

// String renders memory ten words to a row, with column and row headings.
func (mem *Memory) String() string {
	digits := max(2, len(strconv.Itoa(max(len(mem.cell)-1, 0))))
	column := mem.codec.Width + 1

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", digits))
	for col := range 10 {
		fmt.Fprintf(&header, " %-*s", column, fmt.Sprintf("%02d", col))
	}

	lines := []string{strings.TrimRight(header.String(), " ")}
	for base := 0; base < len(mem.cell); base += 10 {
		row := []string{fmt.Sprintf("%0*d", digits, base)}
		for address := base; address < min(base+10, len(mem.cell)); address++ {
			text, _ := mem.codec.Format(mem.cell[address])
			row = append(row, text)
		}
		lines = append(lines, strings.Join(row, " "))
	}

	return strings.Join(lines, "\n")
}
