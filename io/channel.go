// Package io provides the I/O channels behind the BasicML READ and WRITE
// instructions: a line oriented Tape over an io.Reader and io.Writer, and
// a scripted Queue.
package io

// Channel defines the interface for the machine's input and output device.
type Channel interface {
	// Input blocks until a word-range value is available.
	Input() (value int, err error)
	// Output emits a value. Output never fails; where the value goes is
	// the host's concern.
	Output(value int)
}
