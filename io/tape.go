package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/basicml/word"
)

// Tape provides line oriented console I/O. Each Input reads one line,
// accepting either a canonical word ("+0042") or a plain integer ("42");
// invalid lines are reported to Prompt and re-read. Each Output writes the
// canonical word on its own line.
type Tape struct {
	Codec  word.Codec
	Reader io.Reader // Source of READ values.
	Writer io.Writer // Destination of WRITE values.
	Prompt io.Writer // If set, receives prompts and input complaints.
	Log    io.Writer // If set, also receives every output line.

	scanner *bufio.Scanner
	scanned io.Reader
}

var _ Channel = (*Tape)(nil)

// NewTape creates a tape channel over a reader and writer.
func NewTape(codec word.Codec, in io.Reader, out io.Writer) *Tape {
	return &Tape{
		Codec:  codec,
		Reader: in,
		Writer: out,
	}
}

func (tc *Tape) prompt(format string, args ...any) {
	if tc.Prompt != nil {
		fmt.Fprint(tc.Prompt, f(format, args...))
	}
}

// scan reads the next line from Reader.
func (tc *Tape) scan() (line string, err error) {
	if tc.Reader == nil {
		err = io.EOF
		return
	}

	// Keep buffered lines unless the reader was swapped.
	if tc.scanner == nil || tc.scanned != tc.Reader {
		tc.scanned = tc.Reader
		tc.scanner = bufio.NewScanner(tc.Reader)
	}

	if !tc.scanner.Scan() {
		err = tc.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		return
	}

	line = tc.scanner.Text()
	return
}

// ReadLine prompts for, and reads, one line with surrounding space trimmed.
func (tc *Tape) ReadLine(format string, args ...any) (line string, err error) {
	tc.prompt(format, args...)

	line, err = tc.scan()
	line = strings.TrimSpace(line)

	return
}

// ReadWords reads a program typed one canonical word per line, until a
// line holding only end (in any case) or the end of input. Invalid words
// are reported to Prompt and re-read.
func (tc *Tape) ReadWords(end string) (words []string, err error) {
	for {
		var line string
		line, err = tc.ReadLine("%02d ? ", len(words))
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		if strings.EqualFold(line, end) {
			return
		}

		_, perr := tc.Codec.Parse(line)
		if perr != nil {
			tc.prompt("Invalid word '%v': %v\n", line, perr)
			continue
		}

		words = append(words, line)
	}
}

// Input reads lines until one holds a value in word range.
func (tc *Tape) Input() (value int, err error) {
	for {
		tc.prompt("Enter a %d-digit signed word: ", tc.Codec.Width)

		var line string
		line, err = tc.scan()
		if err != nil {
			return
		}

		value, err = tc.Codec.ParseLoose(line)
		if err == nil {
			return
		}

		tc.prompt("Invalid input '%v': %v\n", line, err)
	}
}

// Output writes a value as a canonical word.
func (tc *Tape) Output(value int) {
	text, err := tc.Codec.Format(value)
	if err != nil {
		text = fmt.Sprint(value)
	}

	if tc.Writer != nil {
		fmt.Fprintln(tc.Writer, text)
	}
	if tc.Log != nil {
		fmt.Fprintln(tc.Log, text)
	}
}
