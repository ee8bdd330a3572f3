package word

import (
	"errors"

	"github.com/ezrec/basicml/translate"
)

var f = translate.From

var (
	// Word errors
	ErrFormat = errors.New(f("word format"))
	ErrRange  = errors.New(f("word range"))
)

// ErrWord reports text that is not a word of the codec width.
type ErrWord struct {
	Text  string
	Width int
}

func (err ErrWord) Error() string {
	return f("'%v' is not a sign and %d digits", err.Text, err.Width)
}

func (err ErrWord) Unwrap() error {
	return ErrFormat
}

// ErrValue reports an integer that does not fit a word of the codec width.
type ErrValue struct {
	Value int
	Width int
}

func (err ErrValue) Error() string {
	return f("%d does not fit in %d digits", err.Value, err.Width)
}

func (err ErrValue) Unwrap() error {
	return ErrRange
}
