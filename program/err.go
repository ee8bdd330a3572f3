package program

import (
	"github.com/ezrec/basicml/translate"
	"github.com/ezrec/basicml/word"
)

var f = translate.From

// ErrLegacy is a line of a legacy program that could not be converted.
type ErrLegacy struct {
	LineNo int
	Text   string
}

func (err ErrLegacy) Error() string {
	return f("line %d '%v' is not a legacy word, nulled", err.LineNo, err.Text)
}

func (err ErrLegacy) Unwrap() error {
	return word.ErrFormat
}
