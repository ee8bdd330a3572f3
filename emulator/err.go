package emulator

import (
	"github.com/ezrec/basicml/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address int
	LineNo  int // Source line, or 0 when the program has no listing.
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("address %02d: %v", err.Address, err.Err)
	}
	return f("line %d (address %02d): %v", err.LineNo, err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
