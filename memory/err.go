package memory

import (
	"errors"

	"github.com/ezrec/basicml/translate"
)

var f = translate.From

var (
	// Memory errors
	ErrAddressRange      = errors.New(f("address out of range"))
	ErrProgramTooLarge   = errors.New(f("program too large for memory"))
	ErrLoadPolicyUnknown = errors.New(f("load policy unknown"))
)

// ErrAddress reports an access outside of memory.
type ErrAddress struct {
	Address int
	Size    int
}

func (err ErrAddress) Error() string {
	return f("memory address %d out of bounds, valid range 0-%d", err.Address, err.Size-1)
}

func (err ErrAddress) Unwrap() error {
	return ErrAddressRange
}

// ErrLoad locates a malformed word in a strictly loaded program.
type ErrLoad struct {
	Address int
	Text    string
	Err     error
}

func (err ErrLoad) Error() string {
	return f("address %d '%v' %v", err.Address, err.Text, err.Err)
}

func (err ErrLoad) Unwrap() error {
	return err.Err
}
