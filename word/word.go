// Package word converts between the signed fixed-width decimal text of a
// BasicML word and its integer value.
//
// A word is a '+' or '-' followed by exactly Width decimal digits, so a
// Width of 4 spans -9999 to +9999. Zero is always written with a '+'.
package word

import (
	"strconv"
	"strings"
)

// Codec converts words of a single width.
type Codec struct {
	Width int // Number of decimal digits after the sign.
}

// Pow10 returns 10**n for small non-negative n.
func Pow10(n int) (value int) {
	value = 1
	for range n {
		value *= 10
	}
	return
}

// Max returns the largest magnitude a word can hold.
func (codec Codec) Max() int {
	return Pow10(codec.Width) - 1
}

// Zero returns the canonical cleared word, ie "+0000".
func (codec Codec) Zero() string {
	return "+" + strings.Repeat("0", codec.Width)
}

// Check verifies a value fits in a word.
func (codec Codec) Check(value int) (err error) {
	max := codec.Max()
	if value > max || value < -max {
		err = ErrValue{Value: value, Width: codec.Width}
	}
	return
}

// Parse converts the canonical text of a word to its value.
func (codec Codec) Parse(text string) (value int, err error) {
	if len(text) != codec.Width+1 {
		err = ErrWord{Text: text, Width: codec.Width}
		return
	}

	sign := text[0]
	if sign != '+' && sign != '-' {
		err = ErrWord{Text: text, Width: codec.Width}
		return
	}

	for _, c := range text[1:] {
		if c < '0' || c > '9' {
			err = ErrWord{Text: text, Width: codec.Width}
			return
		}
		value = value*10 + int(c-'0')
	}

	if sign == '-' {
		value = -value
	}

	return
}

// ParseLoose accepts either a canonical word or a plain decimal integer
// within word range, as typed by a user at a prompt.
func (codec Codec) ParseLoose(text string) (value int, err error) {
	text = strings.TrimSpace(text)

	value, err = codec.Parse(text)
	if err == nil {
		return
	}

	v64, perr := strconv.ParseInt(text, 10, 64)
	if perr != nil {
		return
	}

	value = int(v64)
	err = codec.Check(value)

	return
}

// Format converts a value to its canonical word text.
func (codec Codec) Format(value int) (text string, err error) {
	err = codec.Check(value)
	if err != nil {
		return
	}

	sign := byte('+')
	if value < 0 {
		sign = '-'
		value = -value
	}

	digits := strconv.Itoa(value)

	var sb strings.Builder
	sb.Grow(codec.Width + 1)
	sb.WriteByte(sign)
	sb.WriteString(strings.Repeat("0", codec.Width-len(digits)))
	sb.WriteString(digits)

	text = sb.String()

	return
}

// Valid reports whether text is a canonical word.
func (codec Codec) Valid(text string) bool {
	value, err := codec.Parse(text)
	if err != nil {
		return false
	}
	canon, _ := codec.Format(value)
	return canon == text
}
