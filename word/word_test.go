package word

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert := assert.New(t)

	codec := Codec{Width: 4}

	table := [](struct {
		text  string
		value int
		error error
	}){
		{"+0000", 0, nil},
		{"-0000", 0, nil},
		{"+1234", 1234, nil},
		{"-5678", -5678, nil},
		{"+9999", 9999, nil},
		{"-9999", -9999, nil},
		{"1234", 0, ErrFormat},
		{"++1234", 0, ErrFormat},
		{"+123", 0, ErrFormat},
		{"+12345", 0, ErrFormat},
		{"+abcd", 0, ErrFormat},
		{"*1234", 0, ErrFormat},
		{"+12 4", 0, ErrFormat},
		{"", 0, ErrFormat},
	}

	for _, entry := range table {
		value, err := codec.Parse(entry.text)
		if entry.error != nil {
			assert.ErrorIs(err, entry.error, entry.text)
			continue
		}
		assert.NoError(err, entry.text)
		assert.Equal(entry.value, value, entry.text)
	}
}

func TestFormat(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		width int
		value int
		text  string
		error error
	}){
		{4, 0, "+0000", nil},
		{4, 1234, "+1234", nil},
		{4, -5678, "-5678", nil},
		{4, 24, "+0024", nil},
		{4, 9999, "+9999", nil},
		{4, 10000, "", ErrRange},
		{4, -10000, "", ErrRange},
		{6, 12034, "+012034", nil},
		{6, -1, "-000001", nil},
		{6, 1000000, "", ErrRange},
	}

	for _, entry := range table {
		codec := Codec{Width: entry.width}
		text, err := codec.Format(entry.value)
		if entry.error != nil {
			assert.ErrorIs(err, entry.error, entry.value)
			var verr ErrValue
			assert.ErrorAs(err, &verr)
			assert.Equal(entry.value, verr.Value)
			continue
		}
		assert.NoError(err, entry.value)
		assert.Equal(entry.text, text)
	}
}

func TestParseLoose(t *testing.T) {
	assert := assert.New(t)

	codec := Codec{Width: 4}

	value, err := codec.ParseLoose("+0042")
	assert.NoError(err)
	assert.Equal(42, value)

	value, err = codec.ParseLoose(" -17\n")
	assert.NoError(err)
	assert.Equal(-17, value)

	_, err = codec.ParseLoose("10000")
	assert.ErrorIs(err, ErrRange)

	_, err = codec.ParseLoose("abcd")
	assert.ErrorIs(err, ErrFormat)
}

func TestZeroMax(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("+0000", Codec{Width: 4}.Zero())
	assert.Equal("+000000", Codec{Width: 6}.Zero())
	assert.Equal(9999, Codec{Width: 4}.Max())
	assert.Equal(999999, Codec{Width: 6}.Max())
	assert.True(Codec{Width: 4}.Valid("+0001"))
	assert.False(Codec{Width: 4}.Valid("-0000"))
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	codec := Codec{Width: 4}
	for value := -codec.Max(); value <= codec.Max(); value++ {
		text, err := codec.Format(value)
		if !assert.NoError(err) {
			return
		}
		back, err := codec.Parse(text)
		assert.NoError(err)
		if back != value {
			assert.Equal(value, back, text)
			return
		}
	}
}

func FuzzCodec(f *testing.F) {
	f.Add(0, uint8(4))
	f.Add(-999999, uint8(6))
	f.Add(123456789, uint8(9))

	f.Fuzz(func(t *testing.T, value int, width uint8) {
		assert := assert.New(t)

		codec := Codec{Width: 1 + int(width%17)}

		text, err := codec.Format(value)
		if err != nil {
			assert.ErrorIs(err, ErrRange)
			assert.True(value > codec.Max() || value < -codec.Max())
			return
		}

		assert.Len(text, codec.Width+1)
		assert.True(codec.Valid(text))

		back, err := codec.Parse(text)
		assert.NoError(err)
		assert.Equal(value, back)
	})
}
