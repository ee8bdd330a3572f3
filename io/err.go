package io

import (
	"errors"

	"github.com/ezrec/basicml/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelEmpty = errors.New(f("channel empty"))
)
