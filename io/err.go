package io

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	ErrFifoFull = errors.New(f("fifo full"))
)
