package lifecycle

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	ErrNotStarted   = errors.New(f("lifecycle not started"))
	ErrNoSnapshot   = errors.New(f("retry without a memory snapshot"))
	ErrReentrantDie = errors.New(f("death while dying"))
)
