package memory

import (
	"errors"

	"github.com/ezrec/wispsim/translate"
)

var f = translate.From

var (
	ErrSnapshotSize = errors.New(f("snapshot size mismatch"))
	ErrLoadRange    = errors.New(f("load outside of memory"))
)
