package channel

import (
	"errors"

	"github.com/ezrec/bm/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull = errors.New(f("channel full"))
	ErrNoOutput    = errors.New(f("channel has no output"))
)
