package channel

import (
	"fmt"
	"io"
	"iter"
)

// Tape writes each value it is sent as a decimal line to Output.
type Tape struct {
	Output io.Writer

	Written int // Values written since the last rewind.
}

var _ Channel = (*Tape)(nil)

// Defines returns an iter of defines for the channel.
func (tc *Tape) Defines() iter.Seq2[string, string] {
	return noDefines()
}

// Rewind is not possible on a tape; only the counter is reset.
func (tc *Tape) Rewind() {
	tc.Written = 0
}

// Send writes the value to the output stream.
func (tc *Tape) Send(value int64) (err error) {
	if tc.Output == nil {
		err = ErrNoOutput
		return
	}

	_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	if err != nil {
		return
	}

	tc.Written++

	return
}
