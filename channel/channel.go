// Package channel provides the debug output devices a bm machine writes
// `print_debug` values to.
package channel

import (
	"iter"
	"maps"
)

// Channel is a sink for values emitted by a running machine.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Send writes a single value to the channel.
	Send(value int64) error
	// Defines returns the assembler defines the channel exports.
	Defines() iter.Seq2[string, string]
}

func noDefines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}
