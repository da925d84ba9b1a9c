package channel

import (
	"fmt"
	"iter"
	"maps"
)

const (
	TEMP_DEFAULT_CAPACITY = 1024
)

// Temporary implements a circular buffer that captures sent values.
// It operates as a FIFO queue with a fixed capacity and separate read/write positions.
type Temporary struct {
	Capacity int // Capacity in values.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []int64
}

var _ Channel = (*Temporary)(nil)

// Defines returns an iter of defines for the channel.
func (temp *Temporary) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"TEMP_CAPACITY": fmt.Sprintf("%v", temp.capacity()),
	})
}

func (temp *Temporary) capacity() int {
	if temp.Capacity <= 0 {
		return TEMP_DEFAULT_CAPACITY
	}
	return temp.Capacity
}

// Rewind resets the temporary storage to empty, resetting indices and
// reinitializing the data buffer.
func (temp *Temporary) Rewind() {
	temp.ReadIndex = 0
	temp.WriteIndex = 0
	temp.Size = 0
	temp.Data = make([]int64, temp.capacity())
}

// Receive returns an iterator that drains values from the buffer until empty.
// The buffer wraps around at the capacity boundary.
func (temp *Temporary) Receive() iter.Seq[int64] {
	return func(yield func(value int64) bool) {
		for temp.Size > 0 {
			value := temp.Data[temp.ReadIndex]
			temp.ReadIndex++
			if temp.ReadIndex == len(temp.Data) {
				temp.ReadIndex = 0
			}
			temp.Size--
			if !yield(value) {
				return
			}
		}
	}
}

// Send writes a value to the buffer at the current write position.
// Returns ErrChannelFull if the buffer has reached capacity.
func (temp *Temporary) Send(value int64) (err error) {
	if temp.Data == nil {
		temp.Rewind()
	}

	if temp.Size >= len(temp.Data) {
		err = ErrChannelFull
		return
	}

	temp.Data[temp.WriteIndex] = value

	temp.WriteIndex++
	if temp.WriteIndex == len(temp.Data) {
		temp.WriteIndex = 0
	}
	temp.Size++

	return
}
