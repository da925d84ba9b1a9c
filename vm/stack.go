package vm

const (
	STACK_CAPACITY = 1024 // Maximum stack depth
)

// Stack is the evaluation stack of the machine. The top is the last element
// of Data.
type Stack struct {
	Data []Word
}

func (s *Stack) Push(value Word) {
	s.Data = append(s.Data, value)
}

func (s *Stack) Pop() (value Word, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= STACK_CAPACITY
}

func (s *Stack) Depth() int {
	return len(s.Data)
}

func (s *Stack) Peek() (value Word, ok bool) {
	return s.At(0)
}

// At returns the value n positions below the top of the stack.
func (s *Stack) At(n int) (value Word, ok bool) {
	if n < 0 || n >= len(s.Data) {
		return
	}

	return s.Data[len(s.Data)-1-n], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
