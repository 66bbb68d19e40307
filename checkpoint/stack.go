package checkpoint

const (
	STACK_LIMIT = 64 // Maximum call depth inside a checkpoint
)

// Frame is one call made while a checkpoint is in progress.
type Frame struct {
	Fake   bool  // Call forced by the voltage oracle.
	Cycles int64 // Cycle count at the call.
}

// Stack of calls inside the checkpoint function.
type Stack struct {
	Data []Frame
}

// Push a frame, returning false if the stack is full.
func (s *Stack) Push(frame Frame) (ok bool) {
	if s.Full() {
		return
	}
	s.Data = append(s.Data, frame)
	return true
}

func (s *Stack) Pop() (frame Frame, ok bool) {
	frame, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) == STACK_LIMIT
}

func (s *Stack) Depth() int {
	return len(s.Data)
}

func (s *Stack) Peek() (frame Frame, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
