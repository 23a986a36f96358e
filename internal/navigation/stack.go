// Package navigation implements the back-navigation frame stack.
//
// A frame records how to rebuild a place (Restore) and how to clean up when
// leaving it (Leave) as plain values rather than closures, so frames can be
// inspected in tests and rendered as a breadcrumb menu. The stack never
// interprets them; the caller does, following a fixed protocol:
// run Leave for every frame being popped (top first), then run Restore for
// the frame that becomes the top.
package navigation

// Frame is one entry in the stack. R is the restore value (typically a
// command) and L the leave tag.
type Frame[R, L any] struct {
	Label   string
	Restore R
	Leave   L
}

// Stack is an ordered list of visited places. The zero value is empty and
// ready to use.
type Stack[R, L any] struct {
	frames []Frame[R, L]
}

// Push appends a frame.
func (s *Stack[R, L]) Push(f Frame[R, L]) {
	s.frames = append(s.frames, f)
}

// Len returns the number of frames.
func (s *Stack[R, L]) Len() int { return len(s.frames) }

// Top returns the last frame.
func (s *Stack[R, L]) Top() (Frame[R, L], bool) {
	if len(s.frames) == 0 {
		var zero Frame[R, L]
		return zero, false
	}
	return s.frames[len(s.frames)-1], true
}

// At returns the frame at index i.
func (s *Stack[R, L]) At(i int) (Frame[R, L], bool) {
	if i < 0 || i >= len(s.frames) {
		var zero Frame[R, L]
		return zero, false
	}
	return s.frames[i], true
}

// Labels returns the frame labels from bottom to top.
func (s *Stack[R, L]) Labels() []string {
	out := make([]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Label
	}
	return out
}

// Frames returns a copy of the frames from bottom to top.
func (s *Stack[R, L]) Frames() []Frame[R, L] {
	return append([]Frame[R, L](nil), s.frames...)
}

// CanGoBack reports whether Back would pop a frame. The bottom frame is
// never popped by back-navigation.
func (s *Stack[R, L]) CanGoBack() bool { return len(s.frames) >= 2 }

// Back pops the top frame. It returns the frames to leave (just the popped
// one) and the new top to restore. ok is false, and the stack unchanged,
// when fewer than two frames exist.
func (s *Stack[R, L]) Back() (left []Frame[R, L], top Frame[R, L], ok bool) {
	if !s.CanGoBack() {
		return nil, top, false
	}
	return s.TruncateTo(len(s.frames) - 2)
}

// TruncateTo pops every frame above index i. left holds the popped frames
// in pop order (top first) and top is frame i. Truncating to the current
// top pops nothing but still reports the top so the caller can re-assert it.
func (s *Stack[R, L]) TruncateTo(i int) (left []Frame[R, L], top Frame[R, L], ok bool) {
	if i < 0 || i >= len(s.frames) {
		return nil, top, false
	}
	for j := len(s.frames) - 1; j > i; j-- {
		left = append(left, s.frames[j])
	}
	s.frames = s.frames[:i+1]
	return left, s.frames[i], true
}

// Reset removes all frames.
func (s *Stack[R, L]) Reset() { s.frames = nil }
