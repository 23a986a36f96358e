package navigation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type frame = Frame[string, int]

func newStack(labels ...string) *Stack[string, int] {
	var s Stack[string, int]
	for i, l := range labels {
		s.Push(frame{Label: l, Restore: "restore:" + l, Leave: i})
	}
	return &s
}

func TestBack_SingleFrameIsNoop(t *testing.T) {
	s := newStack("archive.pst")

	left, _, ok := s.Back()
	if ok {
		t.Fatal("Back() ok = true with one frame, want false")
	}
	if len(left) != 0 {
		t.Errorf("left = %v, want none", left)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestBack_EmptyIsNoop(t *testing.T) {
	var s Stack[string, int]
	if _, _, ok := s.Back(); ok {
		t.Error("Back() on empty stack ok = true")
	}
	if _, ok := s.Top(); ok {
		t.Error("Top() on empty stack ok = true")
	}
}

func TestBack_PopsTopAndReturnsNewTop(t *testing.T) {
	s := newStack("root", "Inbox", "Hello")

	left, top, ok := s.Back()
	if !ok {
		t.Fatal("Back() ok = false")
	}
	if len(left) != 1 || left[0].Label != "Hello" {
		t.Errorf("left = %v, want [Hello]", left)
	}
	if top.Label != "Inbox" || top.Restore != "restore:Inbox" {
		t.Errorf("top = %+v, want Inbox", top)
	}
	if diff := cmp.Diff([]string{"root", "Inbox"}, s.Labels()); diff != "" {
		t.Errorf("Labels() mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncateTo_LeavesInPopOrder(t *testing.T) {
	s := newStack("root", "Inbox", "Hello", "Properties of message: Hello")

	left, top, ok := s.TruncateTo(0)
	if !ok {
		t.Fatal("TruncateTo(0) ok = false")
	}
	var got []string
	for _, f := range left {
		got = append(got, f.Label)
	}
	want := []string{"Properties of message: Hello", "Hello", "Inbox"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("left mismatch (-want +got):\n%s", diff)
	}
	if top.Label != "root" {
		t.Errorf("top = %q, want root", top.Label)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestTruncateTo_CurrentTop(t *testing.T) {
	s := newStack("root", "Inbox")

	left, top, ok := s.TruncateTo(1)
	if !ok {
		t.Fatal("TruncateTo(1) ok = false")
	}
	if len(left) != 0 {
		t.Errorf("left = %v, want none", left)
	}
	if top.Label != "Inbox" {
		t.Errorf("top = %q, want Inbox", top.Label)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestTruncateTo_OutOfRange(t *testing.T) {
	s := newStack("root", "Inbox")
	for _, i := range []int{-1, 2, 10} {
		if _, _, ok := s.TruncateTo(i); ok {
			t.Errorf("TruncateTo(%d) ok = true, want false", i)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d after invalid truncations, want 2", s.Len())
	}
}

func TestFramesIsACopy(t *testing.T) {
	s := newStack("root", "Inbox")
	frames := s.Frames()
	frames[0].Label = "mutated"
	if top, _ := s.At(0); top.Label != "root" {
		t.Errorf("At(0).Label = %q, want root", top.Label)
	}
}

func TestReset(t *testing.T) {
	s := newStack("root", "Inbox")
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", s.Len())
	}
}
