package state

import (
	"io"
	"log/slog"
	"testing"
)

func TestState_SetNotifiesInOrder(t *testing.T) {
	s := New(0)

	var order []string
	s.AddObserver(func() { order = append(order, "first") })
	s.AddObserver(func() { order = append(order, "second") })

	s.Set(1)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected observers in registration order, got %v", order)
	}
	if got := s.Value(); got != 1 {
		t.Errorf("expected value 1, got %v", got)
	}
}

func TestState_SetSameValueIsNoOp(t *testing.T) {
	s := New(0)

	calls := 0
	s.AddObserver(func() { calls++ })

	s.Set(1)
	s.Set(1) // no change, no notification
	s.Set(2)

	if calls != 2 {
		t.Errorf("expected 2 notifications, got %d", calls)
	}
}

func TestState_SetIsSynchronous(t *testing.T) {
	s := New("a")

	seen := ""
	s.AddObserver(func() { seen = s.Value().(string) })

	s.Set("b")

	// By the time Set returns, all observers have finished.
	if seen != "b" {
		t.Errorf("observer did not run before Set returned, saw %q", seen)
	}
}

func TestState_RemoveObserver(t *testing.T) {
	s := New(0)

	calls := 0
	id := s.AddObserver(func() { calls++ })
	s.RemoveObserver(id)

	s.Set(1)

	if calls != 0 {
		t.Errorf("removed observer was still notified %d times", calls)
	}
}

func TestState_ReentrantSetQueuesAndDrains(t *testing.T) {
	s := New(0)

	var seen []int
	s.AddObserver(func() {
		v := s.Value().(int)
		seen = append(seen, v)
		if v == 1 {
			// Reentrant set: must not recurse, must apply after this pass.
			s.Set(2)
		}
	})

	s.Set(1)

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("expected settled passes [1 2], got %v", seen)
	}
	if got := s.Value(); got != 2 {
		t.Errorf("expected final value 2, got %v", got)
	}
}

func TestState_ObserverPanicIsIsolated(t *testing.T) {
	s := New(0)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	secondRan := false
	s.AddObserver(func() { panic("boom") })
	s.AddObserver(func() { secondRan = true })

	s.Set(1) // must not panic

	if !secondRan {
		t.Error("observer after the panicking one did not run")
	}
}

func TestState_DeepEqualityForUncomparable(t *testing.T) {
	s := New([]int{1, 2})

	calls := 0
	s.AddObserver(func() { calls++ })

	s.Set([]int{1, 2}) // deep-equal, no-op
	s.Set([]int{1, 3})

	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
}
