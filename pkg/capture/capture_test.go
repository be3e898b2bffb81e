package capture

import (
	"context"
	"testing"
)

func TestStack_AppendPreservesOrder(t *testing.T) {
	s := NewStack()
	s.Append("a")
	s.Append("b")
	s.Append("c")

	items := s.Items()
	if len(items) != 3 || items[0] != "a" || items[1] != "b" || items[2] != "c" {
		t.Fatalf("expected [a b c], got %v", items)
	}
}

func TestStack_ObserverSeesLaterAppends(t *testing.T) {
	s := NewStack()
	s.Append("before")

	var seen []any
	s.Observe(func(item any) { seen = append(seen, item) })

	s.Append("after1")
	s.Append("after2")

	if len(seen) != 2 || seen[0] != "after1" || seen[1] != "after2" {
		t.Fatalf("observer saw %v", seen)
	}
}

func TestEnter_NestingRestoresOuterScope(t *testing.T) {
	root := context.Background()

	ctxA, stackA := Enter(root)
	ctxB, stackB := Enter(ctxA)

	if From(ctxB) != stackB {
		t.Fatal("inner context does not resolve inner stack")
	}

	// Exiting B is just no longer using ctxB; A must still be active.
	if From(ctxA) != stackA {
		t.Fatal("outer stack lost after inner scope")
	}
	if From(root) != nil {
		t.Fatal("root context should have no active stack")
	}
}

func TestEnter_PanicInsideInnerScopeLeavesOuterIntact(t *testing.T) {
	ctxA, stackA := Enter(context.Background())

	func() {
		defer func() { recover() }()
		ctxB, stackB := Enter(ctxA)
		stackB.Append("inner")
		_ = ctxB
		panic("boom")
	}()

	stackA.Append("outer")
	items := stackA.Items()
	if len(items) != 1 || items[0] != "outer" {
		t.Fatalf("outer stack corrupted: %v", items)
	}
	if From(ctxA) != stackA {
		t.Fatal("outer scope not active after inner panic")
	}
}

func TestFallback_RoundTrip(t *testing.T) {
	var got any
	ctx := WithFallback(context.Background(), func(item any) { got = item })

	fn := FallbackFrom(ctx)
	if fn == nil {
		t.Fatal("fallback not found in context")
	}
	fn("x")
	if got != "x" {
		t.Fatalf("fallback received %v", got)
	}
}

func TestStack_ConcurrentAppends(t *testing.T) {
	s := NewStack()
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				s.Append(j)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	if s.Len() != 400 {
		t.Fatalf("expected 400 items, got %d", s.Len())
	}
}
