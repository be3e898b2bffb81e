package view

import (
	"errors"
	"sync"
	"testing"
)

func TestEntry_CoalescesConsecutiveText(t *testing.T) {
	e := &Entry{Name: "cmd"}

	e.Append(TextChunk("line 1"))
	e.Append(TextChunk("line 2"))
	e.Append("widget") // non-text artifact closes the block
	e.Append(TextChunk("line 3"))

	arts := e.Artifacts()
	if len(arts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d: %v", len(arts), arts)
	}
	first := arts[0].(*TextBlock)
	if got := first.Lines(); len(got) != 2 || got[0] != "line 1" || got[1] != "line 2" {
		t.Fatalf("first block: %v", got)
	}
	if arts[1] != "widget" {
		t.Fatalf("middle artifact: %v", arts[1])
	}
	last := arts[2].(*TextBlock)
	if got := last.Lines(); len(got) != 1 || got[0] != "line 3" {
		t.Fatalf("last block: %v", got)
	}
}

func TestEntry_FlushTextIsBoundary(t *testing.T) {
	e := &Entry{Name: "cmd"}
	e.Append(TextChunk("a"))
	e.FlushText()
	e.Append(TextChunk("b"))

	arts := e.Artifacts()
	if len(arts) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(arts))
	}
}

func TestRegistry_LazyCreateAndReuse(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("", "greet")
	b := r.GetOrCreate("", "greet")
	if a != b {
		t.Error("expected same entry on second lookup")
	}
	if _, ok := r.Lookup("grp", "greet"); ok {
		t.Error("group should be part of the key")
	}
}

func TestRegistry_RouteWithoutDestinationIsLoud(t *testing.T) {
	r := NewRegistry()
	err := r.Route("", "", "x")
	var rerr *RoutingError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RoutingError, got %v", err)
	}
}

func TestRegistry_SelectHidesPreviousKeepsOutput(t *testing.T) {
	r := NewRegistry()
	a := r.Select("", "a")
	_ = r.Route("", "a", TextChunk("kept"))

	b := r.Select("", "b")

	if a.Selected() {
		t.Error("previous entry still selected")
	}
	if !b.Selected() {
		t.Error("new entry not selected")
	}
	// Hidden entry keeps accumulating.
	_ = r.Route("", "a", TextChunk("more"))
	if len(a.Artifacts()) != 1 {
		t.Fatal("hidden entry lost artifacts")
	}
	if got := a.Artifacts()[0].(*TextBlock).Lines(); len(got) != 2 {
		t.Fatalf("hidden entry did not accumulate: %v", got)
	}

	// Selecting back does not clear or duplicate.
	a2 := r.Select("", "a")
	if a2 != a {
		t.Fatal("reselect returned a different entry")
	}
	if len(a.Artifacts()) != 1 {
		t.Fatal("reselect changed artifacts")
	}
}

func TestRegistry_SinkSeesRawArtifacts(t *testing.T) {
	r := NewRegistry()
	var got []any
	r.SetSink(func(e *Entry, artifact any) { got = append(got, artifact) })

	_ = r.Route("", "c", TextChunk("l1"))
	_ = r.Route("", "c", "widget")

	if len(got) != 2 {
		t.Fatalf("sink called %d times", len(got))
	}
	if _, ok := got[0].(TextChunk); !ok {
		t.Error("sink should see the raw TextChunk, not the coalesced block")
	}
}

func TestEntry_ConcurrentAppendsGrowMonotonically(t *testing.T) {
	e := &Entry{Name: "bg"}
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.Append("w")
		}
	}()

	prev := 0
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			n := len(e.Artifacts())
			if n < prev {
				t.Error("artifact count shrank")
				return
			}
			prev = n
		}
	}()
	wg.Wait()
}
