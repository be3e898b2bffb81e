package render

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/capture"
	"github.com/aretw0/facet/pkg/state"
)

// fakeBuilder records artifacts as tagged strings so tests can assert on
// structure and order without a real channel.
type fakeBuilder struct{}

func (fakeBuilder) Markup(s string) (Artifact, error) { return "md:" + s, nil }
func (fakeBuilder) Plain(s string) (Artifact, error)  { return "txt:" + s, nil }

func (fb fakeBuilder) Block(ctx context.Context, r *Resolver, b block.Block) (Artifact, error) {
	switch x := b.(type) {
	case *block.Text:
		return "txt:" + x.Content, nil
	case *block.Markdown:
		return "md:" + x.Content, nil
	case *block.Group:
		arts, err := r.ResolveAll(ctx, x, x.Items)
		if err != nil {
			return nil, err
		}
		return fb.Group(arts), nil
	case *block.Error:
		return "err:" + x.Message, nil
	default:
		return fmt.Sprintf("block:%T", b), nil
	}
}

func (fakeBuilder) Group(items []Artifact) Artifact {
	return append([]Artifact{"group"}, items...)
}

func (fakeBuilder) Container(region int64) Container {
	return &fakeContainer{}
}

type fakeContainer struct {
	mu       sync.Mutex
	children []Artifact
	replaces int
}

func (c *fakeContainer) Artifact() Artifact { return c }

func (c *fakeContainer) Append(child Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = append(c.children, child)
}

func (c *fakeContainer) Replace(children []Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = children
	c.replaces++
}

func (c *fakeContainer) snapshot() []Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Artifact, len(c.children))
	copy(out, c.children)
	return out
}

func TestResolve_StringIsMarkup(t *testing.T) {
	r := New(fakeBuilder{})
	art, err := r.Resolve(context.Background(), nil, "# title")
	if err != nil {
		t.Fatal(err)
	}
	if art != "md:# title" {
		t.Fatalf("got %v", art)
	}
}

func TestResolve_NilIsEmptyText(t *testing.T) {
	r := New(fakeBuilder{})
	art, _ := r.Resolve(context.Background(), nil, nil)
	if art != "txt:" {
		t.Fatalf("got %v", art)
	}
}

func TestResolve_FallbackStringifies(t *testing.T) {
	r := New(fakeBuilder{})
	art, _ := r.Resolve(context.Background(), nil, 42)
	if art != "txt:42" {
		t.Fatalf("got %v", art)
	}
}

func TestResolve_BlockAttachesToParent(t *testing.T) {
	r := New(fakeBuilder{})
	parent := &block.Group{}
	child := &block.Text{Content: "x"}

	if _, err := r.Resolve(context.Background(), parent, child); err != nil {
		t.Fatal(err)
	}
	if child.Parent() != block.Block(parent) {
		t.Error("child not attached to parent")
	}
}

func TestResolve_BlockArtifactIsCached(t *testing.T) {
	r := New(fakeBuilder{})
	b := &block.Text{Content: "x"}
	a1, _ := r.Resolve(context.Background(), nil, b)
	a2, _ := r.Resolve(context.Background(), nil, b)
	if a1 != a2 {
		t.Error("expected cached artifact on second resolve")
	}
}

func TestResolve_ProducerCapturesEmissionsInOrder(t *testing.T) {
	r := New(fakeBuilder{})

	fn := func(ctx context.Context) any {
		capture.From(ctx).Append("one")
		capture.From(ctx).Append(&block.Text{Content: "two"})
		return "three" // return value is one more emission
	}

	art, err := r.Resolve(context.Background(), nil, block.Producer(fn))
	if err != nil {
		t.Fatal(err)
	}
	group, ok := art.([]Artifact)
	if !ok {
		t.Fatalf("expected group, got %T", art)
	}
	want := []Artifact{"group", "md:one", "txt:two", "md:three"}
	if len(group) != len(want) {
		t.Fatalf("got %v", group)
	}
	for i := range want {
		if group[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v", i, group)
		}
	}
}

func TestResolve_ProducerSingleArtifactUnwrapped(t *testing.T) {
	r := New(fakeBuilder{})
	fn := func(ctx context.Context) any { return "only" }

	art, _ := r.Resolve(context.Background(), nil, block.Producer(fn))
	if art != "md:only" {
		t.Fatalf("expected unwrapped artifact, got %v", art)
	}
}

func TestResolve_ProducerNoEmissionsYieldsEmpty(t *testing.T) {
	r := New(fakeBuilder{})
	art, _ := r.Resolve(context.Background(), nil, func(context.Context) any { return nil })
	if art != "txt:" {
		t.Fatalf("got %v", art)
	}
}

func TestResolve_BareFuncForms(t *testing.T) {
	r := New(fakeBuilder{})
	art, _ := r.Resolve(context.Background(), nil, func() any { return "v" })
	if art != "md:v" {
		t.Fatalf("func() any: got %v", art)
	}
}

func TestResolve_StreamerLiveAppends(t *testing.T) {
	r := New(fakeBuilder{})

	var scopeCtx context.Context
	fn := block.Streamer(func(ctx context.Context) {
		capture.From(ctx).Append("first")
		scopeCtx = ctx // producer keeps emitting after the first pass
	})

	art, err := r.Resolve(context.Background(), nil, fn)
	if err != nil {
		t.Fatal(err)
	}
	c := art.(*fakeContainer)
	if got := c.snapshot(); len(got) != 1 || got[0] != "md:first" {
		t.Fatalf("first pass: %v", got)
	}

	capture.From(scopeCtx).Append("later")
	if got := c.snapshot(); len(got) != 2 || got[1] != "md:later" {
		t.Fatalf("live append missing: %v", got)
	}
}

func TestResolve_DynamicRerendersOnStateChange(t *testing.T) {
	r := New(fakeBuilder{})
	counter := state.New(0)

	d := block.NewDynamic(func(ctx context.Context) any {
		return fmt.Sprintf("count=%d", counter.Value())
	}, counter)

	art, err := r.Resolve(context.Background(), nil, d)
	if err != nil {
		t.Fatal(err)
	}
	c := art.(*fakeContainer)
	if got := c.snapshot(); len(got) != 1 || got[0] != "md:count=0" {
		t.Fatalf("initial render: %v", got)
	}

	counter.Set(1)
	counter.Set(1) // no-op, no re-render
	counter.Set(2)

	if got := c.snapshot(); len(got) != 1 || got[0] != "md:count=2" {
		t.Fatalf("after sets: %v", got)
	}
	// Initial render + two effective sets.
	if c.replaces != 3 {
		t.Errorf("expected 3 renders, got %d", c.replaces)
	}
}

func TestResolve_DynamicRebindUnhooksSupersededContainer(t *testing.T) {
	r := New(fakeBuilder{})
	counter := state.New(0)

	d := block.NewDynamic(func(ctx context.Context) any {
		return fmt.Sprintf("count=%d", counter.Value())
	}, counter)

	a1, err := r.Resolve(context.Background(), nil, d)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := r.Resolve(context.Background(), nil, d)
	if err != nil {
		t.Fatal(err)
	}
	c1, c2 := a1.(*fakeContainer), a2.(*fakeContainer)

	counter.Set(1)

	if got := c2.snapshot(); len(got) != 1 || got[0] != "md:count=1" {
		t.Fatalf("current container after set: %v", got)
	}
	// Only the initial render touched the superseded container; the
	// state change must not reach it.
	if c1.replaces != 1 {
		t.Errorf("superseded container re-rendered %d times", c1.replaces-1)
	}
	if c2.replaces != 2 {
		t.Errorf("current container: expected 2 renders, got %d", c2.replaces)
	}
}

func TestResolve_OrderPreservedAcrossSequence(t *testing.T) {
	r := New(fakeBuilder{})
	items := []any{"a", &block.Text{Content: "b"}, 3}

	arts, err := r.ResolveAll(context.Background(), &block.Group{}, items)
	if err != nil {
		t.Fatal(err)
	}
	want := []Artifact{"md:a", "txt:b", "txt:3"}
	for i := range want {
		if arts[i] != want[i] {
			t.Fatalf("order mismatch: got %v", arts)
		}
	}
}
