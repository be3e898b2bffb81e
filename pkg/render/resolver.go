// Package render implements the channel context: the resolver that turns
// any emitted item into a channel-specific artifact.
//
// The five-case dispatch below is the single place where "what does
// emitting X mean" is decided. Channels differ only in the Builder they
// plug in, so the same command produces structurally consistent output
// on every channel.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/capture"
	"github.com/aretw0/facet/pkg/state"
)

// Artifact is the channel-specific renderable: a formatted text block
// for the text channel, a retained widget for the widget channel, a
// JSON-friendly map for the HTTP surface.
type Artifact = any

// Container is a live ordered group of artifacts. Streaming producers
// append to it after the first pass; dynamic regions replace its
// children in place on state changes. Implementations own any display
// refresh their channel needs.
type Container interface {
	Artifact() Artifact
	Append(child Artifact)
	Replace(children []Artifact)
}

// Builder supplies the channel-specific construction primitives the
// resolver drives.
type Builder interface {
	// Markup renders rich markup (markdown) text.
	Markup(s string) (Artifact, error)
	// Plain renders verbatim text.
	Plain(s string) (Artifact, error)
	// Block renders a concrete block. Composite blocks recurse through
	// the resolver for their items.
	Block(ctx context.Context, r *Resolver, b block.Block) (Artifact, error)
	// Group wraps already-resolved artifacts in an ordered container.
	Group(items []Artifact) Artifact
	// Container creates a live container keyed by a stable region
	// identity.
	Container(region int64) Container
}

// Resolver applies the shared resolution algorithm for one channel.
type Resolver struct {
	builder Builder
	logger  *slog.Logger

	mu       sync.Mutex
	cache    map[block.Block]Artifact
	bindings map[*block.Dynamic]*dynamicBinding
}

// dynamicBinding records the observer registrations of one resolved
// dynamic region so a later resolution of the same region can unbind
// them before the superseded container leaks re-renders.
type dynamicBinding struct {
	states []*state.State
	ids    []int
}

func (b *dynamicBinding) unbind() {
	for i, st := range b.states {
		st.RemoveObserver(b.ids[i])
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for reactive re-render failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a resolver for the given channel builder.
func New(b Builder, opts ...Option) *Resolver {
	r := &Resolver{
		builder:  b,
		logger:   slog.New(slog.DiscardHandler),
		cache:    make(map[block.Block]Artifact),
		bindings: make(map[*block.Dynamic]*dynamicBinding),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Builder returns the channel builder this resolver drives.
func (r *Resolver) Builder() Builder { return r.builder }

// Resolve turns one emitted item into an artifact, attaching resolved
// blocks under parent. Dispatch order, identical on every channel:
//
//  1. string           → markup artifact
//  2. block.Block      → attach, build, cache
//  3. block.Streamer   → fresh scope, container, live appends
//  4. callable         → fresh scope, return value is one more
//     emission, single artifact unwrapped
//  5. anything else    → stringified text artifact
func (r *Resolver) Resolve(ctx context.Context, parent block.Block, item any) (Artifact, error) {
	switch v := item.(type) {
	case nil:
		return r.builder.Plain("")

	case string:
		return r.builder.Markup(v)

	case block.Block:
		return r.resolveBlock(ctx, parent, v)

	case block.Streamer:
		return r.resolveStream(ctx, parent, v)

	case func(context.Context):
		return r.resolveStream(ctx, parent, block.Streamer(v))

	case block.Producer:
		return r.resolveProducer(ctx, parent, v)

	case func(context.Context) any:
		return r.resolveProducer(ctx, parent, block.Producer(v))

	case func() any:
		return r.resolveProducer(ctx, parent, func(context.Context) any { return v() })

	case func():
		return r.resolveProducer(ctx, parent, func(context.Context) any { v(); return nil })

	default:
		return r.builder.Plain(fmt.Sprint(v))
	}
}

// ResolveAll resolves a sequence in emission order.
func (r *Resolver) ResolveAll(ctx context.Context, parent block.Block, items []any) ([]Artifact, error) {
	out := make([]Artifact, 0, len(items))
	for _, item := range items {
		art, err := r.Resolve(ctx, parent, item)
		if err != nil {
			return out, err
		}
		out = append(out, art)
	}
	return out, nil
}

func (r *Resolver) resolveBlock(ctx context.Context, parent block.Block, b block.Block) (Artifact, error) {
	block.Adopt(parent, b)

	if d, ok := b.(*block.Dynamic); ok {
		return r.resolveDynamic(ctx, d)
	}

	r.mu.Lock()
	if art, ok := r.cache[b]; ok {
		r.mu.Unlock()
		return art, nil
	}
	r.mu.Unlock()

	art, err := r.builder.Block(ctx, r, b)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[b] = art
	r.mu.Unlock()
	return art, nil
}

// resolveStream runs a streaming producer once inside a fresh scope,
// resolves everything captured so far into a live container, then keeps
// the scope's observer alive so later emissions from the same logical
// producer append to the same container.
func (r *Resolver) resolveStream(ctx context.Context, parent block.Block, fn block.Streamer) (Artifact, error) {
	container := r.builder.Container(0)
	root := &block.Group{}
	block.Adopt(parent, root)

	scopeCtx, stack := capture.Enter(ctx)
	fn(scopeCtx)

	// Drain-by-index keeps emission order even when the producer keeps
	// appending from a goroutine while we resolve the first pass.
	var mu sync.Mutex
	next := 0
	drain := func(replace bool) {
		mu.Lock()
		defer mu.Unlock()
		items := stack.Items()
		var fresh []Artifact
		for ; next < len(items); next++ {
			art, rerr := r.Resolve(scopeCtx, root, items[next])
			if rerr != nil {
				r.logger.Error("stream emission failed to resolve", "err", rerr)
				continue
			}
			fresh = append(fresh, art)
		}
		if replace {
			container.Replace(fresh)
			return
		}
		for _, art := range fresh {
			container.Append(art)
		}
	}

	drain(true)
	stack.Observe(func(any) { drain(false) })
	drain(false) // catch appends racing the observer registration

	return container.Artifact(), nil
}

// resolveProducer runs a plain callable inside a fresh scope. A non-nil
// return value counts as one more emission. A single resulting artifact
// is returned unwrapped; several are wrapped in an ordered group.
func (r *Resolver) resolveProducer(ctx context.Context, parent block.Block, fn block.Producer) (Artifact, error) {
	scopeCtx, stack := capture.Enter(ctx)
	result := fn(scopeCtx)
	if result != nil {
		stack.Append(result)
	}

	root := &block.Group{}
	block.Adopt(parent, root)

	arts, err := r.ResolveAll(scopeCtx, root, stack.Items())
	if err != nil {
		return nil, err
	}
	switch len(arts) {
	case 0:
		return r.builder.Plain("")
	case 1:
		return arts[0], nil
	default:
		return r.builder.Group(arts), nil
	}
}

// resolveDynamic renders a dynamic region and binds its states so any
// change re-runs the renderer and replaces the region's children in
// place. Replacement is keyed by the region's stable identity, so
// unrelated output is untouched on every state tick.
func (r *Resolver) resolveDynamic(ctx context.Context, d *block.Dynamic) (Artifact, error) {
	container := r.builder.Container(d.Region())

	// Re-renders outlive the resolving call; detach from its deadline.
	renderCtx := context.WithoutCancel(ctx)

	render := func() error {
		scopeCtx, stack := capture.Enter(renderCtx)
		if d.Renderer != nil {
			if result := d.Renderer(scopeCtx); result != nil {
				stack.Append(result)
			}
		}
		arts, err := r.ResolveAll(scopeCtx, d, stack.Items())
		if err != nil {
			return err
		}
		container.Replace(arts)
		return nil
	}

	if err := render(); err != nil {
		return nil, err
	}

	binding := &dynamicBinding{states: d.States}
	for _, st := range d.States {
		id := st.AddObserver(func() {
			if err := render(); err != nil {
				r.logger.Error("dynamic region re-render failed",
					"region", d.Region(), "err", err)
			}
		})
		binding.ids = append(binding.ids, id)
	}

	// Resolving the same region again supersedes the previous container;
	// its observers must stop re-rendering it.
	r.mu.Lock()
	prev := r.bindings[d]
	r.bindings[d] = binding
	r.mu.Unlock()
	if prev != nil {
		prev.unbind()
	}

	return container.Artifact(), nil
}
