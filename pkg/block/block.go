// Package block defines the structural unit of captured UI content: a
// small polymorphic tree element. Blocks are channel-neutral; the render
// package resolves them into channel-specific artifacts.
package block

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aretw0/facet/pkg/state"
)

// Block is a tree element of captured UI content.
//
// The parent link is a non-owning back-reference set at most once, the
// first time the block is attached during resolution. Ownership flows
// strictly from container to children.
type Block interface {
	Parent() Block
	Children() []Block
	Attach(parent Block)
}

// Base provides hierarchy bookkeeping for concrete blocks. Embed it.
type Base struct {
	mu       sync.Mutex
	parent   Block
	children []Block
}

// Parent returns the block this one was attached to, or nil.
func (b *Base) Parent() Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// Children returns the blocks attached under this one, in attach order.
func (b *Base) Children() []Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Block, len(b.children))
	copy(out, b.children)
	return out
}

// Attach records the parent link. The link is set once; attaching an
// already-attached block is ignored.
func (b *Base) Attach(parent Block) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.parent == nil {
		b.parent = parent
	}
}

// adopt appends a child under this base. Called by the resolver.
func (b *Base) adopt(child Block) {
	b.mu.Lock()
	b.children = append(b.children, child)
	b.mu.Unlock()
}

// Adopt attaches child to parent and records it as a child when the
// parent embeds Base.
func Adopt(parent, child Block) {
	if parent == nil || child == nil {
		return
	}
	child.Attach(parent)
	type adopter interface{ adopt(Block) }
	if a, ok := parent.(adopter); ok {
		a.adopt(child)
	}
}

// Text is plain, unstyled text. Rendered verbatim on both channels.
type Text struct {
	Base
	Content string
}

// NewText builds a plain text block from any value.
func NewText(v any) *Text {
	if v == nil {
		return &Text{}
	}
	if s, ok := v.(string); ok {
		return &Text{Content: s}
	}
	return &Text{Content: fmt.Sprint(v)}
}

// Markdown is rich markup text. Strings emitted directly are treated as
// markdown; use Text for verbatim output.
type Markdown struct {
	Base
	Content string
}

// Group lays out items vertically, in order. Items may be any emittable
// value; they are coerced during resolution.
type Group struct {
	Base
	Items []any
}

// Row lays out items horizontally.
type Row struct {
	Base
	Items []any
}

// Table is tabular data with a header row.
type Table struct {
	Base
	Columns []string
	Rows    [][]any
}

// Error is an error-styled emission: a message plus an optional
// formatted stack trace. The coordinator produces these for command
// failures; applications may emit them directly.
type Error struct {
	Base
	Message string
	Trace   string
}

// Producer is a callable emitted as content. The resolver runs it inside
// a fresh capture scope, treats a non-nil return as one more emission,
// and resolves the captured sequence.
type Producer func(ctx context.Context) any

// Streamer is a callable that keeps emitting after its first pass
// (long-running or streaming work). The resolver keeps the capture
// scope's observer alive so later emissions append to the same
// container.
type Streamer func(ctx context.Context)

var regionSeq atomic.Int64

// Dynamic couples a renderer to one or more states. When any bound state
// changes, the engine re-invokes the renderer and replaces the
// previously rendered subtree in place, keyed by the region's stable
// identity.
type Dynamic struct {
	Base
	Renderer Producer
	States   []*state.State

	region int64
}

// NewDynamic builds a dynamic region bound to the given states.
func NewDynamic(renderer Producer, states ...*state.State) *Dynamic {
	return &Dynamic{
		Renderer: renderer,
		States:   states,
		region:   regionSeq.Add(1),
	}
}

// Region returns the stable identity of this dynamic region. Replacement
// on re-render is keyed by this identity, not by value identity.
func (d *Dynamic) Region() int64 { return d.region }

// Coerce converts an emitted value to a Block. It is total and
// deterministic:
//
//	nil        → empty Text
//	string     → Markdown
//	Block      → identity
//	other      → Text of its string form
//
// Callables (Producer, Streamer) are not coerced here; the resolver must
// resolve their captured emissions first. Coerce applied to one falls
// through to the string-form case.
func Coerce(v any) Block {
	switch x := v.(type) {
	case nil:
		return &Text{}
	case Block:
		return x
	case string:
		return &Markdown{Content: x}
	default:
		return NewText(x)
	}
}
