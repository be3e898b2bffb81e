// Package output is the single call command bodies use to present UI
// content. Emissions append to the capture stack carried by ctx; how
// they look is decided later, per channel, by the resolver.
package output

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"context"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/capture"
	"github.com/aretw0/facet/pkg/state"
	"github.com/aretw0/facet/pkg/view"
)

// Emit presents an item: a string (markdown), a block, a callable, or
// any value (stringified). It returns the item for chaining.
//
// Emit appends to the active capture stack. Outside any capture scope it
// uses the channel's immediate-output fallback; with neither available
// it panics with a RoutingError, because an emission with no destination
// is a broken capture-scope invariant, not a user error.
func Emit(ctx context.Context, item any) any {
	if stack := capture.From(ctx); stack != nil {
		stack.Append(item)
		return item
	}
	if fb := capture.FallbackFrom(ctx); fb != nil {
		fb(item)
		return item
	}
	panic(&view.RoutingError{})
}

// Print presents a value as plain text, without markdown rendering.
func Print(ctx context.Context, v any) *block.Text {
	b := block.NewText(v)
	Emit(ctx, b)
	return b
}

// Markdown presents explicit markdown content. Same as Emit with a
// string, but makes the intent visible at the call site.
func Markdown(ctx context.Context, s string) *block.Markdown {
	b := &block.Markdown{Content: s}
	Emit(ctx, b)
	return b
}

// Dynamic couples a renderer to states: on any state's change the
// rendered region is re-resolved and replaced in place. Pass the result
// to Emit.
func Dynamic(renderer block.Producer, states ...*state.State) *block.Dynamic {
	return block.NewDynamic(renderer, states...)
}

// LineWriter adapts stdout-style writes to plain-text emissions. Output
// is line-buffered: every completed line becomes one emission as it is
// produced. Close flushes a trailing partial line.
func LineWriter(ctx context.Context) io.WriteCloser {
	return &lineWriter{ctx: ctx}
}

type lineWriter struct {
	ctx context.Context
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered.
			w.buf.WriteString(line)
			break
		}
		Emit(w.ctx, block.NewText(line[:len(line)-1]))
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		Emit(w.ctx, block.NewText(w.buf.String()))
		w.buf.Reset()
	}
	return nil
}

// Printf formats to the line writer conventions: one emission per line.
func Printf(ctx context.Context, format string, args ...any) {
	Print(ctx, fmt.Sprintf(format, args...))
}
