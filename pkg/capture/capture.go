// Package capture implements the emission buffer that exists for the
// dynamic extent of one command execution. Emissions append to whichever
// Stack is active for the current execution scope; scopes nest and the
// previous stack is restored on every exit path.
//
// The active stack travels in a context.Context rather than a process
// global. All three execution modes (buffered, streaming, background
// goroutine) thread the same context into the command body, so an
// emission always lands in the stack of the invocation that produced
// it, even when the user has switched the visible command.
package capture

import (
	"context"
	"sync"
)

// AppendObserver is notified for each item appended to a Stack, as it
// happens. This is how streaming modes see emissions before the scope
// closes.
type AppendObserver func(item any)

// Stack is an ordered, appendable emission buffer with append observers.
// It is safe for concurrent use; order is the append order.
type Stack struct {
	mu        sync.Mutex
	items     []any
	observers []AppendObserver
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Append adds an item and notifies observers synchronously.
func (s *Stack) Append(item any) {
	s.mu.Lock()
	s.items = append(s.items, item)
	observers := make([]AppendObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(item)
	}
}

// Observe registers an append observer. Later appends, including those
// from background producers, are delivered as they occur.
func (s *Stack) Observe(fn AppendObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Items returns a snapshot of the buffered items in append order.
func (s *Stack) Items() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of buffered items.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type stackKey struct{}
type fallbackKey struct{}

// Fallback handles an emission made with no active stack. The hosting
// channel defines it: the text channel prints immediately, the widget
// channel routes to the selected view.
type Fallback func(item any)

// Enter activates a fresh stack in a derived context and returns it with
// the context. The previous active stack, if any, is untouched: it is
// simply what the caller's context still refers to, so unwinding the
// call (normally or via panic) restores it without bookkeeping.
func Enter(ctx context.Context) (context.Context, *Stack) {
	s := NewStack()
	return context.WithValue(ctx, stackKey{}, s), s
}

// From returns the active stack for the context, or nil when no capture
// scope is open.
func From(ctx context.Context) *Stack {
	s, _ := ctx.Value(stackKey{}).(*Stack)
	return s
}

// WithFallback installs the immediate-output fallback used when Emit is
// called outside any capture scope.
func WithFallback(ctx context.Context, fn Fallback) context.Context {
	return context.WithValue(ctx, fallbackKey{}, fn)
}

// FallbackFrom returns the installed fallback, or nil.
func FallbackFrom(ctx context.Context) Fallback {
	fn, _ := ctx.Value(fallbackKey{}).(Fallback)
	return fn
}
