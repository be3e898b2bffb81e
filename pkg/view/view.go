// Package view routes resolved artifacts to per-command output
// destinations. Entries are keyed by (group, command), created lazily on
// first use, and destroyed only when the owning application tears down;
// switching the selected command hides entries without discarding them,
// so background output keeps accumulating while hidden.
package view

import (
	"fmt"
	"strings"
	"sync"
)

// TextChunk is a plain text artifact eligible for coalescing. Channel
// builders produce it for line-oriented output so that a command
// printing hundreds of lines yields one accumulating block instead of
// hundreds of micro-artifacts.
type TextChunk string

// TextBlock is the accumulating block consecutive TextChunks coalesce
// into. It is mutable on purpose: displays hold a reference and see it
// grow.
type TextBlock struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a snapshot of the accumulated lines.
func (b *TextBlock) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *TextBlock) String() string {
	return strings.Join(b.Lines(), "\n")
}

func (b *TextBlock) add(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// RoutingError reports an emission with no resolvable destination. This
// is a programming error (a broken capture-scope invariant) and is
// surfaced loudly instead of being swallowed.
type RoutingError struct {
	Group   string
	Command string
}

func (e *RoutingError) Error() string {
	if e.Command == "" {
		return "view: emission with no resolvable destination"
	}
	return fmt.Sprintf("view: no destination for command %q (group %q)", e.Command, e.Group)
}

// Entry is one command's live output destination.
type Entry struct {
	Group string
	Name  string

	mu        sync.Mutex
	artifacts []any
	open      *TextBlock
	running   bool
	selected  bool
}

// Append adds an artifact. Consecutive TextChunks coalesce into one
// TextBlock until a non-text artifact or an explicit flush boundary.
func (e *Entry) Append(artifact any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if chunk, ok := artifact.(TextChunk); ok {
		if e.open == nil {
			e.open = &TextBlock{}
			e.artifacts = append(e.artifacts, e.open)
		}
		e.open.add(string(chunk))
		return
	}
	e.open = nil
	e.artifacts = append(e.artifacts, artifact)
}

// FlushText closes the open text block; the next TextChunk starts a new
// one.
func (e *Entry) FlushText() {
	e.mu.Lock()
	e.open = nil
	e.mu.Unlock()
}

// Artifacts returns a snapshot of the entry's artifacts in arrival
// order.
func (e *Entry) Artifacts() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]any, len(e.artifacts))
	copy(out, e.artifacts)
	return out
}

// Clear discards displayed output. It does not stop a running producer;
// new emissions keep appending.
func (e *Entry) Clear() {
	e.mu.Lock()
	e.artifacts = nil
	e.open = nil
	e.mu.Unlock()
}

// SetRunning flags an in-flight invocation; the display disables the run
// control while set.
func (e *Entry) SetRunning(v bool) {
	e.mu.Lock()
	e.running = v
	e.mu.Unlock()
}

// Running reports whether an invocation is in flight.
func (e *Entry) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Selected reports whether this entry is the visible one.
func (e *Entry) Selected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

func (e *Entry) setSelected(v bool) {
	e.mu.Lock()
	e.selected = v
	e.mu.Unlock()
}

type key struct {
	group string
	name  string
}

// Sink observes every routed artifact, after it is appended to its
// entry. Channels use it to refresh the display; the artifact is the
// raw routed value (a TextChunk, not the coalesced block).
type Sink func(e *Entry, artifact any)

// Registry maps (group, command) to live output destinations.
type Registry struct {
	mu       sync.Mutex
	entries  map[key]*Entry
	order    []key
	selected *Entry
	sink     Sink
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[key]*Entry)}
}

// SetSink installs the routing observer. One sink per registry; the
// hosting channel owns it.
func (r *Registry) SetSink(fn Sink) {
	r.mu.Lock()
	r.sink = fn
	r.mu.Unlock()
}

// GetOrCreate returns the entry for (group, name), creating it lazily.
func (r *Registry) GetOrCreate(group, name string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{group, name}
	if e, ok := r.entries[k]; ok {
		return e
	}
	e := &Entry{Group: group, Name: name}
	r.entries[k] = e
	r.order = append(r.order, k)
	return e
}

// Lookup returns the entry for (group, name) if it exists.
func (r *Registry) Lookup(group, name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key{group, name}]
	return e, ok
}

// Route appends an artifact to the destination for (group, name). An
// empty command name has no resolvable destination and returns a
// RoutingError.
func (r *Registry) Route(group, name string, artifact any) error {
	if name == "" {
		return &RoutingError{Group: group, Command: name}
	}
	e := r.GetOrCreate(group, name)
	e.Append(artifact)

	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()
	if sink != nil {
		sink(e, artifact)
	}
	return nil
}

// Select makes (group, name) the visible entry, hiding the previously
// selected one. Hidden entries are kept; their output continues to
// accumulate.
func (r *Registry) Select(group, name string) *Entry {
	e := r.GetOrCreate(group, name)
	r.mu.Lock()
	prev := r.selected
	r.selected = e
	r.mu.Unlock()
	if prev != nil && prev != e {
		prev.setSelected(false)
	}
	e.setSelected(true)
	return e
}

// Selected returns the visible entry, or nil when nothing is selected.
func (r *Registry) Selected() *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Entries returns all entries in creation order.
func (r *Registry) Entries() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}
