package textchan

import (
	"io"
	"sync"

	"github.com/aretw0/facet/pkg/view"
)

// Writer streams routed artifacts to an io.Writer in arrival order, one
// displayed block per line group. It is the non-interactive text
// display: artifacts are printed once when routed, and later container
// mutations are left to interactive displays that re-read their
// entries.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a writer display over out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Attach installs this writer as the registry's sink.
func (w *Writer) Attach(views *view.Registry) {
	views.SetSink(func(e *view.Entry, artifact any) {
		w.mu.Lock()
		defer w.mu.Unlock()
		io.WriteString(w.out, Stringify(artifact))
		io.WriteString(w.out, "\n")
	})
}
