package tui

import (
	"sync"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Messages exchanged with the program loop.
type (
	// applyMsg carries a display mutation to run on the UI goroutine.
	applyMsg struct{ fn func() }
	// refreshMsg asks the model to re-render the visible output.
	refreshMsg struct{}
	// alertMsg shows a transient status message.
	alertMsg struct{ text string }
	// confirmMsg asks the user a yes/no question.
	confirmMsg struct {
		text string
		done func(bool)
	}
	// invDoneMsg reports a finished invocation.
	invDoneMsg struct {
		group string
		name  string
		err   error
	}
)

type sender interface {
	Send(tea.Msg)
}

// Surface marshals display mutations onto the bubbletea event loop via
// Program.Send. Before the program is attached, mutations run inline;
// nothing is displaying them yet.
type Surface struct {
	mu sync.Mutex
	p  sender
}

// NewSurface creates an unattached surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Attach binds the surface to the running program.
func (s *Surface) Attach(p sender) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *Surface) target() sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

func (s *Surface) Update(fn func()) {
	if p := s.target(); p != nil {
		p.Send(applyMsg{fn: fn})
		return
	}
	fn()
}

func (s *Surface) Clipboard(text string) error {
	return clipboard.WriteAll(text)
}

func (s *Surface) Alert(msg string) {
	if p := s.target(); p != nil {
		p.Send(alertMsg{text: msg})
	}
}

func (s *Surface) Confirm(msg string, done func(bool)) {
	if p := s.target(); p != nil {
		p.Send(confirmMsg{text: msg, done: done})
		return
	}
	done(false)
}

// Refresh schedules an output re-render.
func (s *Surface) Refresh() {
	if p := s.target(); p != nil {
		p.Send(refreshMsg{})
	}
}
