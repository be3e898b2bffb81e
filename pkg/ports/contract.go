// Package ports defines the contracts between the engine and its
// collaborators, following a hexagonal layout: the engine depends on
// these interfaces, adapters implement them.
package ports

// Surface is the display-surface collaborator. Only the goroutine that
// owns the display may mutate it; background producers hand mutations to
// Update, which marshals them onto that goroutine. This is a hard rule,
// not an optimization.
type Surface interface {
	// Update schedules a display mutation on the UI goroutine.
	Update(fn func())
	// Clipboard writes text to the system clipboard.
	Clipboard(text string) error
	// Alert shows a transient message overlay.
	Alert(msg string)
	// Confirm asks a yes/no question; done is called with the answer
	// on the UI goroutine.
	Confirm(msg string, done func(ok bool))
}

// InlineSurface is a Surface for channels whose output is already
// serialized (the line-oriented text channel) and for tests: Update runs
// the mutation inline, dialogs resolve immediately.
type InlineSurface struct {
	// ClipboardText records the last clipboard write.
	ClipboardText string
	// Alerts records alert messages.
	Alerts []string
	// ConfirmAnswer is handed to every Confirm callback.
	ConfirmAnswer bool
}

func (s *InlineSurface) Update(fn func()) { fn() }

func (s *InlineSurface) Clipboard(text string) error {
	s.ClipboardText = text
	return nil
}

func (s *InlineSurface) Alert(msg string) { s.Alerts = append(s.Alerts, msg) }

func (s *InlineSurface) Confirm(msg string, done func(bool)) { done(s.ConfirmAnswer) }
