// Package state implements the observable value cell that dynamic regions
// bind to. A State owns a value and an ordered list of observers; Set
// notifies observers synchronously, in registration order, and only when
// the value actually changed.
package state

import (
	"log/slog"
	"reflect"
	"sync"
)

// Observer is invoked after the state's value has changed. It receives no
// arguments; read the new value through State.Value.
type Observer func()

// State is an observable container for a value of any type.
//
// Notification is synchronous: by the time Set returns, every observer has
// run. A Set issued from inside an observer (reentrant set) is queued and
// applied after the current notification pass finishes, so observers never
// recurse and always see a settled value.
type State struct {
	mu        sync.Mutex
	value     any
	observers []observerEntry
	nextID    int

	notifying bool
	pending   []any

	logger *slog.Logger
}

type observerEntry struct {
	id int
	fn Observer
}

// New creates a State holding the initial value.
func New(initial any) *State {
	return &State{value: initial}
}

// SetLogger directs observer failure reports to the given logger.
// Observer panics are isolated per observer and logged, never propagated
// to the Set caller.
func (s *State) SetLogger(l *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// Value returns the current value.
func (s *State) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set updates the value and notifies observers. Setting a value equal to
// the current one is a no-op and triggers no notification.
func (s *State) Set(v any) {
	s.mu.Lock()
	if s.notifying {
		// Reentrant set from an observer: defer until the current pass ends.
		s.pending = append(s.pending, v)
		s.mu.Unlock()
		return
	}
	if equal(s.value, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	s.notifying = true
	s.mu.Unlock()

	s.drain()
}

// drain runs notification passes until no reentrant sets remain.
func (s *State) drain() {
	for {
		s.mu.Lock()
		observers := make([]observerEntry, len(s.observers))
		copy(observers, s.observers)
		logger := s.logger
		s.mu.Unlock()

		for _, o := range observers {
			runObserver(o.fn, logger)
		}

		s.mu.Lock()
		if len(s.pending) == 0 {
			s.notifying = false
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		if equal(s.value, next) {
			if len(s.pending) == 0 {
				s.notifying = false
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			continue
		}
		s.value = next
		s.mu.Unlock()
	}
}

func runObserver(fn Observer, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("state observer panicked", "err", r)
			}
		}
	}()
	fn()
}

// AddObserver registers an observer and returns a handle for removal.
// Observers run in registration order.
func (s *State) AddObserver(fn Observer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers = append(s.observers, observerEntry{id: s.nextID, fn: fn})
	return s.nextID
}

// RemoveObserver unregisters the observer identified by the handle
// returned from AddObserver. Unknown handles are ignored.
func (s *State) RemoveObserver(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// equal compares values the way Set's change detection needs: comparable
// types by ==, everything else by deep equality.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
