package run

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/facet/pkg/spec"
)

// Status is the lifecycle of one invocation:
// Idle → Validating → Running → {Succeeded, Failed} → Idle.
// Validation failures never reach Running.
type Status int

const (
	StatusIdle Status = iota
	StatusValidating
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Invocation tracks one command execution. For background commands the
// dispatching call returns immediately; Wait blocks until the worker
// finishes.
type Invocation struct {
	Command *spec.Command

	mu       sync.Mutex
	status   Status
	result   any
	err      error
	captured strings.Builder

	done chan struct{}
}

func newInvocation(cmd *spec.Command) *Invocation {
	return &Invocation{Command: cmd, done: make(chan struct{})}
}

// Status returns the current lifecycle state.
func (inv *Invocation) Status() Status {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.status
}

// Result returns the command body's return value after completion.
func (inv *Invocation) Result() any {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.result
}

// Err returns the validation or execution error, if any.
func (inv *Invocation) Err() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.err
}

// CapturedText returns the plain-text transcript of the run so far.
func (inv *Invocation) CapturedText() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.captured.String()
}

// Wait blocks until the invocation reaches a terminal state or ctx is
// done.
func (inv *Invocation) Wait(ctx context.Context) error {
	select {
	case <-inv.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the invocation terminates.
func (inv *Invocation) Done() <-chan struct{} { return inv.done }

func (inv *Invocation) setStatus(s Status) {
	inv.mu.Lock()
	inv.status = s
	inv.mu.Unlock()
}

func (inv *Invocation) appendText(s string) {
	if s == "" {
		return
	}
	inv.mu.Lock()
	if inv.captured.Len() > 0 {
		inv.captured.WriteByte('\n')
	}
	inv.captured.WriteString(s)
	inv.mu.Unlock()
}

func (inv *Invocation) finish(result any, err error) {
	inv.mu.Lock()
	inv.result = result
	inv.err = err
	if err != nil {
		inv.status = StatusFailed
	} else {
		inv.status = StatusSucceeded
	}
	inv.mu.Unlock()
	close(inv.done)
}

type commandKey struct{}

// WithCommand stamps ctx with the executing command. The token survives
// suspension and goroutine hops because every execution mode threads
// this context into the command body.
func WithCommand(ctx context.Context, cmd *spec.Command) context.Context {
	return context.WithValue(ctx, commandKey{}, cmd)
}

// CommandFrom resolves the executing command for ctx, or nil.
func CommandFrom(ctx context.Context) *spec.Command {
	cmd, _ := ctx.Value(commandKey{}).(*spec.Command)
	return cmd
}
