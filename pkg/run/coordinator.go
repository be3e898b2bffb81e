// Package run orchestrates command invocations end-to-end: it installs
// the capture context, selects the execution mode, drives resolved
// output to the view registry, and converts failures into visible
// emissions. Routing and error handling are written once; the modes
// differ only in flush policy and in where the body runs.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/capture"
	"github.com/aretw0/facet/pkg/render"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/view"
)

// ExecutionError wraps an error raised inside a command body. It is
// reported as an error-styled emission and never propagates into the
// host event loop.
type ExecutionError struct {
	Command string
	Err     error
	Trace   string // formatted stack for panics, empty for returned errors
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Coordinator executes commands against one channel's resolver and the
// shared view registry.
type Coordinator struct {
	app      *spec.App
	views    *view.Registry
	resolver *render.Resolver
	logger   *slog.Logger
	metrics  *metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics registers the coordinator's counters on reg.
func WithMetrics(reg Registerer) Option {
	return func(c *Coordinator) { c.metrics.register(reg) }
}

// NewCoordinator creates a coordinator for the given app, registry, and
// channel resolver.
func NewCoordinator(app *spec.App, views *view.Registry, resolver *render.Resolver, opts ...Option) *Coordinator {
	c := &Coordinator{
		app:      app,
		views:    views,
		resolver: resolver,
		logger:   slog.New(slog.DiscardHandler),
		metrics:  newMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Views returns the shared registry.
func (c *Coordinator) Views() *view.Registry { return c.views }

// Resolver returns the channel resolver.
func (c *Coordinator) Resolver() *render.Resolver { return c.resolver }

// WithImmediateOutput installs the immediate-output fallback: an
// emission outside any capture scope routes to the executing command's
// entry when the context carries one, otherwise to the selected entry.
// This is the triple-priority destination lookup, in context form.
func (c *Coordinator) WithImmediateOutput(ctx context.Context) context.Context {
	return capture.WithFallback(ctx, func(item any) {
		entry := c.destination(ctx)
		if entry == nil {
			// No resolvable destination is a programming error; keep it loud.
			panic(&view.RoutingError{})
		}
		c.routeItem(ctx, entry, item, nil)
	})
}

func (c *Coordinator) destination(ctx context.Context) *view.Entry {
	if cmd := CommandFrom(ctx); cmd != nil {
		return c.views.GetOrCreate(cmd.Group, cmd.Name)
	}
	return c.views.Selected()
}

// Execute runs one command. Buffered and streaming commands complete
// before Execute returns; background commands return immediately with a
// still-running Invocation. Errors never escape: they surface as
// emissions on the command's own view.
func (c *Coordinator) Execute(ctx context.Context, cmd *spec.Command, raw map[string]any) *Invocation {
	inv := newInvocation(cmd)
	entry := c.views.GetOrCreate(cmd.Group, cmd.Name)

	inv.setStatus(StatusValidating)
	args, err := spec.Validate(cmd, raw)
	if err != nil {
		// Reported through the normal emission path; never reaches Running.
		c.routeItem(ctx, entry, &block.Error{Message: err.Error()}, inv)
		entry.FlushText()
		c.metrics.observeRun(cmd.Mode, "invalid")
		inv.finish(nil, err)
		return inv
	}

	switch cmd.Mode {
	case spec.ModeBackground:
		entry.SetRunning(true)
		// Daemonized relative to the dispatching call: the worker keeps
		// the routing context but not the caller's deadline, and nothing
		// cancels it. The run control is re-enabled by the worker, not
		// by the dispatch, which returns immediately.
		workerCtx := context.WithoutCancel(ctx)
		go func() {
			defer entry.SetRunning(false)
			c.runBody(workerCtx, inv, entry, args, true)
		}()
	case spec.ModeStreaming:
		entry.SetRunning(true)
		c.runBody(ctx, inv, entry, args, true)
		entry.SetRunning(false)
	default: // spec.ModeBuffered
		entry.SetRunning(true)
		c.runBody(ctx, inv, entry, args, false)
		entry.SetRunning(false)
	}
	return inv
}

// Include runs a command inline: emissions land in the caller's current
// capture scope instead of a fresh view, and a non-nil return value is
// emitted too. The caller's context must hold an active scope or
// fallback.
func (c *Coordinator) Include(ctx context.Context, cmd *spec.Command, raw map[string]any) (any, error) {
	args, err := spec.Validate(cmd, raw)
	if err != nil {
		return nil, err
	}
	result, err := c.invoke(ctx, cmd, args)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if stack := capture.From(ctx); stack != nil {
			stack.Append(result)
		}
	}
	return result, nil
}

// runBody executes the command body inside a fresh capture scope.
// streaming selects the flush policy: immediate per-emission routing, or
// a final batch after the body returns (with line-oriented text still
// streaming as produced).
func (c *Coordinator) runBody(ctx context.Context, inv *Invocation, entry *view.Entry, args spec.Args, streaming bool) {
	inv.setStatus(StatusRunning)
	c.logger.Debug("command started", "command", inv.Command.Name, "mode", inv.Command.Mode.String())

	cctx := WithCommand(ctx, inv.Command)
	scopeCtx, stack := capture.Enter(cctx)

	if streaming {
		stack.Observe(func(item any) {
			c.routeItem(scopeCtx, entry, item, inv)
		})
	} else {
		// Buffered mode still streams stdout-like text line by line;
		// everything else waits for the final batch.
		stack.Observe(func(item any) {
			if txt, ok := item.(*block.Text); ok {
				c.routeItem(scopeCtx, entry, txt, inv)
			}
		})
	}

	result, err := c.invoke(scopeCtx, inv.Command, args)

	if err == nil && result != nil {
		stack.Append(result) // observer handles it in streaming mode
	}

	if !streaming {
		for _, item := range stack.Items() {
			if _, ok := item.(*block.Text); ok {
				continue // already streamed
			}
			c.routeItem(scopeCtx, entry, item, inv)
		}
	}

	if err != nil {
		execErr := &ExecutionError{Command: inv.Command.Name, Err: err}
		if pe, ok := err.(*panicError); ok {
			execErr.Trace = pe.trace
		}
		c.routeItem(scopeCtx, entry, &block.Error{Message: execErr.Error(), Trace: execErr.Trace}, inv)
		entry.FlushText()
		c.metrics.observeRun(inv.Command.Mode, "failed")
		c.logger.Error("command failed", "command", inv.Command.Name, "err", err)
		inv.finish(nil, execErr)
		return
	}

	entry.FlushText()
	c.metrics.observeRun(inv.Command.Mode, "succeeded")
	c.logger.Debug("command finished", "command", inv.Command.Name)
	inv.finish(result, nil)
}

// panicError preserves the stack of a recovered panic.
type panicError struct {
	value any
	trace string
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

// invoke calls the command body, converting panics to errors so nothing
// escapes into the host event loop.
func (c *Coordinator) invoke(ctx context.Context, cmd *spec.Command, args spec.Args) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, trace: string(debug.Stack())}
		}
	}()
	if cmd.Run == nil {
		return nil, fmt.Errorf("command %q has no handler", cmd.Name)
	}
	return cmd.Run(ctx, args)
}

// routeItem resolves one emitted item and appends the artifact to the
// entry that owns the originating invocation.
func (c *Coordinator) routeItem(ctx context.Context, entry *view.Entry, item any, inv *Invocation) {
	art, err := c.resolver.Resolve(ctx, nil, item)
	if err != nil {
		c.logger.Error("emission failed to resolve", "command", entry.Name, "err", err)
		art = view.TextChunk(fmt.Sprintf("render error: %v", err))
	}
	if rerr := c.views.Route(entry.Group, entry.Name, art); rerr != nil {
		c.logger.Error("routing failed", "command", entry.Name, "err", rerr)
		return
	}
	c.metrics.observeEmission()
	if inv != nil {
		inv.appendText(itemText(item))
	}
}

// itemText renders an emitted item as transcript text for CapturedText.
func itemText(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case *block.Text:
		return v.Content
	case *block.Markdown:
		return v.Content
	case *block.Error:
		if v.Trace != "" {
			return v.Message + "\n" + v.Trace
		}
		return v.Message
	case *block.Group:
		return joinItems(v.Items)
	case *block.Row:
		return joinItems(v.Items)
	case *block.Table:
		var b strings.Builder
		b.WriteString(strings.Join(v.Columns, "\t"))
		for _, row := range v.Rows {
			b.WriteByte('\n')
			for i, cell := range row {
				if i > 0 {
					b.WriteByte('\t')
				}
				fmt.Fprint(&b, cell)
			}
		}
		return b.String()
	case block.Block:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func joinItems(items []any) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if s := itemText(it); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
