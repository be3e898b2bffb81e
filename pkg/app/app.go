// Package app is the embedding facade: it assembles the capture engine,
// one channel resolver, and the view registry behind a small API, and
// hands out per-command handles for selection, execution, and output
// inspection.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/facet/pkg/ports"
	"github.com/aretw0/facet/pkg/render"
	"github.com/aretw0/facet/pkg/render/textchan"
	"github.com/aretw0/facet/pkg/run"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/state"
	"github.com/aretw0/facet/pkg/view"
)

// App hosts one application spec on one channel.
type App struct {
	spec    *spec.App
	views   *view.Registry
	coord   *run.Coordinator
	surface ports.Surface
	logger  *slog.Logger
}

// Option configures an App.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	surface ports.Surface
	builder render.Builder
	metrics prometheusRegisterer
}

type prometheusRegisterer = run.Registerer

// WithLogger sets the structured logger shared by the engine components.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithSurface sets the display surface. Defaults to an inline surface,
// which suits serialized displays and tests.
func WithSurface(s ports.Surface) Option {
	return func(c *config) { c.surface = s }
}

// WithBuilder selects the channel builder. Defaults to the text channel.
func WithBuilder(b render.Builder) Option {
	return func(c *config) { c.builder = b }
}

// WithMetrics registers the engine's counters on reg.
func WithMetrics(reg prometheusRegisterer) Option {
	return func(c *config) { c.metrics = reg }
}

// New assembles an application host for sp.
func New(sp *spec.App, opts ...Option) (*App, error) {
	cfg := &config{
		logger:  slog.New(slog.DiscardHandler),
		surface: &ports.InlineSurface{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.builder == nil {
		b, err := textchan.New()
		if err != nil {
			return nil, err
		}
		cfg.builder = b
	}

	views := view.NewRegistry()
	resolver := render.New(cfg.builder, render.WithLogger(cfg.logger))
	coordOpts := []run.Option{run.WithLogger(cfg.logger)}
	if cfg.metrics != nil {
		coordOpts = append(coordOpts, run.WithMetrics(cfg.metrics))
	}

	return &App{
		spec:    sp,
		views:   views,
		coord:   run.NewCoordinator(sp, views, resolver, coordOpts...),
		surface: cfg.surface,
		logger:  cfg.logger,
	}, nil
}

// Spec returns the hosted application spec.
func (a *App) Spec() *spec.App { return a.spec }

// Views returns the shared view registry.
func (a *App) Views() *view.Registry { return a.views }

// Coordinator returns the execution coordinator.
func (a *App) Coordinator() *run.Coordinator { return a.coord }

// Surface returns the display surface.
func (a *App) Surface() ports.Surface { return a.surface }

// Context installs the immediate-output fallback so emissions outside
// any command body still find a destination.
func (a *App) Context(ctx context.Context) context.Context {
	return a.coord.WithImmediateOutput(ctx)
}

// State creates an observable value for dynamic regions.
func (a *App) State(initial any) *state.State {
	return state.New(initial)
}

// Clipboard writes text to the system clipboard through the surface.
func (a *App) Clipboard(text string) error {
	return a.surface.Clipboard(text)
}

// Command returns a handle for the ungrouped command with the given
// name.
func (a *App) Command(name string) (*Handle, error) {
	return a.CommandIn("", name)
}

// CommandIn returns a handle for a command inside a group.
func (a *App) CommandIn(group, name string) (*Handle, error) {
	cmd, ok := a.spec.Command(group, name)
	if !ok {
		return nil, fmt.Errorf("app: unknown command %q (group %q)", name, group)
	}
	return &Handle{app: a, cmd: cmd}, nil
}

// MustCommand is Command for wiring code where the name is a literal.
func (a *App) MustCommand(name string) *Handle {
	h, err := a.Command(name)
	if err != nil {
		panic(err)
	}
	return h
}

// Handle operates on one command: selection, execution, and its live
// output entry.
type Handle struct {
	app *App
	cmd *spec.Command
}

// Spec returns the command spec.
func (h *Handle) Spec() *spec.Command { return h.cmd }

// Entry returns the command's output destination, creating it lazily.
func (h *Handle) Entry() *view.Entry {
	return h.app.views.GetOrCreate(h.cmd.Group, h.cmd.Name)
}

// Select makes this command the visible one. Auto-run commands with no
// required parameters start immediately unless already running.
func (h *Handle) Select(ctx context.Context) *Handle {
	entry := h.app.views.Select(h.cmd.Group, h.cmd.Name)
	if h.cmd.Display.AutoRun && !entry.Running() {
		h.Run(ctx, nil)
	}
	return h
}

// Run executes the command with raw argument values. For background
// commands the returned invocation is still in flight; use Wait.
func (h *Handle) Run(ctx context.Context, raw map[string]any) *run.Invocation {
	return h.app.coord.Execute(ctx, h.cmd, raw)
}

// Include runs the command inline in the caller's capture scope.
func (h *Handle) Include(ctx context.Context, raw map[string]any) (any, error) {
	return h.app.coord.Include(ctx, h.cmd, raw)
}

// Clear discards the command's displayed output. Auto-run commands
// re-run immediately so the display is repopulated.
func (h *Handle) Clear(ctx context.Context) {
	h.Entry().Clear()
	if h.cmd.Display.AutoRun && !h.Entry().Running() {
		h.Run(ctx, nil)
	}
}
