// Package cli wires an application spec to the text channel for the
// facet binary: one session per process, output streaming to a writer.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/facet/pkg/render"
	"github.com/aretw0/facet/pkg/render/textchan"
	"github.com/aretw0/facet/pkg/run"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/view"
)

// Options configures a Session.
type Options struct {
	Logger *slog.Logger
	Out    io.Writer
	Width  int
}

// Session hosts one application on the text channel.
type Session struct {
	app   *spec.App
	coord *run.Coordinator
	views *view.Registry
	out   io.Writer
}

// NewSession builds the text-channel pipeline for sp.
func NewSession(sp *spec.App, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	builder, err := textchan.New(textchan.WithWidth(opts.Width))
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}

	views := view.NewRegistry()
	textchan.NewWriter(opts.Out).Attach(views)

	resolver := render.New(builder, render.WithLogger(logger))
	coord := run.NewCoordinator(sp, views, resolver, run.WithLogger(logger))

	return &Session{app: sp, coord: coord, views: views, out: opts.Out}, nil
}

// Run executes one command to completion and reports its outcome.
// Output has already been streamed to the session writer by the time it
// returns.
func (s *Session) Run(ctx context.Context, group, name string, raw map[string]any) error {
	cmd, ok := s.app.Command(group, name)
	if !ok {
		return fmt.Errorf("cli: unknown command %q", qualified(group, name))
	}
	inv := s.coord.Execute(ctx, cmd, raw)
	if err := inv.Wait(ctx); err != nil {
		return err
	}
	return inv.Err()
}

// List prints the available commands grouped and aligned.
func (s *Session) List() {
	byGroup := make(map[string][]*spec.Command)
	for _, cmd := range s.app.Commands {
		byGroup[cmd.Group] = append(byGroup[cmd.Group], cmd)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		if g != "" {
			fmt.Fprintf(s.out, "%s:\n", g)
		}
		for _, cmd := range byGroup[g] {
			indent := ""
			if g != "" {
				indent = "  "
			}
			fmt.Fprintf(s.out, "%s%-18s %s\n", indent, cmd.Name, cmd.Help)
			for _, p := range cmd.Params {
				req := ""
				if p.Required {
					req = " (required)"
				}
				fmt.Fprintf(s.out, "%s    --%s %s%s\n", indent, p.Name, string(p.Type), req)
			}
		}
	}
}

// ParseArgs converts --key=value / --key value pairs into raw argument
// values for validation.
func ParseArgs(args []string) (map[string]any, error) {
	raw := make(map[string]any)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("cli: unexpected argument %q", arg)
		}
		body := strings.TrimPrefix(arg, "--")
		if k, v, found := strings.Cut(body, "="); found {
			raw[k] = v
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			raw[body] = args[i+1]
			i++
			continue
		}
		// Bare flag, boolean style.
		raw[body] = "true"
	}
	return raw, nil
}

func qualified(group, name string) string {
	if group == "" {
		return name
	}
	return group + "/" + name
}
