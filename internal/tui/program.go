package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/facet/pkg/render"
	"github.com/aretw0/facet/pkg/render/widgetchan"
	"github.com/aretw0/facet/pkg/run"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/view"
)

// Run hosts sp on the widget channel until the user quits.
func Run(sp *spec.App, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	surface := NewSurface()
	builder, err := widgetchan.New(surface, 100, widgetchan.WithNotify(surface.Refresh))
	if err != nil {
		return err
	}
	views := view.NewRegistry()
	resolver := render.New(builder, render.WithLogger(logger))
	coord := run.NewCoordinator(sp, views, resolver, run.WithLogger(logger))

	p := tea.NewProgram(NewModel(sp, coord, logger), tea.WithAltScreen())
	surface.Attach(p)
	views.SetSink(func(e *view.Entry, artifact any) {
		surface.Refresh()
	})

	_, err = p.Run()
	return err
}
