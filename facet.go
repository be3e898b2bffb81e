package facet

import (
	"github.com/aretw0/facet/pkg/app"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/state"
)

// Version is the library version, set at build time for releases.
var Version = "dev"

// Re-exported types for the common embedding path.
type (
	App     = spec.App
	Command = spec.Command
	Param   = spec.Param
	Args    = spec.Args
	Display = spec.Display
	Host    = app.App
	Option  = app.Option
)

// Execution modes.
const (
	ModeBuffered   = spec.ModeBuffered
	ModeStreaming  = spec.ModeStreaming
	ModeBackground = spec.ModeBackground
)

// New assembles a host for the given application spec.
func New(sp *App, opts ...Option) (*Host, error) {
	return app.New(sp, opts...)
}

// NewState creates an observable value for dynamic regions.
func NewState(initial any) *state.State {
	return state.New(initial)
}
