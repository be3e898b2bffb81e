// Package spec holds the command model consumed by the engine: command
// and parameter specifications, display options, and argument
// validation. Building specs from function signatures is the job of an
// external reflection layer; this package only defines the contract.
package spec

import "context"

// Mode selects how an invocation executes. It is a static property of
// the command, decided before invocation.
type Mode int

const (
	// ModeBuffered runs the body to completion on the caller's
	// goroutine; widget updates flush after the call returns, while
	// line-oriented text streams as produced.
	ModeBuffered Mode = iota
	// ModeStreaming flushes every emission immediately.
	ModeStreaming
	// ModeBackground runs the body on a dedicated goroutine with
	// immediate flushes; display mutation is marshaled to the UI
	// goroutine. Dispatch returns immediately.
	ModeBackground
)

func (m Mode) String() string {
	switch m {
	case ModeBuffered:
		return "buffered"
	case ModeStreaming:
		return "streaming"
	case ModeBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ParamType is the closed set of parameter value types.
type ParamType string

const (
	TypeString     ParamType = "string"
	TypeInt        ParamType = "int"
	TypeFloat      ParamType = "float"
	TypeBool       ParamType = "bool"
	TypeStringList ParamType = "string_list"
)

// Param describes one command parameter.
type Param struct {
	Name     string
	Type     ParamType
	Required bool
	Default  any
	Choices  []string
	Help     string
}

// Display carries presentation hints for a command. The channels consume
// what applies to them and ignore the rest.
type Display struct {
	ButtonLabel  string // run-control label; empty means the default
	AutoRun      bool   // run as soon as the command is selected
	ShowHeader   bool
	ConfirmLabel string // non-empty requires a confirmation step
	AutoScroll   bool   // keep the output pinned to the tail while running
	Modal        bool   // present as an overlay instead of a view
}

// Handler is the command body. Emissions made through the output package
// with this ctx are captured and routed by the coordinator.
type Handler func(ctx context.Context, args Args) (any, error)

// Command is a fully described, runnable command.
type Command struct {
	Name    string
	Group   string // empty for root commands
	Help    string
	Params  []Param
	Mode    Mode
	Display Display
	Run     Handler
}

// Param returns the parameter with the given name.
func (c *Command) Param(name string) (Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// App is the full application specification.
type App struct {
	Title       string
	Description string
	Commands    []*Command
}

// Command finds a command by group and name.
func (a *App) Command(group, name string) (*Command, bool) {
	for _, c := range a.Commands {
		if c.Group == group && c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// GroupNames returns the distinct group identifiers in declaration
// order, with "" first when root commands exist.
func (a *App) GroupNames() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range a.Commands {
		if !seen[c.Group] {
			seen[c.Group] = true
			out = append(out, c.Group)
		}
	}
	return out
}
