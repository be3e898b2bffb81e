package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/output"
	"github.com/aretw0/facet/pkg/ports"
	"github.com/aretw0/facet/pkg/spec"
)

func demoSpec() *spec.App {
	return &spec.App{
		Title: "demo",
		Commands: []*spec.Command{
			{
				Name: "hello",
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					output.Print(ctx, "hello out")
					return nil, nil
				},
			},
			{
				Name:    "status",
				Display: spec.Display{AutoRun: true},
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					output.Print(ctx, "all good")
					return nil, nil
				},
			},
			{
				Name:  "deploy",
				Group: "ops",
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					return "deployed " + args.String("env"), nil
				},
				Params: []spec.Param{{Name: "env", Type: spec.TypeString, Required: true}},
			},
		},
	}
}

func TestCommandLookup(t *testing.T) {
	a, err := New(demoSpec())
	require.NoError(t, err)

	h, err := a.Command("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", h.Spec().Name)

	_, err = a.Command("deploy")
	require.Error(t, err, "grouped commands need CommandIn")

	h, err = a.CommandIn("ops", "deploy")
	require.NoError(t, err)
	require.Equal(t, "ops", h.Spec().Group)
}

func TestRunAndCapturedText(t *testing.T) {
	a, err := New(demoSpec())
	require.NoError(t, err)

	inv := a.MustCommand("hello").Run(context.Background(), nil)
	require.NoError(t, inv.Err())
	require.Equal(t, "hello out", inv.CapturedText())
}

func TestRunWithArgs(t *testing.T) {
	a, err := New(demoSpec())
	require.NoError(t, err)

	h, err := a.CommandIn("ops", "deploy")
	require.NoError(t, err)

	inv := h.Run(context.Background(), map[string]any{"env": "staging"})
	require.NoError(t, inv.Err())
	require.Equal(t, "deployed staging", inv.Result())
}

func TestSelectAutoRuns(t *testing.T) {
	a, err := New(demoSpec())
	require.NoError(t, err)

	h := a.MustCommand("status").Select(context.Background())

	require.True(t, h.Entry().Selected())
	require.NotEmpty(t, h.Entry().Artifacts())
}

func TestClearRerunsAutoRunCommand(t *testing.T) {
	a, err := New(demoSpec())
	require.NoError(t, err)

	h := a.MustCommand("status").Select(context.Background())
	h.Clear(context.Background())

	require.NotEmpty(t, h.Entry().Artifacts(), "auto-run command repopulates after clear")
}

func TestClipboardGoesThroughSurface(t *testing.T) {
	surface := &ports.InlineSurface{}
	a, err := New(demoSpec(), WithSurface(surface))
	require.NoError(t, err)

	require.NoError(t, a.Clipboard("copied"))
	require.Equal(t, "copied", surface.ClipboardText)
}

func TestContextRoutesStrayEmissionsToSelection(t *testing.T) {
	a, err := New(demoSpec())
	require.NoError(t, err)
	h := a.MustCommand("hello").Select(context.Background())

	ctx := a.Context(context.Background())
	output.Print(ctx, "stray")

	require.NotEmpty(t, h.Entry().Artifacts())
}
