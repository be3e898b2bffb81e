package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/aretw0/facet/pkg/block"
	"github.com/aretw0/facet/pkg/output"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/state"
)

// demoApp is the application bundled with the binary. It exercises one
// command per engine feature so every channel can be tried end to end.
func demoApp() *spec.App {
	ticks := state.New(0)

	return &spec.App{
		Title:       "facet demo",
		Description: "declare commands once, render them per channel",
		Commands: []*spec.Command{
			{
				Name: "greet",
				Help: "greet someone by name",
				Params: []spec.Param{
					{Name: "name", Type: spec.TypeString, Required: true, Help: "who to greet"},
					{Name: "times", Type: spec.TypeInt, Default: 1},
				},
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					for i := 0; i < args.Int("times"); i++ {
						output.Print(ctx, "hello, "+args.String("name"))
					}
					return nil, nil
				},
			},
			{
				Name:    "sysinfo",
				Help:    "show runtime information",
				Display: spec.Display{AutoRun: true, ShowHeader: true},
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					return &block.Table{
						Columns: []string{"key", "value"},
						Rows: [][]any{
							{"go", runtime.Version()},
							{"os", runtime.GOOS},
							{"arch", runtime.GOARCH},
							{"cpus", runtime.NumCPU()},
						},
					}, nil
				},
			},
			{
				Name: "docs",
				Help: "render the feature overview",
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					output.Emit(ctx, "# facet\n\nEmit **markdown**, plain text, tables, and live regions from one command body.")
					return &block.Row{Items: []any{
						block.NewText("left column"),
						block.NewText("right column"),
					}}, nil
				},
			},
			{
				Name: "progress",
				Help: "long-running worker with streamed output",
				Mode: spec.ModeBackground,
				Display: spec.Display{
					ButtonLabel: "start",
					AutoScroll:  true,
				},
				Params: []spec.Param{
					{Name: "steps", Type: spec.TypeInt, Default: 5},
				},
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					w := output.LineWriter(ctx)
					defer w.Close()
					steps := args.Int("steps")
					for i := 1; i <= steps; i++ {
						fmt.Fprintf(w, "step %d/%d\n", i, steps)
						time.Sleep(300 * time.Millisecond)
					}
					return "done", nil
				},
			},
			{
				Name: "ticker",
				Help: "dynamic region bound to a counter",
				Mode: spec.ModeStreaming,
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					output.Emit(ctx, output.Dynamic(func(ctx context.Context) any {
						return fmt.Sprintf("ticks so far: **%v**", ticks.Value())
					}, ticks))
					go func() {
						for i := 1; i <= 10; i++ {
							time.Sleep(time.Second)
							ticks.Set(i)
						}
					}()
					return nil, nil
				},
			},
			{
				Name:    "reset",
				Group:   "ops",
				Help:    "reset the tick counter",
				Display: spec.Display{ConfirmLabel: "reset the counter?"},
				Run: func(ctx context.Context, args spec.Args) (any, error) {
					ticks.Set(0)
					return "counter reset", nil
				},
			},
		},
	}
}
