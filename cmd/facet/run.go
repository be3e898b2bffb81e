package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/pkg/render/textchan"
)

var runCmd = &cobra.Command{
	Use:   "run <command> [--param value ...]",
	Short: "Run one demo command on the text channel",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSetup(cmd)
		if err != nil {
			return err
		}
		width := cfg.Width
		if width == 0 {
			width = textchan.DetectWidth(os.Stdout)
		}
		session, err := cli.NewSession(demoApp(), cli.Options{
			Logger: logger,
			Out:    os.Stdout,
			Width:  width,
		})
		if err != nil {
			return err
		}

		group, name := splitCommand(args[0])
		raw, err := cli.ParseArgs(args[1:])
		if err != nil {
			return err
		}
		return session.Run(cmd.Context(), group, name, raw)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the demo commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli.PrintBanner()
		session, err := cli.NewSession(demoApp(), cli.Options{Out: os.Stdout})
		if err != nil {
			return err
		}
		session.List()
		return nil
	},
}

// splitCommand parses "group/name" or plain "name".
func splitCommand(s string) (group, name string) {
	if g, n, found := strings.Cut(s, "/"); found {
		return g, n
	}
	return "", s
}

func init() {
	// Everything after the command name belongs to the command itself.
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}
