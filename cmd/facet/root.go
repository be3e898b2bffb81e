package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "facet",
	Short: "Facet hosts command UIs on text, TUI, and HTTP channels",
	Long: `Facet runs the bundled demo application: commands declared once,
rendered per channel. Use "run" for one-shot text output, "tui" for the
interactive widget channel, and "serve" for the HTTP surface.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a yaml config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

// loadSetup resolves config file and logger for a subcommand.
func loadSetup(cmd *cobra.Command) (cli.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return cfg, nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	return cfg, logging.New(logging.ParseLevel(level)), nil
}
