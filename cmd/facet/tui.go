package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the demo app on the interactive widget channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := loadSetup(cmd)
		if err != nil {
			return err
		}
		return tui.Run(demoApp(), logger)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
