package main

import (
	"fmt"

	"quizrec/internal/presets"

	"github.com/spf13/cobra"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range presets.Names() {
				preset, err := presets.Load(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %d rules  %s\n", name, len(preset.Scoring.Rules), preset.Description)
			}
			return nil
		},
	}
}
