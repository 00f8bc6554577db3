package main

import (
	"errors"
	"os"

	"quizrec/internal/presets"
	"quizrec/internal/score/rule"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quizrec",
		Short: "Quiz-driven product recommendations",
		Long: `quizrec turns quiz answers into ranked product recommendations using
declarative scoring rules.

Run "quizrec serve" for the HTTP service, or use "lint" and "explain" to
work on rule files offline.`,
		Version:      version,
		SilenceUsage: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "warn", "log level for offline commands")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		prepareLogger(*logLevel, os.Stderr)
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newLintCommand())
	cmd.AddCommand(newExplainCommand())
	cmd.AddCommand(newPresetsCommand())

	return cmd
}

// loadPreset reads a preset file when one is given, otherwise a built-in preset.
func loadPreset(name, file string) (rule.Preset, error) {
	if file != "" {
		return rule.LoadFromFile(file)
	}
	if name == "" {
		return rule.Preset{}, errors.New("either a preset name or a rules file is required")
	}
	return presets.Load(name)
}
