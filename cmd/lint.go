package main

import (
	"fmt"
	"os"

	"quizrec/internal/presets"
	"quizrec/internal/score/rule"

	"github.com/spf13/cobra"
)

func newLintCommand() *cobra.Command {
	var builtin bool

	cmd := &cobra.Command{
		Use:   "lint [file]...",
		Short: "Check preset files for schema and rule problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !builtin {
				return fmt.Errorf("no files to lint")
			}

			problems := 0
			report := func(source string, data []byte) {
				for _, issue := range rule.Lint(data) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", source, issue)
					problems++
				}
			}

			for _, file := range args {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				report(file, data)
			}

			if builtin {
				for _, name := range presets.Names() {
					data, err := presets.Raw(name)
					if err != nil {
						return err
					}
					report("preset:"+name, data)
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&builtin, "builtin", false, "also lint the built-in presets")
	return cmd
}
