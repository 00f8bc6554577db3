package main

import (
	"encoding/json"
	"fmt"
	"os"

	"quizrec/internal/catalog"
	"quizrec/internal/score"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type explainOptions struct {
	preset    string
	rules     string
	catalog   string
	format    string
	responses string
	product   string
	limit     int
	mapped    bool
}

func newExplainCommand() *cobra.Command {
	var opts explainOptions

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Rank a catalog offline, or break down the score of one product",
		Long: `explain scores a catalog file against a file of quiz answers (JSON or YAML).

Without --product it prints the ranked recommendations. With --product it
prints the per-rule breakdown for that product.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.preset, "preset", "", "built-in preset name")
	cmd.Flags().StringVar(&opts.rules, "rules", "", "preset file, overrides --preset")
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "catalog file")
	cmd.Flags().StringVar(&opts.format, "format", string(catalog.FormatProducts), "catalog format: products or paddles")
	cmd.Flags().StringVar(&opts.responses, "responses", "", "quiz answers file")
	cmd.Flags().StringVar(&opts.product, "product", "", "explain this product id")
	cmd.Flags().IntVar(&opts.limit, "limit", score.DefaultLimit, "number of recommendations")
	cmd.Flags().BoolVar(&opts.mapped, "mapped", false, "answers already use scoring keys")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("responses")

	return cmd
}

func runExplain(cmd *cobra.Command, opts explainOptions) error {
	preset, err := loadPreset(opts.preset, opts.rules)
	if err != nil {
		return err
	}
	engine, err := preset.Engine()
	if err != nil {
		return err
	}

	c, err := catalog.Load(opts.catalog, catalog.Format(opts.format))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.responses)
	if err != nil {
		return err
	}
	var responses score.Responses
	if err := yaml.Unmarshal(data, &responses); err != nil {
		return fmt.Errorf("parse responses %s: %w", opts.responses, err)
	}
	if !opts.mapped {
		responses = preset.Responses.Apply(responses)
	}

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")

	if opts.product != "" {
		product, ok := c.Get(opts.product)
		if !ok {
			return fmt.Errorf("product %q not found in %s", opts.product, opts.catalog)
		}
		return out.Encode(engine.Explain(product, responses))
	}

	return out.Encode(engine.Recommend(c.Products(), responses, score.RecommendOptions{Limit: opts.limit}))
}
