package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JieWu02/nanochat/internal/pipeline"
	"github.com/JieWu02/nanochat/internal/report"
)

var rulefilterCmd = &cobra.Command{
	Use:   "rulefilter",
	Short: "Run only the deterministic rule filter stage",
	Long: `Re-filter existing raw conversations through the structural checks and
the quality scorer. Requires a previous generation stage's output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// No LLM calls happen here, so neither a provider nor the store
		// is needed.
		p := pipeline.New(cfg, nil, nil,
			pipeline.WithLogger(logger.Named("pipeline")))

		stats, err := p.RunRuleFilter(cmd.Context())
		if stats != nil {
			fmt.Print(report.RuleFilterStats(stats))
		}
		return err
	},
}

func init() {
	rulefilterCmd.Flags().Int("threshold", 0, "Override the minimum quality score (1-100)")
	rulefilterCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
}
