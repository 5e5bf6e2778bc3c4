package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JieWu02/nanochat/internal/pipeline"
	"github.com/JieWu02/nanochat/internal/report"
	"github.com/JieWu02/nanochat/internal/scenario"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run only the generation stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		registry, err := scenario.Load()
		if err != nil {
			return fmt.Errorf("load scenarios: %w", err)
		}

		stack, err := buildStack(cmd, cfg, st)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, stack.Provider, registry,
			pipeline.WithLogger(logger.Named("pipeline")))

		stats, err := p.RunGeneration(cmd.Context())
		if stats != nil {
			fmt.Print(report.GenerationStats(stats))
		}
		return err
	},
}

func init() {
	generateCmd.Flags().Int("total", 0, "Total conversations to generate, split across categories")
	generateCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
}
