package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JieWu02/nanochat/internal/pipeline"
	"github.com/JieWu02/nanochat/internal/report"
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Run only the LLM judge stage",
	Long: `Re-judge the rule filter's accepted conversations with the LLM judge.
Requires a previous rule filter stage's output.`,
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

		stack, err := buildStack(cmd, cfg, st)
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, stack.Provider, nil,
			pipeline.WithLogger(logger.Named("pipeline")))

		stats, err := p.RunJudge(cmd.Context())
		if stats != nil {
			fmt.Print(report.JudgeStats(stats))
		}
		return err
	},
}

func init() {
	judgeCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
}
