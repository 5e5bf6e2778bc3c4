package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JieWu02/nanochat/internal/config"
	"github.com/JieWu02/nanochat/internal/llm"
	"github.com/JieWu02/nanochat/internal/monitor"
	"github.com/JieWu02/nanochat/internal/pipeline"
	"github.com/JieWu02/nanochat/internal/report"
	"github.com/JieWu02/nanochat/internal/scenario"
	"github.com/JieWu02/nanochat/internal/store"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full generation and filtering pipeline",
	Long: `Run generation, the rule filter, the LLM judge, and sample extraction
in sequence. Individual stages can be skipped to rerun the pipeline
against existing intermediate files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		skipGen, _ := cmd.Flags().GetBool("skip-generation")
		skipRule, _ := cmd.Flags().GetBool("skip-rule-filter")
		skipJudge, _ := cmd.Flags().GetBool("skip-llm-filter")
		watch, _ := cmd.Flags().GetBool("watch")

		stages := pipeline.Stages{
			Generate:   !skipGen,
			RuleFilter: !skipRule,
			Judge:      !skipJudge,
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

		ctx := cmd.Context()

		var provider llm.Provider
		var health *llm.HealthTracker
		if stages.Generate || stages.Judge {
			stack, err := buildStack(cmd, cfg, st)
			if err != nil {
				return err
			}
			provider = stack.Provider
			health = stack.Health
		}

		// Stderr logging would tear the alt screen, so the live view
		// replaces log lines with rendered progress.
		runLog := logger.Named("pipeline")
		if watch {
			runLog = zap.NewNop()
		}

		opts := []pipeline.Option{
			pipeline.WithLogger(runLog),
			pipeline.WithRunRecorder(st.RunRepo()),
		}
		if watch {
			opts = append(opts, pipeline.WithEvents(256))
		}
		p := pipeline.New(cfg, provider, registry, opts...)

		if !watch {
			sum, err := p.Run(ctx, stages)
			printSummary(sum)
			return err
		}

		var (
			sum    *pipeline.Summary
			runErr error
		)
		done := make(chan struct{})
		go func() {
			defer close(done)
			sum, runErr = p.Run(ctx, stages)
		}()

		// Quitting the view detaches it; the run itself continues until
		// done or canceled.
		if err := monitor.Watch(p.Events(), health); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		<-done

		printSummary(sum)
		return runErr
	},
}

func printSummary(sum *pipeline.Summary) {
	if sum == nil {
		return
	}
	fmt.Println()
	fmt.Print(report.Summary(sum))
}

// buildStack wires the LLM provider with call logging into the store.
func buildStack(cmd *cobra.Command, cfg config.Config, st *store.Store) (*llm.Stack, error) {
	if err := cfg.Gateway.Validate(); err != nil {
		return nil, err
	}
	stack, err := llm.NewStack(cmd.Context(), cfg.Gateway, st.CallRepo(), logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Gateway.Provider, err)
	}
	return stack, nil
}

func init() {
	pipelineCmd.Flags().Bool("skip-generation", false, "Reuse existing raw conversations instead of generating")
	pipelineCmd.Flags().Bool("skip-rule-filter", false, "Skip the deterministic rule filter stage")
	pipelineCmd.Flags().Bool("skip-llm-filter", false, "Skip the LLM judge stage")
	pipelineCmd.Flags().Bool("watch", false, "Show a live progress view while the pipeline runs")
	pipelineCmd.Flags().Int("total", 0, "Total conversations to generate, split across categories")
	pipelineCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
}
