package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JieWu02/nanochat/internal/config"
	"github.com/JieWu02/nanochat/internal/store"
)

// logger is built in PersistentPreRunE; commands that run before that
// (help, completion) see a nop logger.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "nanochat",
	Short: "Safety dialogue dataset generator",
	Long: "nanochat generates synthetic refusal and redirection dialogues with an LLM,\n" +
		"then filters them through a deterministic rule pass and an LLM judge.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := buildLogger(verbose)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides NANOCHAT_DB env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(rulefilterCmd)
	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// loadConfig builds the effective configuration: defaults, then the
// optional --config file, then NANOCHAT_* env vars, then per-command
// flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}
	if total, _ := cmd.Flags().GetInt("total"); total > 0 {
		cfg.SetTotal(total)
	}
	if threshold, _ := cmd.Flags().GetInt("threshold"); threshold > 0 {
		cfg.RuleFilter.Threshold = threshold
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then NANOCHAT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the sqlite store at the resolved path.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
