package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JieWu02/nanochat/internal/convogen"
	"github.com/JieWu02/nanochat/internal/judge"
	"github.com/JieWu02/nanochat/internal/report"
	"github.com/JieWu02/nanochat/internal/rulefilter"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics from the most recent pipeline run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		shown := 0

		var gen convogen.Stats
		found, err := readStatsFile(cfg.GenerationStatsPath(), &gen)
		if err != nil {
			return err
		}
		if found {
			fmt.Print(report.GenerationStats(&gen))
			shown++
		}

		var rf rulefilter.Stats
		found, err = readStatsFile(cfg.RuleFilterStatsPath(), &rf)
		if err != nil {
			return err
		}
		if found {
			if shown > 0 {
				fmt.Println()
			}
			fmt.Print(report.RuleFilterStats(&rf))
			shown++
		}

		var jd judge.Stats
		found, err = readStatsFile(cfg.JudgeStatsPath(), &jd)
		if err != nil {
			return err
		}
		if found {
			if shown > 0 {
				fmt.Println()
			}
			fmt.Print(report.JudgeStats(&jd))
			shown++
		}

		if shown == 0 {
			fmt.Println("No statistics found. Run the pipeline first.")
		}
		return nil
	},
}

// readStatsFile loads one stage's statistics JSON. A missing file is not
// an error; that stage simply has not run.
func readStatsFile(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func init() {
	statsCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
}
