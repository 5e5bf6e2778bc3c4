package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/JieWu02/nanochat/internal/pipeline"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Extract per-category sample files from accepted output",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")

		// Prefer the judge's output; fall back to the rule filter's when
		// the judge never ran.
		src := cfg.Stage2AcceptedPath()
		if _, err := os.Stat(src); os.IsNotExist(err) {
			src = cfg.Stage1AcceptedPath()
		}

		p := pipeline.New(cfg, nil, nil,
			pipeline.WithLogger(logger.Named("pipeline")))

		counts, err := p.RunSamples(src, count)
		if err != nil {
			return err
		}

		cats := make([]string, 0, len(counts))
		for cat := range counts {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Printf("%s: %d samples\n", cat, counts[cat])
		}
		return nil
	},
}

func init() {
	sampleCmd.Flags().IntP("count", "n", 0, "Samples per category (default 5)")
	sampleCmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
}
