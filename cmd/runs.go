package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.RunRepo().ListRuns(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		// Header.
		fmt.Printf("%-36s  %-19s  %-9s  %-9s  %6s  %6s  %6s  %6s\n",
			"ID", "Started", "Duration", "Status", "Req", "Gen", "S1", "S2")
		fmt.Println(strings.Repeat("─", 110))

		for _, r := range runs {
			dur := "-"
			if !r.FinishedAt.IsZero() {
				dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			fmt.Printf("%-36s  %-19s  %-9s  %-9s  %6d  %6d  %6d  %6d\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				dur,
				r.Status,
				r.Requested,
				r.Generated,
				r.Stage1Accepted,
				r.Stage2Accepted,
			)
			if r.Error != "" {
				fmt.Printf("    error: %s\n", r.Error)
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
}
