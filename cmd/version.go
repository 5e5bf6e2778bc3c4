package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Stamped via -ldflags at release build time. Plain `go build` binaries
// report "(devel)" and refuse self-update.
var (
	version = "(devel)"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		if commit != "" {
			fmt.Printf("nanochat %s (%s)\n", version, commit)
			return
		}
		fmt.Println("nanochat", version)
	},
}
