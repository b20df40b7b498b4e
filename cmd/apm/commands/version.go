package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd"
	"github.com/thoreinstein/apm/internal/config"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit, and build date of apm, and the config file in use.`,
	Run: func(c *cobra.Command, _ []string) {
		runVersionWithWriter(c.OutOrStdout())
	},
}

func runVersionWithWriter(w io.Writer) {
	fmt.Fprintf(w, "apm version %s\n", cmd.Version)
	fmt.Fprintf(w, "  commit: %s\n", cmd.Commit)
	fmt.Fprintf(w, "  built:  %s\n", cmd.Date)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	used := config.ConfigFileUsed()
	if used == "" {
		used = config.File() + " (not found, using defaults)"
	}
	fmt.Fprintf(w, "  config: %s\n", used)
}
