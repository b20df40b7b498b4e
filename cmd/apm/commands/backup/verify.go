package backup

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/paths"
)

var verifyJSON bool

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output the report in JSON format")
	Cmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <backup-dir>...",
	Short: "Check backups against their manifests",
	Long: `Re-hash every file listed in each backup's manifest and report files
that are missing or whose checksum or size changed. Exits non-zero when any
backup is damaged.`,
	Example: `  apm backup verify ~/AddonBackups/raid-20261017T100000
  apm backup verify ~/AddonBackups/*`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runVerifyWithWriter(c.OutOrStdout(), args)
	},
}

func runVerifyWithWriter(w io.Writer, dirs []string) error {
	reports := make([]*backup.VerifyReport, 0, len(dirs))
	var errs []error

	for _, d := range dirs {
		d = paths.ExpandHome(d)
		report, err := backup.Verify(d)
		if err != nil {
			errs = append(errs, err)
			if !verifyJSON {
				fmt.Fprintf(w, "%s %s: %v\n", cli.Failure.Sprint("✗"), d, err)
			}
			continue
		}
		reports = append(reports, report)
		if err := report.Err(); err != nil {
			errs = append(errs, err)
		}

		if verifyJSON {
			continue
		}
		if report.OK() {
			fmt.Fprintf(w, "%s %s (%d files)\n", cli.Success.Sprint("✓"), d, report.Checked)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", cli.Failure.Sprint("✗"), d)
		for _, m := range report.Missing {
			fmt.Fprintf(w, "    missing: %s\n", m)
		}
		for _, c := range report.Corrupt {
			fmt.Fprintf(w, "    corrupt: %s\n", c)
		}
	}

	if verifyJSON {
		if err := cli.WriteJSON(w, reports); err != nil {
			return err
		}
	}

	if len(errs) > 0 {
		return errors.NewSystemError(errors.Join(errs...), "")
	}
	return nil
}
