package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/config"
	"github.com/thoreinstein/apm/internal/doctor"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
	"github.com/thoreinstein/apm/internal/logging"
	"github.com/thoreinstein/apm/internal/paths"
)

var (
	doctorJSON bool
	doctorAll  bool
	doctorFix  bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false,
		"show every check, including passed ones")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"fix what can be fixed, then check again")
	doctorCmd.MarkFlagsMutuallyExclusive("json", "all")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose setup issues",
	Long: `Run diagnostic checks on the apm setup.

Checks that the config file loads, that the backup destination is a
writable directory, that the scan roots exist and hold installations, and
that every existing backup still matches its manifest.

Output modes:
  (default)   Show errors and warnings
  --all       Show all checks including passed ones
  --json      Machine-readable JSON output

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  apm doctor
  apm doctor --fix
  apm doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runDoctorWithWriter(c.Context(), c.OutOrStdout())
	},
}

// errDoctorWarnings and errDoctorErrors carry the doctor exit codes.
var (
	errDoctorWarnings = errors.New("doctor found warnings")
	errDoctorErrors   = errors.New("doctor found errors")
)

// newDoctorRunner registers the checks against the effective config.
func newDoctorRunner(ctx context.Context) *doctor.Runner {
	cfg := flags.GetConfig()
	dest := paths.ExpandHome(cfg.Backup.DestinationPath)

	runner := doctor.NewRunner()
	runner.AddCheck(doctor.NewConfigCheck(configFileForDoctor(), configLoadErr))
	runner.AddCheck(doctor.NewDestinationCheck(dest))
	runner.AddCheck(doctor.NewScanRootsCheck(cfg.Scan.Paths))
	runner.AddCheck(doctor.NewInstallationCheck(
		install.NewScanner(cfg.ScanOptions(), install.WithLogger(logging.FromContext(ctx)))))
	runner.AddCheck(doctor.NewBackupsCheck(dest, cfg.Backup.RetentionCount))
	return runner
}

func configFileForDoctor() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigFileUsed()
}

func runDoctorWithWriter(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runner := newDoctorRunner(ctx)
	report := runner.Run(ctx)

	var fixes []doctor.FixResult
	if doctorFix {
		fixes = runner.Fix()
		if len(fixes) > 0 {
			report = runner.Run(ctx)
		}
	}

	if doctorJSON {
		out := struct {
			*doctor.Report
			Fixes []doctor.FixResult `json:"fixes,omitempty"`
		}{report, fixes}
		if err := cli.WriteJSON(w, out); err != nil {
			return err
		}
	} else {
		writeFixes(w, fixes)
		writeDoctorReport(w, report)
	}

	switch {
	case report.HasErrors():
		return errors.NewSystemError(errDoctorErrors, "")
	case report.HasWarnings():
		return errors.NewUserError(errDoctorWarnings, "")
	}
	return nil
}

func writeFixes(w io.Writer, fixes []doctor.FixResult) {
	for _, f := range fixes {
		if f.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", cli.Success.Sprint("✓"), f.Path, f.Description)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s: %v\n", cli.Failure.Sprint("✗"), f.Path, f.Description, f.Error)
	}
	if len(fixes) > 0 {
		fmt.Fprintln(w)
	}
}

func writeDoctorReport(w io.Writer, report *doctor.Report) {
	hasOutput := false
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !doctorAll && !problem {
			continue
		}

		hasOutput = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)
		if result.FixHint != "" && (problem || doctorAll) {
			fmt.Fprintf(w, "  %s %s\n", cli.Dim.Sprint("hint:"), result.FixHint)
		}
	}

	if hasOutput {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return cli.Success.Sprint("✓")
	case doctor.SeverityInfo:
		return cli.Dim.Sprint("ℹ")
	case doctor.SeverityWarning:
		return cli.Warning.Sprint("⚠")
	case doctor.SeverityError:
		return cli.Failure.Sprint("✗")
	default:
		return "?"
	}
}
