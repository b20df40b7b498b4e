// Package backup provides CLI commands for creating and managing addon backups.
package backup

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd"
	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/cli/prompt"
	"github.com/thoreinstein/apm/internal/conflict"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/paths"
)

// Cmd is the root backup command.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, inspect and restore addon backups",
	Long: `Create, inspect and restore backups of addon saved variables.

A backup is a folder holding copies of <Addon>.lua and <Addon>.lua.bak files
plus backup_manifest.json, which records the source installation and a
SHA-256 checksum for every file. By default each backup gets its own
<profile>-<timestamp> folder under backup.destination_path.`,
	Example: `  # Back up every addon of an account
  apm backup create ./_retail_ --name full --all

  # List backups under the destination
  apm backup list

  # Check a backup against its manifest
  apm backup verify ~/AddonBackups/raid-20261017T100000

  # Restore one addon into an account
  apm backup restore ~/AddonBackups/raid-20261017T100000 ./_retail_ --addon WeakAuras

  # Keep only the 3 newest backups of a profile
  apm backup prune --profile raid --keep 3

  See Also:
    apm backup create  - Create a new backup
    apm backup list    - List available backups
    apm backup info    - Show one backup's manifest
    apm backup verify  - Re-hash a backup
    apm backup restore - Restore from a backup
    apm backup prune   - Remove old backups`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// engineFlags are the settings create and restore share.
type engineFlags struct {
	strategy   string
	noValidate bool
}

func (f *engineFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.strategy, "strategy", "",
		"conflict strategy: prompt, overwrite, skip, backup (default from config)")
	c.Flags().BoolVar(&f.noValidate, "no-validate", false,
		"skip re-hashing files after copying")
}

// policy returns the configured conflict policy with --strategy applied.
func (f *engineFlags) policy() (conflict.Policy, error) {
	p := flags.GetConfig().Policy()
	if f.strategy != "" {
		s, err := conflict.ParseStrategy(f.strategy)
		if err != nil {
			return p, errors.NewUserError(err, "")
		}
		p.Strategy = s
	}
	return p, nil
}

// newEngine builds an engine from the config, the shared flags and the
// destination root. Progress lines go to w.
func (f *engineFlags) newEngine(w io.Writer, logger *slog.Logger, dest string, extra ...backup.Option) (*backup.Engine, error) {
	cfg := flags.GetConfig()

	policy, err := f.policy()
	if err != nil {
		return nil, err
	}

	opts := []backup.Option{
		backup.WithDestination(dest),
		backup.WithTimestampFolder(cfg.Backup.CreateTimestampFolder),
		backup.WithValidation(cfg.Backup.ValidateIntegrity && !f.noValidate),
		backup.WithCompression(cfg.Backup.CompressBackup),
		backup.WithPolicy(policy),
		backup.WithToolVersion(cmd.Version),
		backup.WithLogger(logger),
	}
	if policy.Strategy == conflict.StrategyPrompt && flags.Interactive() {
		opts = append(opts, backup.WithPrompter(prompt.NewConflictPrompter()))
	}
	if w != nil {
		opts = append(opts, backup.WithProgress(progressPrinter(w)))
	}
	return backup.NewEngine(append(opts, extra...)...), nil
}

// destinationRoot returns --dest, or the configured destination.
func destinationRoot(dest string) string {
	if dest == "" {
		dest = flags.GetConfig().Backup.DestinationPath
	}
	return paths.ExpandHome(dest)
}

func progressPrinter(w io.Writer) func(backup.Progress) {
	return func(p backup.Progress) {
		var outcome string
		switch p.Outcome {
		case "copied":
			outcome = cli.Success.Sprint(p.Outcome)
		case "skipped":
			outcome = cli.Warning.Sprint(p.Outcome)
		default:
			outcome = cli.Failure.Sprint(p.Outcome)
		}
		fmt.Fprintf(w, "  [%d/%d] %-8s %s\n", p.Index, p.Total, outcome, p.File)
	}
}

// printResult writes the summary of a backup or restore.
func printResult(w io.Writer, verb string, res *backup.Result) {
	fmt.Fprintln(w)
	switch {
	case res.Aborted:
		fmt.Fprintf(w, "%s %s aborted\n", cli.Failure.Sprint("✗"), verb)
	case res.Success:
		fmt.Fprintf(w, "%s %s complete\n", cli.Success.Sprint("✓"), verb)
	default:
		fmt.Fprintf(w, "%s %s finished with errors\n", cli.Warning.Sprint("!"), verb)
	}

	fmt.Fprintf(w, "  Destination: %s\n", res.DestinationPath)
	fmt.Fprintf(w, "  Copied:      %d (%s)\n", len(res.CopiedFiles), cli.FormatBytes(res.TotalBytes))
	if len(res.SkippedFiles) > 0 {
		fmt.Fprintf(w, "  Skipped:     %d\n", len(res.SkippedFiles))
	}
	if len(res.PreservedFiles) > 0 {
		fmt.Fprintf(w, "  Preserved:   %d\n", len(res.PreservedFiles))
		for _, p := range res.PreservedFiles {
			fmt.Fprintf(w, "    %s\n", cli.Dim.Sprint(p))
		}
	}
	if len(res.FailedFiles) > 0 {
		fmt.Fprintf(w, "  Failed:      %d\n", len(res.FailedFiles))
	}
	if len(res.ValidationErrors) > 0 {
		fmt.Fprintf(w, "  Invalid:     %d\n", len(res.ValidationErrors))
	}
	if res.ManifestPath != "" {
		fmt.Fprintf(w, "  Manifest:    %s\n", res.ManifestPath)
	}
}

// resultError turns an unsuccessful result into an exit error.
func resultError(res *backup.Result) error {
	err := res.Err()
	if err == nil {
		return nil
	}
	if res.Aborted {
		return errors.NewUserError(err, "")
	}
	return errors.NewSystemError(err, "Run with -v for details")
}
