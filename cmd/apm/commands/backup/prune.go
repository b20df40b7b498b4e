package backup

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
)

var (
	pruneKeep    int
	pruneProfile string
	pruneDest    string
)

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", -1,
		"number of backups to retain per profile (default: backup.retention_count)")
	pruneCmd.Flags().StringVar(&pruneProfile, "profile", "",
		"only prune backups of this profile")
	pruneCmd.Flags().StringVar(&pruneDest, "dest", "",
		"destination root (default: backup.destination_path)")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old backups",
	Long: `Remove old backups beyond the retention count.

The newest backups of each profile are kept (backup.retention_count, or
--keep) and older ones are deleted. Use --profile to prune a single
profile. A backup written directly into the destination root, without a
timestamp folder, is never removed.`,
	Example: `  # Prune every profile, keeping the configured count
  apm backup prune

  # Keep only the 3 most recent raid backups
  apm backup prune --profile raid --keep 3

  See Also:
    apm backup list   - List available backups
    apm backup create - Create a new backup`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runPruneWithWriter(c.OutOrStdout())
	},
}

func runPruneWithWriter(w io.Writer) error {
	keep := pruneKeep
	if keep < 0 {
		keep = flags.GetConfig().Backup.RetentionCount
	}
	root := destinationRoot(pruneDest)

	profiles := []string{pruneProfile}
	if pruneProfile == "" {
		infos, err := backup.List(root)
		if err != nil {
			if errors.Is(err, backup.ErrNoBackupsFound) {
				fmt.Fprintln(w, "No backups to prune.")
				return nil
			}
			return errors.Wrapf(err, "listing backups in %s", root)
		}
		profiles = profiles[:0]
		for _, i := range infos {
			if !slices.Contains(profiles, i.ProfileName) {
				profiles = append(profiles, i.ProfileName)
			}
		}
		slices.Sort(profiles)
	}

	pruned := 0
	for _, p := range profiles {
		removed, err := backup.Prune(root, p, keep)
		if err != nil {
			return errors.Wrapf(err, "pruning backups of %s", p)
		}
		for _, r := range removed {
			fmt.Fprintf(w, "%s %s\n", cli.Warning.Sprint("removed"), r)
		}
		pruned += len(removed)
	}

	if pruned == 0 {
		fmt.Fprintln(w, "No backups to prune.")
		return nil
	}
	fmt.Fprintf(w, "\nPruned %d backup(s), keeping up to %d per profile.\n", pruned, keep)
	return nil
}
