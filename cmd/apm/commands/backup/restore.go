package backup

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
	"github.com/thoreinstein/apm/internal/paths"
)

var (
	restoreAccount string
	restoreAddons  []string
	restoreVersion string
	restoreJSON    bool
	restoreEngine  engineFlags
)

func init() {
	restoreCmd.Flags().StringVarP(&restoreAccount, "account", "a", "",
		"account to restore into (default: the backup's account when present, else the only account, or ask)")
	restoreCmd.Flags().StringArrayVar(&restoreAddons, "addon", nil,
		"addon to restore (repeatable; default: all)")
	restoreCmd.Flags().StringVar(&restoreVersion, "version", "",
		"version folder to use when the path holds several (e.g. _retail_)")
	restoreCmd.Flags().BoolVar(&restoreJSON, "json", false, "Output the result in JSON format")
	restoreEngine.register(restoreCmd)
	Cmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-dir> <path>",
	Short: "Restore addon saved variables from a backup",
	Long: `Copy files from a backup back into an account's SavedVariables folder.

Every file is checked against the manifest checksum before it is copied;
damaged files are reported and left out. Files already in the account are
handled by the conflict strategy (conflicts.strategy, or --strategy). With
the backup strategy the current file is kept as <name>.backup.

Close the game first: the client rewrites saved variables when it exits.`,
	Example: `  # Restore everything into the account the backup came from
  apm backup restore ~/AddonBackups/raid-20261017T100000 ./_retail_

  # Restore one addon into another account, keeping current files aside
  apm backup restore ~/AddonBackups/raid-20261017T100000 ./_retail_ \
    --account 87654321#1 --addon WeakAuras --strategy backup

  See Also:
    apm backup verify - Re-hash a backup
    apm backup info   - Show one backup's manifest`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		return runRestoreWithWriter(c.Context(), c.OutOrStdout(), args[0], args[1])
	},
}

func runRestoreWithWriter(ctx context.Context, w io.Writer, backupDir, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	backupDir = paths.ExpandHome(backupDir)

	m, err := backup.ReadManifest(backupDir)
	if err != nil {
		if errors.Is(err, backup.ErrManifestNotFound) {
			return errors.NewUserError(err, "Run 'apm backup list' to find backups")
		}
		return err
	}

	inst, err := cli.ResolveInstallation(path, restoreVersion, flags.Chooser())
	if err != nil {
		return err
	}

	accountID := restoreAccount
	if accountID == "" {
		if _, ok := inst.Account(m.AccountID); ok {
			accountID = m.AccountID
		}
	}
	account, err := cli.ResolveAccount(inst, accountID, flags.Chooser())
	if err != nil {
		return err
	}

	progress := w
	if restoreJSON {
		progress = nil
	}
	engine, err := restoreEngine.newEngine(progress, logging.FromContext(ctx), backupDir)
	if err != nil {
		return err
	}

	res, err := engine.Restore(backupDir, account.DataDirectory, restoreAddons)
	if err != nil && !errors.Is(err, backup.ErrAborted) {
		return errors.NewSystemError(err, "")
	}

	if restoreJSON {
		if jerr := cli.WriteJSON(w, res); jerr != nil {
			return jerr
		}
	} else {
		printResult(w, "Restore", res)
	}
	return resultError(res)
}
