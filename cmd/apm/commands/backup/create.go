package backup

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/addon"
	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/cli/prompt"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
)

var (
	createName    string
	createAccount string
	createAddons  []string
	createAll     bool
	createDest    string
	createVersion string
	createJSON    bool
	createEngine  engineFlags
)

// pickAddons is swapped in tests.
var pickAddons = prompt.PickAddons

func init() {
	createCmd.Flags().StringVarP(&createName, "name", "n", "",
		"profile name; used in the backup folder name (required)")
	createCmd.Flags().StringVarP(&createAccount, "account", "a", "",
		"account ID (default: the only account, or ask)")
	createCmd.Flags().StringArrayVar(&createAddons, "addon", nil,
		"addon to back up (repeatable)")
	createCmd.Flags().BoolVar(&createAll, "all", false,
		"back up every addon with saved data")
	createCmd.Flags().StringVar(&createDest, "dest", "",
		"destination root (default: backup.destination_path)")
	createCmd.Flags().StringVar(&createVersion, "version", "",
		"version folder to use when the path holds several (e.g. _retail_)")
	createCmd.Flags().BoolVar(&createJSON, "json", false, "Output the result in JSON format")
	createEngine.register(createCmd)
	_ = createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagsMutuallyExclusive("addon", "all")
	Cmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Back up addon saved variables",
	Long: `Copy the saved variables of selected addons into a new backup.

The path may be any folder of the installation (see 'apm accounts --help').
Choose addons with --addon (repeatable) or --all. Without either, an
interactive picker opens when running in a terminal; otherwise every addon
is backed up.

Existing files in the destination are handled by the conflict strategy
(conflicts.strategy, or --strategy). The manifest is written last and only
lists files that were copied and verified.`,
	Example: `  # Back up two addons
  apm backup create ./_retail_ --name raid --addon WeakAuras --addon Details

  # Back up everything into a fixed folder, preserving what is there
  apm backup create ./_retail_ --name full --all --dest /mnt/usb --strategy backup

  See Also:
    apm addons         - List addons with saved data
    apm backup verify  - Re-hash a backup`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runCreateWithWriter(c.Context(), c.OutOrStdout(), args[0])
	},
}

func runCreateWithWriter(ctx context.Context, w io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	inst, err := cli.ResolveInstallation(path, createVersion, flags.Chooser())
	if err != nil {
		return err
	}
	account, err := cli.ResolveAccount(inst, createAccount, flags.Chooser())
	if err != nil {
		return err
	}

	files, err := addon.GetAddonFiles(inst, account.ID)
	if err != nil {
		return errors.Wrapf(err, "listing addons of %s", account.ID)
	}
	if len(files) == 0 {
		return errors.NewUserError(errors.Newf("account %s has no saved variables", account.ID), "")
	}

	selected := createAddons
	if len(selected) == 0 && !createAll && flags.Interactive() {
		selected, err = pickAddons(files)
		if err != nil {
			return errors.NewUserError(err, "Use --addon or --all to choose without the picker")
		}
		if len(selected) == 0 {
			return errors.NewUserError(errors.New("no addons selected"), "")
		}
	}

	progress := w
	if createJSON {
		progress = nil
	}
	engine, err := createEngine.newEngine(progress, logging.FromContext(ctx), destinationRoot(createDest))
	if err != nil {
		return err
	}

	profile := backup.Profile{
		Name:         createName,
		Addons:       selected,
		Installation: inst,
		AccountID:    account.ID,
	}

	res, err := engine.CreateBackup(profile, files)
	if err != nil && !errors.Is(err, backup.ErrAborted) {
		if errors.Is(err, backup.ErrDestinationUnavailable) {
			return errors.NewSystemError(err, "Check --dest or backup.destination_path")
		}
		if errors.Is(err, backup.ErrInvalidProfile) {
			return errors.NewUserError(err, "")
		}
		return errors.NewSystemError(err, "")
	}

	if createJSON {
		if jerr := cli.WriteJSON(w, res); jerr != nil {
			return jerr
		}
	} else {
		printResult(w, "Backup", res)
	}
	return resultError(res)
}
