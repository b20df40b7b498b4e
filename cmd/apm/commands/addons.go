package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/addon"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
)

var (
	addonsJSON    bool
	addonsAccount string
	addonsVersion string
)

func init() {
	addonsCmd.Flags().BoolVar(&addonsJSON, "json", false, "Output in JSON format")
	addonsCmd.Flags().StringVarP(&addonsAccount, "account", "a", "",
		"account ID (default: the only account, or ask)")
	addonsCmd.Flags().StringVar(&addonsVersion, "version", "",
		"version folder to use when the path holds several (e.g. _retail_)")
	rootCmd.AddCommand(addonsCmd)
}

var addonsCmd = &cobra.Command{
	Use:   "addons <path>",
	Short: "List addons with saved data",
	Long: `List the addons that have saved variables in one account.

An addon is listed when <Name>.lua or <Name>.lua.bak exists in the account's
SavedVariables folder. Client-wide files such as Blizzard_* are not addons
and are left out.`,
	Example: `  apm addons "/Applications/World of Warcraft/_retail_" --account 12345678#1
  apm addons ./_retail_ --json

  See Also: apm accounts, apm backup create`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runAddonsWithWriter(c.OutOrStdout(), args[0])
	},
}

func runAddonsWithWriter(w io.Writer, path string) error {
	inst, err := cli.ResolveInstallation(path, addonsVersion, flags.Chooser())
	if err != nil {
		return err
	}
	account, err := cli.ResolveAccount(inst, addonsAccount, flags.Chooser())
	if err != nil {
		return err
	}

	files, err := addon.GetAddonFiles(inst, account.ID)
	if err != nil {
		return errors.Wrapf(err, "listing addons of %s", account.ID)
	}
	names := addon.Names(files)

	if addonsJSON {
		out := make([]*addon.File, len(names))
		for i, n := range names {
			out[i] = files[n]
		}
		return cli.WriteJSON(w, out)
	}

	fmt.Fprintf(w, "%s %s\n", cli.Header.Sprint("Account:"), account.ID)
	if len(names) == 0 {
		fmt.Fprintf(w, "  %s\n", cli.Dim.Sprint("(no saved variables)"))
		return nil
	}

	var total int64
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, cli.Bold.Sprint("  ADDON\tSIZE\tMODIFIED\tBAK"))
	for _, n := range names {
		f := files[n]
		bak := ""
		if f.Companion != nil {
			bak = "yes"
		}
		total += f.TotalBytes()
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
			cli.Success.Sprint(n), cli.FormatBytes(f.SizeBytes()), cli.FormatTime(f.ModifiedAt()), bak)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing output")
	}
	fmt.Fprintf(w, "\n%d addons, %s\n", len(names), cli.FormatBytes(total))
	return nil
}
