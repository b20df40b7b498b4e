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
	accountsJSON    bool
	accountsVersion string
)

func init() {
	accountsCmd.Flags().BoolVar(&accountsJSON, "json", false, "Output in JSON format")
	accountsCmd.Flags().StringVar(&accountsVersion, "version", "",
		"version folder to use when the path holds several (e.g. _retail_)")
	rootCmd.AddCommand(accountsCmd)
}

var accountsCmd = &cobra.Command{
	Use:   "accounts <path>",
	Short: "List accounts with saved data",
	Long: `List the accounts of an installation that have a SavedVariables folder.

The path may be the game folder, a version folder such as _retail_, the WTF
or WTF/Account folder, or any folder inside an account.`,
	Example: `  apm accounts "/Applications/World of Warcraft/_retail_"
  apm accounts "C:\Program Files (x86)\World of Warcraft" --version _classic_ --json

  See Also: apm scan, apm addons`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runAccountsWithWriter(c.OutOrStdout(), args[0])
	},
}

// accountOutput represents one account in JSON output.
type accountOutput struct {
	ID            string `json:"id"`
	DataDirectory string `json:"data_directory"`
	Addons        int    `json:"addons"`
}

func runAccountsWithWriter(w io.Writer, path string) error {
	inst, err := cli.ResolveInstallation(path, accountsVersion, flags.Chooser())
	if err != nil {
		return err
	}

	out := make([]accountOutput, len(inst.Accounts))
	for i, a := range inst.Accounts {
		files, err := addon.Enumerate(a.DataDirectory)
		if err != nil {
			return errors.Wrapf(err, "listing addons of %s", a.ID)
		}
		out[i] = accountOutput{ID: a.ID, DataDirectory: a.DataDirectory, Addons: len(files)}
	}

	if accountsJSON {
		return cli.WriteJSON(w, out)
	}

	fmt.Fprintf(w, "%s %s\n", cli.Header.Sprint("Installation:"), inst)
	if len(out) == 0 {
		fmt.Fprintf(w, "  %s\n", cli.Dim.Sprint("(no accounts with saved data)"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, cli.Bold.Sprint("  ACCOUNT\tADDONS\tPATH"))
	for _, a := range out {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", cli.Success.Sprint(a.ID), a.Addons, a.DataDirectory)
	}
	return errors.Wrap(tw.Flush(), "writing output")
}
