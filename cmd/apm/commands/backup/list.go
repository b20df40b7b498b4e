package backup

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
)

var (
	listJSON    bool
	listDest    string
	listProfile string
)

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listDest, "dest", "", "destination root (default: backup.destination_path)")
	listCmd.Flags().StringVar(&listProfile, "profile", "", "only list backups of this profile")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups",
	Long: `List the backups stored under the destination root, newest first.

A folder counts as a backup when it holds a readable backup_manifest.json.`,
	Example: `  # List all backups
  apm backup list

  # Backups of one profile, as JSON
  apm backup list --profile raid --json

  See Also:
    apm backup info    - Show one backup's manifest
    apm backup restore - Restore from a backup`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runListWithWriter(c.OutOrStdout())
	},
}

func runListWithWriter(w io.Writer) error {
	root := destinationRoot(listDest)

	infos, err := backup.List(root)
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return errors.Wrapf(err, "listing backups in %s", root)
	}

	if listProfile != "" {
		filtered := infos[:0]
		for _, i := range infos {
			if i.ProfileName == listProfile {
				filtered = append(filtered, i)
			}
		}
		infos = filtered
	}

	if listJSON {
		if infos == nil {
			infos = []backup.Info{}
		}
		return cli.WriteJSON(w, infos)
	}

	fmt.Fprintf(w, "%s %s\n", cli.Header.Sprint("Backups in"), root)
	if len(infos) == 0 {
		fmt.Fprintf(w, "  %s\n", cli.Dim.Sprint("(no backups available)"))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: apm backup create <path> --name <profile>")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, cli.Bold.Sprint("  PROFILE\tCREATED\tACCOUNT\tADDONS\tSIZE\tFOLDER"))
	for _, i := range infos {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\t%s\n",
			cli.Success.Sprint(i.ProfileName),
			cli.FormatTime(i.CreatedAt),
			i.AccountID,
			len(i.Addons),
			cli.FormatBytes(i.TotalBytes),
			i.Path)
	}
	return errors.Wrap(tw.Flush(), "writing output")
}
