package backup

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/paths"
)

var (
	infoJSON bool
	infoYAML bool
)

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output the manifest in JSON format")
	infoCmd.Flags().BoolVar(&infoYAML, "yaml", false, "Output the manifest in YAML format")
	infoCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	Cmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <backup-dir>",
	Short: "Show a backup's manifest",
	Long: `Show what a backup holds: its profile, source installation, and each
addon's files with their sizes and checksums. Nothing is modified.`,
	Example: `  apm backup info ~/AddonBackups/raid-20261017T100000
  apm backup info ~/AddonBackups/raid-20261017T100000 --yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runInfoWithWriter(c.OutOrStdout(), args[0])
	},
}

func runInfoWithWriter(w io.Writer, dir string) error {
	dir = paths.ExpandHome(dir)

	m, err := backup.ReadManifest(dir)
	if err != nil {
		if errors.Is(err, backup.ErrManifestNotFound) {
			return errors.NewUserError(err, "Run 'apm backup list' to find backups")
		}
		return err
	}

	switch {
	case infoJSON:
		return cli.WriteJSON(w, m)
	case infoYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return errors.Wrap(err, "encoding output")
		}
		return errors.Wrap(enc.Close(), "encoding output")
	}

	info, err := backup.GetBackupInfo(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n", cli.Header.Sprint("Backup:"), dir)
	fmt.Fprintf(w, "  Profile:  %s\n", info.ProfileName)
	fmt.Fprintf(w, "  Account:  %s\n", info.AccountID)
	fmt.Fprintf(w, "  Source:   %s %s\n", m.SourceInstallation.Kind, m.SourceInstallation.RootPath)
	fmt.Fprintf(w, "  Created:  %s\n", cli.FormatTime(info.CreatedAt))
	fmt.Fprintf(w, "  Files:    %d (%s)\n", info.FileCount, cli.FormatBytes(info.TotalBytes))
	fmt.Fprintf(w, "  Version:  %s\n", info.ToolVersion)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, cli.Bold.Sprint("  FILE\tSIZE\tSHA-256"))
	for _, name := range m.AddonNames() {
		for _, f := range m.Addons[name].Files {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", cli.Success.Sprint(f.Name), cli.FormatBytes(f.Size), cli.Dim.Sprint(short(f.Checksum)))
		}
	}
	return errors.Wrap(tw.Flush(), "writing output")
}

// short abbreviates a checksum for tables.
func short(sum string) string {
	if len(sum) <= 12 {
		return sum
	}
	return sum[:12]
}
