package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
	"github.com/thoreinstein/apm/internal/logging"
)

var (
	scanJSON        bool
	scanPaths       []string
	scanVersion     string
	scanIncludeBeta bool
	scanIncludePTR  bool
	scanDepth       int
	scanSize        bool
)

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output in JSON format")
	scanCmd.Flags().StringArrayVar(&scanPaths, "path", nil,
		"add an installation by path (repeatable); errors are reported")
	scanCmd.Flags().StringVar(&scanVersion, "version", "",
		"version folder to use when a --path holds several (e.g. _classic_)")
	scanCmd.Flags().BoolVar(&scanIncludeBeta, "include-beta", false, "include beta installations")
	scanCmd.Flags().BoolVar(&scanIncludePTR, "include-ptr", false, "include PTR installations")
	scanCmd.Flags().IntVar(&scanDepth, "depth", 0, "maximum directory depth below each root (default from config)")
	scanCmd.Flags().BoolVar(&scanSize, "size", false, "compute the saved data size of each installation")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find installations on this machine",
	Long: `Scan the configured roots (scan.paths) for World of Warcraft installations.

Each root is walked up to scan.max_depth levels. Installation roots that hold
several versions (_retail_, _classic_, ...) are listed once per version.
Beta and PTR installations are skipped unless enabled in the config or with
--include-beta / --include-ptr.

Use --path to add an installation the scan does not reach.`,
	Example: `  # Scan the configured roots
  apm scan

  # Include PTR clients and show data sizes
  apm scan --include-ptr --size

  # Add an installation outside the scan roots
  apm scan --path "D:\Games\World of Warcraft" --version _retail_

  See Also: apm accounts, apm addons`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runScanWithWriter(c.Context(), c.OutOrStdout())
	},
}

// scanOutput represents one installation in JSON output.
type scanOutput struct {
	Kind      install.Kind `json:"kind"`
	Version   string       `json:"version,omitempty"`
	RootPath  string       `json:"root_path"`
	DataPath  string       `json:"data_path"`
	Accounts  []string     `json:"accounts"`
	SizeBytes *int64       `json:"size_bytes,omitempty"`
}

func runScanWithWriter(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := flags.GetConfig().ScanOptions()
	if scanIncludeBeta {
		opts.IncludeBeta = true
	}
	if scanIncludePTR {
		opts.IncludePTR = true
	}
	if scanDepth > 0 {
		opts.MaxDepth = scanDepth
	}

	scanner := install.NewScanner(opts, install.WithLogger(logging.FromContext(ctx)))
	found, err := scanner.ScanInstallations(ctx)
	if err != nil {
		return errors.Wrap(err, "scanning installations")
	}

	seen := make(map[string]bool, len(found))
	for _, inst := range found {
		seen[inst.DataPath] = true
	}
	for _, p := range scanPaths {
		inst, err := scanner.AddManual(p, scanVersion)
		if err != nil {
			return errors.NewUserError(err, "Check the path, or pass --version for a root with several versions")
		}
		if !seen[inst.DataPath] {
			seen[inst.DataPath] = true
			found = append(found, *inst)
		}
	}

	if scanJSON {
		out := make([]scanOutput, len(found))
		for i, inst := range found {
			out[i] = scanOutput{
				Kind:     inst.Kind,
				Version:  inst.Version,
				RootPath: inst.RootPath,
				DataPath: inst.DataPath,
				Accounts: inst.AccountIDs(),
			}
			if scanSize {
				size := inst.Size()
				out[i].SizeBytes = &size
			}
		}
		return cli.WriteJSON(w, out)
	}

	if len(found) == 0 {
		fmt.Fprintln(w, "No installations found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Add your game folder to scan.paths in the config, or run:")
		fmt.Fprintln(w, "  apm scan --path <game folder>")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "KIND\tVERSION\tACCOUNTS\tPATH"
	if scanSize {
		header = "KIND\tVERSION\tACCOUNTS\tSIZE\tPATH"
	}
	fmt.Fprintln(tw, cli.Bold.Sprint(header))
	for _, inst := range found {
		version := inst.Version
		if version == "" {
			version = "-"
		}
		if scanSize {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				cli.Success.Sprint(inst.Kind), version, len(inst.Accounts),
				cli.FormatBytes(inst.Size()), inst.RootPath)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			cli.Success.Sprint(inst.Kind), version, len(inst.Accounts), inst.RootPath)
	}
	return errors.Wrap(tw.Flush(), "writing output")
}
