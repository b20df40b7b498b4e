// Package commands implements the CLI commands for apm.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/apm/cmd"
	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/config"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
	"github.com/thoreinstein/apm/internal/paths"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configPath holds the value of the --config flag.
var configPath string

// noColor holds the value of the --no-color flag.
var noColor bool

// noInput holds the value of the --no-input flag.
var noInput bool

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv, -vvv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format: text, json (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default: <config dir>/apm/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false,
		"never prompt; fall back to configured policies")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("apm version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	cfg, err := config.Load(configPath)
	configLoadErr = err
	if err == nil {
		flags.SetConfig(cfg)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apm",
	Short: "Back up and restore addon saved variables",
	Long: `apm finds World of Warcraft installations, lists the accounts and
addons that have saved data, and copies that data into verifiable backups.

A backup is a folder of SavedVariables files plus a backup_manifest.json
that records a SHA-256 checksum for every file. Backups can be verified,
restored into any account, and pruned.

Configuration is read from config.toml in the apm config directory
(see 'apm config path'), then from APM_* environment variables.`,
	Example: `  # Find installations
  apm scan

  # List addons with saved data for one account
  apm addons "/Applications/World of Warcraft/_retail_" --account 12345678#1

  # Back up two addons
  apm backup create "/Applications/World of Warcraft/_retail_" --name raid --addon WeakAuras --addon Details

  See Also: apm backup, apm config`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || flags.GetConfig().NoColor {
			color.NoColor = true
		}
		flags.SetNoInput(noInput)

		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger from the verbosity flags,
// falling back to the logging section of the config.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("cannot use --quiet and --verbose together"), "")
	}

	cfg := flags.GetConfig()

	var level slog.Level
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity > 0:
		level = logging.LevelFromVerbosity(verbosity)
	default:
		level = logging.ParseLevel(cfg.Logging.Level)
	}

	format := logging.Format(cfg.Logging.Format)
	if logFormat != "" {
		format = logging.Format(logFormat)
	}
	switch format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return errors.NewUserError(errors.Newf("invalid log format %q", logFormat), "Use --log-format text or --log-format json")
	}

	primary := logging.New(logging.Config{
		Level:   level,
		Format:  format,
		Output:  cmd.ErrOrStderr(),
		NoColor: color.NoColor,
	})
	var fileHandler slog.Handler
	file := logFile
	if file == "" {
		file = cfg.Logging.File
	}
	if file != "" {
		h, _, err := logging.OpenFile(paths.ExpandHome(file), level)
		if err != nil {
			return errors.NewUserError(err, "Check --log-file or logging.file")
		}
		fileHandler = h
	}

	handler := logging.Tee(primary.Handler(), fileHandler)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig reports config load errors. Commands that must work with a
// broken config file are exempt.
func checkConfig(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "help", "version", "path", "doctor":
		return nil
	case "init":
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}
	}

	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	return nil
}

// Execute runs the root command. Errors are returned unwrapped so
// ReportError prints the command's own message.
func Execute() error {
	return rootCmd.Execute()
}

// ReportError prints err and what to try next, and returns the process
// exit code.
func ReportError(w io.Writer, err error) int {
	red := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(w, "%s %s\n", red.Sprint("Error:"), errors.Message(err))
	for _, s := range errors.Suggestions(err) {
		fmt.Fprintf(w, "  %s\n", s)
	}
	return errors.ExitCode(err)
}
