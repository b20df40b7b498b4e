package commands

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/config"
	"github.com/thoreinstein/apm/internal/errors"
)

var (
	configShowFormat string
	configInitForce  bool
)

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "toml", "output format: toml, yaml, json")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage apm configuration",
	Long: `Manage apm configuration stored in config.toml.

Without a subcommand, shows the effective configuration.`,
	Example: `  # Show the effective configuration
  apm config

  # Write a config file with the defaults
  apm config init

  # Change the conflict strategy
  apm config set conflicts.strategy backup

See Also: apm config path`,
	RunE: func(c *cobra.Command, _ []string) error {
		return runConfigShowWithWriter(c.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file, and APM_*
environment overrides are applied.`,
	Example: `  apm config show
  apm config show --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runConfigShowWithWriter(c.OutOrStdout())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Keys use dot notation (backup.destination_path). List values are printed
one per line.`,
	Example: `  apm config get conflicts.strategy
  apm config get scan.paths`,
	Args: cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return runConfigGetWithWriter(c.OutOrStdout(), args[0])
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write the config file.

For scan.paths, use comma-separated values. The whole configuration is
validated before anything is written.`,
	Example: `  apm config set conflicts.strategy skip
  apm config set scan.paths "/Applications/World of Warcraft,/Volumes/Games/WoW"`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		return runConfigSetWithWriter(c.OutOrStdout(), args[0], args[1])
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Write config.toml with the default settings, including the scan roots
detected for this platform. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runConfigInitWithWriter(c.OutOrStdout())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, _ []string) {
		fmt.Fprintln(c.OutOrStdout(), configFile())
	},
}

// configFile is the file config set and init write to.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	if used := config.ConfigFileUsed(); used != "" {
		return used
	}
	return config.File()
}

func runConfigShowWithWriter(w io.Writer) error {
	cfg := flags.GetConfig()

	switch configShowFormat {
	case "json":
		return cli.WriteJSON(w, cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "marshaling config")
		}
		_, err = w.Write(data)
		return errors.Wrap(err, "writing output")
	case "toml", "":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "marshaling config")
		}
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Fprintf(w, "# %s\n", used)
		} else {
			fmt.Fprintln(w, "# defaults (no config file)")
		}
		_, err = w.Write(data)
		return errors.Wrap(err, "writing output")
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", configShowFormat), "Use --format toml, yaml or json")
	}
}

func runConfigGetWithWriter(w io.Writer, key string) error {
	if !viper.IsSet(key) {
		return errors.NewUserError(errors.Wrapf(config.ErrUnknownKey, "%q", key), "Run: apm config show")
	}

	switch v := viper.Get(key).(type) {
	case []any:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case []string:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	default:
		fmt.Fprintln(w, viper.GetString(key))
	}
	return nil
}

func runConfigSetWithWriter(w io.Writer, key, value string) error {
	cfg, err := config.Set(key, value)
	if err != nil {
		return errors.NewUserError(err, "Run: apm config show")
	}

	path, err := config.Save(cfg, configFile(), true)
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	flags.SetConfig(cfg)

	fmt.Fprintf(w, "%s %s = %s\n", cli.Success.Sprint("Set"), key, viper.GetString(key))
	fmt.Fprintf(w, "  %s\n", cli.Dim.Sprint(path))
	return nil
}

func runConfigInitWithWriter(w io.Writer) error {
	path, err := config.Save(config.Default(), configFile(), configInitForce)
	if err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return errors.NewUserError(err, "Use --force to overwrite it")
		}
		return errors.NewSystemError(err, "")
	}

	fmt.Fprintf(w, "%s %s\n", cli.Success.Sprint("Wrote"), path)
	return nil
}
