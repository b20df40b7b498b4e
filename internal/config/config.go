// Package config provides configuration management for apm using Viper.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/thoreinstein/apm/internal/conflict"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
	"github.com/thoreinstein/apm/internal/paths"
)

// EnvPrefix prefixes every environment override (APM_BACKUP_DESTINATION_PATH, ...).
const EnvPrefix = "APM"

// Environment variables read outside the key space.
const (
	// EnvDataDir moves the directory holding config.toml.
	EnvDataDir = "APM_DATA_DIR"
	// EnvNoColor disables colored output. NO_COLOR is honored as well.
	EnvNoColor = "APM_NO_COLOR"
)

// Config represents the top-level configuration structure.
type Config struct {
	Backup    BackupConfig    `mapstructure:"backup" toml:"backup" yaml:"backup" json:"backup"`
	Scan      ScanConfig      `mapstructure:"scan" toml:"scan" yaml:"scan" json:"scan"`
	Conflicts ConflictsConfig `mapstructure:"conflicts" toml:"conflicts" yaml:"conflicts" json:"conflicts"`
	Logging   LoggingConfig   `mapstructure:"logging" toml:"logging" yaml:"logging" json:"logging"`

	// NoColor comes from the environment only.
	NoColor bool `mapstructure:"-" toml:"-" yaml:"-" json:"-"`
}

// BackupConfig controls where and how backups are written.
type BackupConfig struct {
	DestinationPath       string `mapstructure:"destination_path" toml:"destination_path" yaml:"destination_path" json:"destination_path"`
	CreateTimestampFolder bool   `mapstructure:"create_timestamp_folder" toml:"create_timestamp_folder" yaml:"create_timestamp_folder" json:"create_timestamp_folder"`
	ValidateIntegrity     bool   `mapstructure:"validate_integrity" toml:"validate_integrity" yaml:"validate_integrity" json:"validate_integrity"`
	CompressBackup        bool   `mapstructure:"compress_backup" toml:"compress_backup" yaml:"compress_backup" json:"compress_backup"`
	RetentionCount        int    `mapstructure:"retention_count" toml:"retention_count" yaml:"retention_count" json:"retention_count"`
}

// ScanConfig controls installation discovery.
type ScanConfig struct {
	Paths          []string `mapstructure:"paths" toml:"paths" yaml:"paths" json:"paths"`
	IncludeBeta    bool     `mapstructure:"include_beta" toml:"include_beta" yaml:"include_beta" json:"include_beta"`
	IncludePTR     bool     `mapstructure:"include_ptr" toml:"include_ptr" yaml:"include_ptr" json:"include_ptr"`
	MaxDepth       int      `mapstructure:"max_depth" toml:"max_depth" yaml:"max_depth" json:"max_depth"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks" toml:"follow_symlinks" yaml:"follow_symlinks" json:"follow_symlinks"`
}

// ConflictsConfig is the conflict policy.
type ConflictsConfig struct {
	Strategy       string `mapstructure:"strategy" toml:"strategy" yaml:"strategy" json:"strategy"`
	BackupExisting bool   `mapstructure:"backup_existing" toml:"backup_existing" yaml:"backup_existing" json:"backup_existing"`
	BackupSuffix   string `mapstructure:"backup_suffix" toml:"backup_suffix" yaml:"backup_suffix" json:"backup_suffix"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" toml:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" toml:"file" yaml:"file" json:"file"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(Dir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, value := range defaults() {
		viper.SetDefault(key, value)
	}
}

func defaults() map[string]any {
	return map[string]any{
		"backup.destination_path":        paths.DefaultBackupDir(),
		"backup.create_timestamp_folder": true,
		"backup.validate_integrity":      true,
		"backup.compress_backup":         false,
		"backup.retention_count":         10,
		"scan.paths":                     paths.DefaultScanRoots(),
		"scan.include_beta":              false,
		"scan.include_ptr":               false,
		"scan.max_depth":                 install.DefaultMaxDepth,
		"scan.follow_symlinks":           false,
		"conflicts.strategy":             string(conflict.StrategyPrompt),
		"conflicts.backup_existing":      true,
		"conflicts.backup_suffix":        conflict.DefaultSuffix,
		"logging.level":                  "warn",
		"logging.format":                 "text",
		"logging.file":                   "",
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backup: BackupConfig{
			DestinationPath:       paths.DefaultBackupDir(),
			CreateTimestampFolder: true,
			ValidateIntegrity:     true,
			RetentionCount:        10,
		},
		Scan: ScanConfig{
			Paths:    paths.DefaultScanRoots(),
			MaxDepth: install.DefaultMaxDepth,
		},
		Conflicts: ConflictsConfig{
			Strategy:       string(conflict.StrategyPrompt),
			BackupExisting: true,
			BackupSuffix:   conflict.DefaultSuffix,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		NoColor: noColor(),
	}
}

// Dir returns the directory holding config.toml, honoring APM_DATA_DIR.
func Dir() string {
	return paths.ConfigDir(os.Getenv(EnvDataDir))
}

// File returns the default config file path.
func File() string {
	return paths.ConfigFile(os.Getenv(EnvDataDir))
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default location and falls back to
// defaults when no file exists.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(paths.ExpandHome(path))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if path != "" {
				return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
			}
		case path != "" && errors.Is(err, os.ErrNotExist):
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		default:
			return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidConfig), "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidConfig), "unmarshaling config")
	}
	cfg.NoColor = noColor()

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrap(errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig), "validating config")
	}

	return &cfg, nil
}

// ConfigFileUsed returns the file Load read, or "" when defaults were used.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// Policy converts the conflicts section to a conflict policy.
func (c *Config) Policy() conflict.Policy {
	strategy, err := conflict.ParseStrategy(c.Conflicts.Strategy)
	if err != nil {
		strategy = conflict.StrategyPrompt
	}
	return conflict.Policy{
		Strategy:       strategy,
		BackupExisting: c.Conflicts.BackupExisting,
		BackupSuffix:   c.Conflicts.BackupSuffix,
	}
}

// ScanOptions converts the scan section to scanner settings.
func (c *Config) ScanOptions() install.ScanConfig {
	roots := make([]string, len(c.Scan.Paths))
	for i, p := range c.Scan.Paths {
		roots[i] = paths.ExpandHome(p)
	}
	return install.ScanConfig{
		Roots:          roots,
		IncludeBeta:    c.Scan.IncludeBeta,
		IncludePTR:     c.Scan.IncludePTR,
		MaxDepth:       c.Scan.MaxDepth,
		FollowSymlinks: c.Scan.FollowSymlinks,
	}
}

func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	v := strings.ToLower(os.Getenv(EnvNoColor))
	return v != "" && v != "0" && v != "false"
}
