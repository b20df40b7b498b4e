// Package flags provides shared flag accessors for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (backup).
package flags

import (
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/cli/prompt"
	"github.com/thoreinstein/apm/internal/config"
)

var (
	// cfg is the configuration loaded by the root command.
	cfg *config.Config

	// noInput holds the value of the --no-input flag.
	noInput bool
)

// GetConfig returns the loaded configuration, or the defaults when none
// was loaded (tests, or commands that run before loading).
func GetConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// SetConfig sets the configuration seen by subcommands.
func SetConfig(c *config.Config) {
	cfg = c
}

// SetNoInput sets the --no-input flag value.
func SetNoInput(v bool) {
	noInput = v
}

// Interactive reports whether commands may prompt: --no-input was not
// given and both stdin and stdout are terminals.
func Interactive() bool {
	return !noInput && prompt.IsInteractive()
}

// Chooser returns a numbered selector when prompting is possible, or nil
// so callers fail with a hint instead of blocking.
func Chooser() cli.Chooser {
	if !Interactive() {
		return nil
	}
	return prompt.NewSelector()
}
