package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/paths"
	"github.com/thoreinstein/apm/pkg/fileutil"
)

// ErrConfigExists is returned by Save when the file exists and overwrite
// was not requested.
var ErrConfigExists = errors.New("config file already exists")

// Save writes cfg to path as TOML. An empty path means File().
func Save(cfg *Config, path string, overwrite bool) (string, error) {
	if path == "" {
		path = File()
	}
	path = paths.ExpandHome(path)

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, errors.Wrapf(ErrConfigExists, "%s", path)
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, "encoding config")
	}

	if err := paths.EnsureDir(filepath.Dir(path), 0); err != nil {
		return "", errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteFile(path, data, 0o600); err != nil {
		return "", errors.Wrap(err, "writing config")
	}
	return path, nil
}

// ErrUnknownKey is returned by Set for keys outside the configuration.
var ErrUnknownKey = errors.New("unknown config key")

// Keys returns every configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults()))
	for k := range defaults() {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set overrides key in the current viper state and returns the validated
// result. scan.paths takes a comma-separated list. Nothing is written;
// pass the result to Save.
func Set(key, value string) (*Config, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !slices.Contains(Keys(), key) {
		return nil, errors.Wrapf(ErrUnknownKey, "%q", key)
	}

	if key == "scan.paths" {
		var list []string
		for p := range strings.SplitSeq(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		viper.Set(key, list)
	} else {
		viper.Set(key, value)
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
