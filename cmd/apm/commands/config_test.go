package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/config"
)

// loadTestConfig points the config layer at a temp dir and loads it.
func loadTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvDataDir, dir)
	config.Init()
	cfg, err := config.Load("")
	require.NoError(t, err)
	withConfig(t, cfg)
	return dir
}

func TestConfigShow_Formats(t *testing.T) {
	loadTestConfig(t)
	t.Cleanup(func() { configShowFormat = "toml" })

	var buf bytes.Buffer
	configShowFormat = "toml"
	require.NoError(t, runConfigShowWithWriter(&buf))
	assert.Contains(t, buf.String(), "# defaults (no config file)")
	assert.Contains(t, buf.String(), "[conflicts]")

	buf.Reset()
	configShowFormat = "yaml"
	require.NoError(t, runConfigShowWithWriter(&buf))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &y))
	assert.Contains(t, y, "backup")

	buf.Reset()
	configShowFormat = "json"
	require.NoError(t, runConfigShowWithWriter(&buf))
	var j map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &j))
	assert.Contains(t, j, "scan")
	assert.NotContains(t, j, "NoColor")

	configShowFormat = "ini"
	assert.Error(t, runConfigShowWithWriter(&buf))
}

func TestConfigInit(t *testing.T) {
	dir := loadTestConfig(t)
	t.Cleanup(func() { configInitForce = false })

	var buf bytes.Buffer
	require.NoError(t, runConfigInitWithWriter(&buf))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Contains(t, buf.String(), "Wrote")

	err := runConfigInitWithWriter(&buf)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	configInitForce = true
	assert.NoError(t, runConfigInitWithWriter(&buf))
}

func TestConfigSetGet(t *testing.T) {
	dir := loadTestConfig(t)

	var buf bytes.Buffer
	require.NoError(t, runConfigSetWithWriter(&buf, "conflicts.strategy", "skip"))
	assert.Equal(t, "skip", flags.GetConfig().Conflicts.Strategy)

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "strategy = 'skip'")

	buf.Reset()
	require.NoError(t, runConfigGetWithWriter(&buf, "conflicts.strategy"))
	assert.Equal(t, "skip\n", buf.String())

	require.NoError(t, runConfigSetWithWriter(&buf, "scan.paths", "/a,/b"))
	buf.Reset()
	require.NoError(t, runConfigGetWithWriter(&buf, "scan.paths"))
	assert.Equal(t, "/a\n/b\n", buf.String())

	assert.Error(t, runConfigSetWithWriter(&buf, "conflicts.strategy", "merge"))
	assert.Error(t, runConfigGetWithWriter(&buf, "nope.key"))
}
