package backup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/apm/cmd/apm/commands/flags"
	"github.com/thoreinstein/apm/internal/addon"
	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/config"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
)

const testAccount = "12345678#1"

type env struct {
	root string // version root
	sv   string // SavedVariables
	dest string // backup destination root
}

// setup builds an installation and points the config at a fresh
// destination. Conflicts default to the backup strategy so nothing prompts.
func setup(t *testing.T) *env {
	t.Helper()

	e := &env{
		root: filepath.Join(t.TempDir(), "_retail_"),
		dest: filepath.Join(t.TempDir(), "backups"),
	}
	e.sv = filepath.Join(e.root, install.WTFDir, install.AccountDir, testAccount, install.SavedVariablesDir)
	require.NoError(t, os.MkdirAll(e.sv, 0o755))
	for name, content := range map[string]string{
		"WeakAuras.lua":     "WeakAurasSaved = {}",
		"WeakAuras.lua.bak": "WeakAurasSaved = {old}",
		"Details.lua":       "_detalhes_global = {}",
		"Blizzard_X.lua":    "ignored",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(e.sv, name), []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.Backup.DestinationPath = e.dest
	cfg.Conflicts.Strategy = "backup"
	flags.SetConfig(cfg)
	flags.SetNoInput(true)

	t.Cleanup(func() {
		flags.SetConfig(nil)
		flags.SetNoInput(false)
		resetFlags()
	})
	return e
}

func resetFlags() {
	createName, createAccount, createDest, createVersion = "", "", "", ""
	createAddons, createAll, createJSON = nil, false, false
	createEngine = engineFlags{}
	restoreAccount, restoreVersion = "", ""
	restoreAddons, restoreJSON = nil, false
	restoreEngine = engineFlags{}
	listJSON, listDest, listProfile = false, "", ""
	infoJSON, infoYAML = false, false
	verifyJSON = false
	pruneKeep, pruneProfile, pruneDest = -1, "", ""
}

// create runs backup create and returns the parsed JSON result.
func create(t *testing.T, e *env, name string, addons ...string) *backup.Result {
	t.Helper()
	createName = name
	createAddons = addons
	createAll = len(addons) == 0
	createJSON = true

	var buf bytes.Buffer
	err := runCreateWithWriter(t.Context(), &buf, e.root)

	var res backup.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res), buf.String())
	if res.Success {
		require.NoError(t, err)
	}
	return &res
}

func TestBackupCreate_All(t *testing.T) {
	e := setup(t)

	res := create(t, e, "raid")
	require.True(t, res.Success)
	assert.ElementsMatch(t, []string{"Details.lua", "WeakAuras.lua", "WeakAuras.lua.bak"}, res.CopiedFiles)
	assert.True(t, strings.HasPrefix(filepath.Base(res.DestinationPath), "raid-"))
	assert.FileExists(t, filepath.Join(res.DestinationPath, backup.ManifestFileName))

	m, err := backup.ReadManifest(res.DestinationPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Details", "WeakAuras"}, m.AddonNames())
	assert.Equal(t, testAccount, m.AccountID)
}

func TestBackupCreate_Tabular(t *testing.T) {
	e := setup(t)
	createName = "raid"
	createAddons = []string{"Details"}

	var buf bytes.Buffer
	require.NoError(t, runCreateWithWriter(t.Context(), &buf, e.root))

	out := buf.String()
	assert.Contains(t, out, "[1/1]")
	assert.Contains(t, out, "Details.lua")
	assert.Contains(t, out, "Backup complete")
	assert.Contains(t, out, "Manifest:")
}

func TestBackupCreate_UnknownAddon(t *testing.T) {
	e := setup(t)
	createName = "raid"
	createAddons = []string{"Details", "NoSuchAddon"}
	createJSON = true

	var buf bytes.Buffer
	err := runCreateWithWriter(t.Context(), &buf, e.root)
	require.Error(t, err)

	var exitErr *errors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, errors.ExitSystem, exitErr.Code)
	assert.Contains(t, err.Error(), "NoSuchAddon")

	var res backup.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, []string{"Details.lua"}, res.CopiedFiles)
}

func TestBackupCreate_InvalidStrategy(t *testing.T) {
	e := setup(t)
	createName = "raid"
	createAll = true
	createEngine.strategy = "merge"

	var buf bytes.Buffer
	err := runCreateWithWriter(t.Context(), &buf, e.root)
	assert.Error(t, err)
	assert.NoDirExists(t, e.dest)
}

func TestBackupCreate_PickerNotUsedWithoutTerminal(t *testing.T) {
	e := setup(t)

	called := false
	orig := pickAddons
	pickAddons = func(map[string]*addon.File) ([]string, error) {
		called = true
		return nil, nil
	}
	t.Cleanup(func() { pickAddons = orig })

	res := create(t, e, "raid")
	assert.True(t, res.Success)
	assert.False(t, called)
}

func TestBackupListInfoVerify(t *testing.T) {
	e := setup(t)
	res := create(t, e, "raid")
	require.True(t, res.Success)
	create(t, e, "farm", "Details")

	// list
	listJSON = true
	var buf bytes.Buffer
	require.NoError(t, runListWithWriter(&buf))
	var infos []backup.Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &infos))
	assert.Len(t, infos, 2)

	listProfile = "farm"
	buf.Reset()
	require.NoError(t, runListWithWriter(&buf))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, []string{"Details"}, infos[0].Addons)

	// info
	infoYAML = true
	buf.Reset()
	require.NoError(t, runInfoWithWriter(&buf, res.DestinationPath))
	var m backup.Manifest
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "raid", m.ProfileName)
	assert.Len(t, m.Addons["WeakAuras"].Files, 2)

	infoYAML = false
	buf.Reset()
	require.NoError(t, runInfoWithWriter(&buf, res.DestinationPath))
	assert.Contains(t, buf.String(), "WeakAuras.lua.bak")
	assert.Contains(t, buf.String(), "Profile:  raid")

	// verify
	buf.Reset()
	require.NoError(t, runVerifyWithWriter(&buf, []string{res.DestinationPath}))
	assert.Contains(t, buf.String(), "3 files")

	require.NoError(t, os.WriteFile(filepath.Join(res.DestinationPath, "Details.lua"), []byte("tampered"), 0o644))
	buf.Reset()
	err := runVerifyWithWriter(&buf, []string{res.DestinationPath})
	assert.ErrorIs(t, err, backup.ErrBackupCorrupted)
	assert.Contains(t, buf.String(), "corrupt: Details.lua")
}

func TestBackupList_Empty(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	require.NoError(t, runListWithWriter(&buf))
	assert.Contains(t, buf.String(), "no backups available")

	listJSON = true
	buf.Reset()
	require.NoError(t, runListWithWriter(&buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestBackupInfo_NotABackup(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	err := runInfoWithWriter(&buf, t.TempDir())
	assert.ErrorIs(t, err, backup.ErrManifestNotFound)
}

func TestBackupRestore(t *testing.T) {
	e := setup(t)
	res := create(t, e, "raid")
	require.True(t, res.Success)

	current := filepath.Join(e.sv, "WeakAuras.lua")
	require.NoError(t, os.WriteFile(current, []byte("WeakAurasSaved = {broken}"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(e.sv, "Details.lua")))

	restoreAddons = []string{"WeakAuras", "Details"}
	var buf bytes.Buffer
	require.NoError(t, runRestoreWithWriter(t.Context(), &buf, res.DestinationPath, e.root))
	assert.Contains(t, buf.String(), "Restore complete")

	data, err := os.ReadFile(current)
	require.NoError(t, err)
	assert.Equal(t, "WeakAurasSaved = {}", string(data))

	preserved, err := os.ReadFile(current + ".backup")
	require.NoError(t, err)
	assert.Equal(t, "WeakAurasSaved = {broken}", string(preserved))

	assert.FileExists(t, filepath.Join(e.sv, "Details.lua"))
}

func TestBackupRestore_SkipStrategy(t *testing.T) {
	e := setup(t)
	res := create(t, e, "raid", "Details")
	require.True(t, res.Success)

	current := filepath.Join(e.sv, "Details.lua")
	require.NoError(t, os.WriteFile(current, []byte("newer"), 0o644))

	restoreEngine.strategy = "skip"
	restoreJSON = true
	var buf bytes.Buffer
	require.NoError(t, runRestoreWithWriter(t.Context(), &buf, res.DestinationPath, e.root))

	var out backup.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{"Details.lua"}, out.SkippedFiles)

	data, err := os.ReadFile(current)
	require.NoError(t, err)
	assert.Equal(t, "newer", string(data))
}

func TestBackupRestore_UnknownAccount(t *testing.T) {
	e := setup(t)
	res := create(t, e, "raid", "Details")
	require.True(t, res.Success)

	restoreAccount = "999#9"
	var buf bytes.Buffer
	err := runRestoreWithWriter(t.Context(), &buf, res.DestinationPath, e.root)
	assert.Error(t, err)
}

func TestBackupPrune_PerProfile(t *testing.T) {
	e := setup(t)
	for range 3 {
		require.True(t, create(t, e, "raid", "Details").Success)
	}
	require.True(t, create(t, e, "farm", "Details").Success)

	pruneKeep = 1
	var buf bytes.Buffer
	require.NoError(t, runPruneWithWriter(&buf))
	assert.Contains(t, buf.String(), "Pruned 2 backup(s)")

	infos, err := backup.List(e.dest)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	profiles := []string{infos[0].ProfileName, infos[1].ProfileName}
	assert.ElementsMatch(t, []string{"raid", "farm"}, profiles)

	buf.Reset()
	require.NoError(t, runPruneWithWriter(&buf))
	assert.Contains(t, buf.String(), "No backups to prune.")
}

func TestBackupPrune_NoBackups(t *testing.T) {
	setup(t)

	var buf bytes.Buffer
	require.NoError(t, runPruneWithWriter(&buf))
	assert.Contains(t, buf.String(), "No backups to prune.")
}
