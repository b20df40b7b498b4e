package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/apm/internal/config"
	"github.com/thoreinstein/apm/internal/install"
)

// makeGame creates <tmp>/World of Warcraft/<version>/WTF/Account/<account>/
// SavedVariables for each version and fills it with files.
func makeGame(t *testing.T, account string, files map[string]string, versions ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "World of Warcraft")
	for _, v := range versions {
		sv := filepath.Join(root, v, install.WTFDir, install.AccountDir, account, install.SavedVariablesDir)
		require.NoError(t, os.MkdirAll(sv, 0o755))
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(sv, name), []byte(content), 0o644))
		}
	}
	return root
}

func resetScanFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		scanJSON = false
		scanPaths = nil
		scanVersion = ""
		scanIncludeBeta = false
		scanIncludePTR = false
		scanDepth = 0
		scanSize = false
	})
}

func TestScan_Tabular(t *testing.T) {
	resetScanFlags(t)
	game := makeGame(t, "111#1", map[string]string{"Details.lua": "x"}, "_retail_", "_classic_", "_ptr_")

	cfg := config.Default()
	cfg.Scan.Paths = []string{filepath.Dir(game)}
	withConfig(t, cfg)

	var buf bytes.Buffer
	require.NoError(t, runScanWithWriter(t.Context(), &buf))

	out := buf.String()
	assert.Contains(t, out, "_retail_")
	assert.Contains(t, out, "_classic_")
	assert.NotContains(t, out, "_ptr_", "PTR is filtered by default")

	buf.Reset()
	scanIncludePTR = true
	require.NoError(t, runScanWithWriter(t.Context(), &buf))
	assert.Contains(t, buf.String(), "_ptr_")
}

func TestScan_JSONWithSize(t *testing.T) {
	resetScanFlags(t)
	game := makeGame(t, "111#1", map[string]string{"Details.lua": "12345"}, "_retail_")

	cfg := config.Default()
	cfg.Scan.Paths = []string{game}
	withConfig(t, cfg)

	scanJSON = true
	scanSize = true

	var buf bytes.Buffer
	require.NoError(t, runScanWithWriter(t.Context(), &buf))

	var out []scanOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, install.KindRetail, out[0].Kind)
	assert.Equal(t, []string{"111#1"}, out[0].Accounts)
	require.NotNil(t, out[0].SizeBytes)
	assert.Equal(t, int64(5), *out[0].SizeBytes)
}

func TestScan_ManualPath(t *testing.T) {
	resetScanFlags(t)
	game := makeGame(t, "111#1", nil, "_retail_", "_classic_")

	cfg := config.Default()
	cfg.Scan.Paths = nil
	withConfig(t, cfg)

	var buf bytes.Buffer
	require.NoError(t, runScanWithWriter(t.Context(), &buf))
	assert.Contains(t, buf.String(), "No installations found.")

	scanPaths = []string{game}
	buf.Reset()
	err := runScanWithWriter(t.Context(), &buf)
	assert.ErrorIs(t, err, install.ErrAmbiguousInstallation)

	scanVersion = "_classic_"
	buf.Reset()
	require.NoError(t, runScanWithWriter(t.Context(), &buf))
	assert.Contains(t, buf.String(), "classic")
}
