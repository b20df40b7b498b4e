package install

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
)

func dataPaths(insts []Installation) []string {
	out := make([]string, len(insts))
	for i, inst := range insts {
		out[i] = inst.DataPath
	}
	return out
}

func TestScanner_ScanInstallations(t *testing.T) {
	root := t.TempDir()
	wow := filepath.Join(root, "World of Warcraft")
	retail := makeAccount(t, filepath.Join(wow, "_retail_"), "A")
	classic := makeAccount(t, filepath.Join(wow, "_classic_"), "A")
	ptr := makeAccount(t, filepath.Join(wow, "_ptr_"), "A")
	beta := makeAccount(t, filepath.Join(wow, "_beta_"), "A")

	tests := []struct {
		name string
		cfg  ScanConfig
		want []string
	}{
		{
			name: "default excludes beta and ptr",
			cfg:  ScanConfig{Roots: []string{root}},
			want: []string{classic, retail},
		},
		{
			name: "include ptr",
			cfg:  ScanConfig{Roots: []string{root}, IncludePTR: true},
			want: []string{classic, ptr, retail},
		},
		{
			name: "include everything",
			cfg:  ScanConfig{Roots: []string{root}, IncludePTR: true, IncludeBeta: true},
			want: []string{beta, classic, ptr, retail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.cfg, WithLogger(logging.ForTest(t)))
			got, err := s.ScanInstallations(t.Context())
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, dataPaths(got))
		})
	}
}

func TestScanner_SkipsMissingRoots(t *testing.T) {
	root := t.TempDir()
	data := makeAccount(t, filepath.Join(root, "wow", "_retail_"), "A")

	s := NewScanner(ScanConfig{Roots: []string{filepath.Join(root, "absent"), root}})
	got, err := s.ScanInstallations(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{data}, dataPaths(got))
}

func TestScanner_SkipsUnreadableRoots(t *testing.T) {
	fileRoot := func(t *testing.T) string {
		path := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		return path
	}
	lockedDir := func(t *testing.T) string {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced here")
		}
		dir := filepath.Join(t.TempDir(), "locked")
		makeAccount(t, filepath.Join(dir, "_retail_"), "B")
		require.NoError(t, os.Chmod(dir, 0o000))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
		return dir
	}

	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{name: "regular file", root: fileRoot},
		{name: "no permission", root: lockedDir},
		{
			name: "no permission below root",
			root: func(t *testing.T) string {
				locked := lockedDir(t)
				return filepath.Dir(locked)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := t.TempDir()
			data := makeAccount(t, filepath.Join(good, "wow", "_retail_"), "A")

			s := NewScanner(ScanConfig{Roots: []string{tt.root(t), good}}, WithLogger(logging.ForTest(t)))
			got, err := s.ScanInstallations(t.Context())
			require.NoError(t, err)
			assert.Equal(t, []string{data}, dataPaths(got))
		})
	}
}

func TestScanner_Deduplicates(t *testing.T) {
	root := t.TempDir()
	data := makeAccount(t, filepath.Join(root, "wow", "_retail_"), "A")

	s := NewScanner(ScanConfig{Roots: []string{root, filepath.Join(root, "wow"), data}})
	got, err := s.ScanInstallations(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{data}, dataPaths(got))
}

func TestScanner_MaxDepth(t *testing.T) {
	root := t.TempDir()
	makeAccount(t, filepath.Join(root, "a", "b", "c", "d", "_retail_"), "A")

	shallow := NewScanner(ScanConfig{Roots: []string{root}, MaxDepth: 2})
	got, err := shallow.ScanInstallations(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got)

	deep := NewScanner(ScanConfig{Roots: []string{root}, MaxDepth: 5})
	got, err = deep.ScanInstallations(t.Context())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestScanner_Symlinks(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	makeAccount(t, filepath.Join(elsewhere, "wow", "_retail_"), "A")
	if err := os.Symlink(filepath.Join(elsewhere, "wow"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := NewScanner(ScanConfig{Roots: []string{root}}).ScanInstallations(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewScanner(ScanConfig{Roots: []string{root}, FollowSymlinks: true}).ScanInstallations(t.Context())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestScanner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewScanner(ScanConfig{Roots: []string{t.TempDir()}}).ScanInstallations(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddManual(t *testing.T) {
	root := t.TempDir()
	data := makeAccount(t, filepath.Join(root, "_beta_"), "A")

	// Manual additions bypass kind filters.
	s := NewScanner(ScanConfig{}, WithLogger(logging.ForTest(t)))
	inst, err := s.AddManual(root, "")
	require.NoError(t, err)
	assert.Equal(t, data, inst.DataPath)
	assert.Equal(t, KindBeta, inst.Kind)
	assert.Equal(t, []string{"A"}, inst.AccountIDs())

	_, err = s.AddManual(filepath.Join(root, "missing"), "")
	assert.True(t, errors.Is(err, ErrPathNotFound))
}

func TestGetAccounts(t *testing.T) {
	root := t.TempDir()
	data := makeAccount(t, root, "ZED")
	makeAccount(t, root, "12345678#1")
	// Malformed entries are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(data, "NoSaved"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(data, ".hidden", SavedVariablesDir), 0o755))
	makeFile(t, filepath.Join(data, "stray.txt"))

	accounts, err := GetAccounts(&Installation{DataPath: data})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "12345678#1", accounts[0].ID)
	assert.Equal(t, "ZED", accounts[1].ID)
	assert.Equal(t, filepath.Join(data, "ZED", SavedVariablesDir), accounts[1].DataDirectory)
}

func TestGetAccounts_MissingDirectory(t *testing.T) {
	_, err := GetAccounts(&Installation{DataPath: filepath.Join(t.TempDir(), "gone")})
	assert.True(t, errors.Is(err, ErrDirectoryNotFound))
}

func TestInstallation_Helpers(t *testing.T) {
	root := t.TempDir()
	data := makeAccount(t, filepath.Join(root, "_retail_"), "A")
	makeFile(t, filepath.Join(data, "A", SavedVariablesDir, "Bartender4.lua"))

	inst, err := Open(root)
	require.NoError(t, err)

	require.NoError(t, inst.Validate())
	acct, ok := inst.Account("A")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(data, "A", SavedVariablesDir), acct.DataDirectory)
	_, ok = inst.Account("B")
	assert.False(t, ok)
	assert.Equal(t, int64(1), inst.Size())

	require.NoError(t, os.RemoveAll(data))
	assert.True(t, errors.Is(inst.Validate(), ErrDirectoryNotFound))
}
