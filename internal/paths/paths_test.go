package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/apm/internal/errors"
)

func TestHome(t *testing.T) {
	got := Home()
	want, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("os.UserHomeDir() failed: %v", err)
	}
	if got != want {
		t.Errorf("Home() = %q, want %q", got, want)
	}
}

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome()
	want, _ := os.UserHomeDir()

	if err != nil {
		if !errors.Is(err, ErrHomeDirNotFound) {
			t.Errorf("unexpected error type: %v", err)
		}
	} else if got != want {
		t.Errorf("ResolveHome() = %q, want %q", got, want)
	}
}

func TestXDGHomes(t *testing.T) {
	for name, got := range map[string]string{
		"ConfigHome": ConfigHome(),
		"DataHome":   DataHome(),
		"CacheHome":  CacheHome(),
	} {
		if got == "" {
			t.Errorf("%s() returned empty string", name)
			continue
		}
		if !filepath.IsAbs(got) {
			t.Errorf("%s() = %q, want absolute path", name, got)
		}
	}
}

func TestConfigDir(t *testing.T) {
	assert.Equal(t, filepath.Join(ConfigHome(), "apm"), ConfigDir(""))

	override := t.TempDir()
	assert.Equal(t, override, ConfigDir(override))
	assert.Equal(t, filepath.Join(override, "config.toml"), ConfigFile(override))
}

func TestDefaultBackupDir(t *testing.T) {
	got := DefaultBackupDir()
	require.NotEmpty(t, got)
	assert.True(t, filepath.IsAbs(got), "DefaultBackupDir() = %q, want absolute path", got)
}

func TestDefaultScanRoots_Linux(t *testing.T) {
	home := t.TempDir()
	steam := filepath.Join(home, ".steam", "steam", "steamapps", "common")
	wow := filepath.Join(steam, "World of Warcraft")
	classic := filepath.Join(steam, "World of Warcraft Classic")
	require.NoError(t, os.MkdirAll(wow, 0o755))
	require.NoError(t, os.MkdirAll(classic, 0o755))
	// A regular file with a matching name is not a root.
	require.NoError(t, os.WriteFile(filepath.Join(steam, "World of Warcraft.txt"), nil, 0o600))

	got := defaultScanRoots("linux", home)

	assert.ElementsMatch(t, []string{wow, classic}, got)
}

func TestDefaultScanRoots_NoHome(t *testing.T) {
	assert.Empty(t, defaultScanRoots("linux", ""))
}

func TestExpandHome(t *testing.T) {
	home := Home()
	if home == "" {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/AddonBackups", filepath.Join(home, "AddonBackups")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandHome(tt.in), "ExpandHome(%q)", tt.in)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(""))
	assert.NoError(t, Validate("/tmp/backups"))
	assert.ErrorIs(t, Validate("."), ErrInvalidPath)
	assert.ErrorIs(t, Validate("bad\x00path"), ErrInvalidPath)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir, 0))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent.
	require.NoError(t, EnsureDir(dir, 0o755))
}
