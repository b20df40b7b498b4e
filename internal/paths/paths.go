package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "apm"

// ConfigFileName is the name of the configuration file inside ConfigDir.
const ConfigFileName = "config.toml"

// installGlob matches the default installation folder names
// ("World of Warcraft", "World of Warcraft Classic", ...).
const installGlob = "World of Warcraft*"

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory.
// It returns an empty string on error; use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func DataHome() string {
	return xdg.DataHome
}

// CacheHome returns the XDG cache home directory.
func CacheHome() string {
	return xdg.CacheHome
}

// ConfigDir returns the directory holding config.toml.
// A non-empty override (from APM_DATA_DIR) wins over <ConfigHome>/apm.
func ConfigDir(override string) string {
	if override != "" {
		return ExpandHome(override)
	}
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigFile returns the full path of the configuration file.
func ConfigFile(override string) string {
	return filepath.Join(ConfigDir(override), ConfigFileName)
}

// DefaultBackupDir returns the default backup destination: ~/AddonBackups.
// Falls back to <DataHome>/apm/backups when the home directory is unknown.
func DefaultBackupDir() string {
	home := Home()
	if home == "" {
		return filepath.Join(DataHome(), AppName, "backups")
	}
	return filepath.Join(home, "AddonBackups")
}

// DefaultScanRoots returns existing installation folders found in the
// platform-conventional locations for the running OS.
func DefaultScanRoots() []string {
	return defaultScanRoots(runtime.GOOS, Home())
}

func defaultScanRoots(goos, home string) []string {
	var bases []string
	switch goos {
	case "windows":
		bases = []string{
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\Games`,
		}
	case "darwin":
		bases = []string{"/Applications"}
		if home != "" {
			bases = append(bases, filepath.Join(home, "Applications"))
		}
	default:
		if home != "" {
			bases = []string{
				filepath.Join(home, ".steam", "steam", "steamapps", "common"),
				filepath.Join(home, ".local", "share", "Steam", "steamapps", "common"),
				filepath.Join(home, ".wine", "drive_c", "Program Files (x86)"),
				filepath.Join(home, ".wine", "drive_c", "Program Files"),
				filepath.Join(home, "Games", "world-of-warcraft", "drive_c", "Program Files (x86)"),
				filepath.Join(home, "Games"),
			}
		}
	}

	var roots []string
	seen := make(map[string]bool)
	for _, base := range bases {
		matches, err := filepath.Glob(filepath.Join(base, installGlob))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if seen[m] || !isDir(m) {
				continue
			}
			seen[m] = true
			roots = append(roots, m)
		}
	}
	return roots
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home := Home()
	if home == "" {
		return path
	}

	if path == "~" {
		return home
	}

	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}

	return path
}

// Validate checks that a path string is syntactically usable.
// It does not check existence.
func Validate(path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
