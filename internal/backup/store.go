package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/pkg/fileutil"
)

// WriteManifest stores m in dir atomically.
func WriteManifest(dir string, m *Manifest) error {
	if m.Version == 0 {
		m.Version = ManifestVersion
	}
	if m.Addons == nil {
		m.Addons = make(map[string]ManifestAddon)
	}
	if err := fileutil.AtomicWriteJSON(filepath.Join(dir, ManifestFileName), m, 0o644); err != nil {
		return errors.Wrap(err, "writing manifest")
	}
	return nil
}

// maxManifestSize bounds manifest reads.
const maxManifestSize = 8 << 20

// ReadManifest loads the manifest in dir. It returns ErrManifestNotFound
// when dir has none.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)

	data, err := fileutil.ReadFileLimit(path, maxManifestSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrManifestNotFound, "%s", dir)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}
	if m.Version > ManifestVersion {
		return nil, errors.Newf("manifest %s has unsupported version %d", path, m.Version)
	}
	if m.Addons == nil {
		m.Addons = make(map[string]ManifestAddon)
	}
	return &m, nil
}

// GetBackupInfo summarizes the backup in dir.
func GetBackupInfo(dir string) (*Info, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	return infoFor(dir, m), nil
}

func infoFor(dir string, m *Manifest) *Info {
	info := &Info{
		Path:        dir,
		ProfileName: m.ProfileName,
		AccountID:   m.AccountID,
		Kind:        m.SourceInstallation.Kind,
		CreatedAt:   m.CreatedAt,
		Addons:      m.AddonNames(),
		Compressed:  m.Compressed,
		ToolVersion: m.ToolVersion,
	}
	for _, a := range m.Addons {
		info.FileCount += len(a.Files)
		for _, f := range a.Files {
			info.TotalBytes += f.Size
		}
	}
	return info
}

// List returns the backups stored directly in root or in its immediate
// subdirectories, newest first. Directories without a readable manifest
// are ignored.
func List(root string) ([]Info, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsFound
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	var infos []Info
	if info, err := GetBackupInfo(root); err == nil {
		infos = append(infos, *info)
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := GetBackupInfo(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}

	if len(infos) == 0 {
		return nil, ErrNoBackupsFound
	}

	slices.SortStableFunc(infos, func(a, b Info) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return infos, nil
}

// Prune removes the oldest backups under root beyond keep, counting only
// subdirectories whose profile matches profile (all profiles when empty).
// A backup stored directly in root is never removed. It returns the
// removed directories.
func Prune(root, profile string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, errors.New("keep must be non-negative")
	}

	infos, err := List(root)
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil, nil
		}
		return nil, err
	}

	cleanRoot := filepath.Clean(root)
	var removed []string
	kept := 0
	for _, info := range infos {
		if filepath.Clean(info.Path) == cleanRoot {
			continue
		}
		if profile != "" && info.ProfileName != profile {
			continue
		}
		if kept < keep {
			kept++
			continue
		}
		if err := os.RemoveAll(info.Path); err != nil {
			return removed, errors.Wrapf(err, "removing backup %s", info.Path)
		}
		removed = append(removed, info.Path)
	}
	return removed, nil
}
