package addon

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
)

// File name suffixes of saved-data files.
const (
	PrimarySuffix   = ".lua"
	CompanionSuffix = ".lua.bak"
)

// ErrAccountNotFound indicates the requested account is not part of the
// installation.
var ErrAccountNotFound = errors.New("account not found")

// globalFiles are client-owned files stored next to addon data.
var globalFiles = map[string]bool{
	"bindings":       true,
	"chatcache":      true,
	"glyphcache":     true,
	"macros":         true,
	"panel":          true,
	"preferences":    true,
	"savedvariables": true,
}

// FileEntry describes one file on disk.
type FileEntry struct {
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// File is the saved data of one addon: a primary .lua file and, when the
// client kept one, its .lua.bak companion. At least one is present.
type File struct {
	Name      string     `json:"name"`
	Primary   *FileEntry `json:"primary,omitempty"`
	Companion *FileEntry `json:"companion,omitempty"`
}

// Path returns the primary file's path, or the companion's when the addon
// only has a companion.
func (f *File) Path() string {
	if e := f.entry(); e != nil {
		return e.Path
	}
	return ""
}

// SizeBytes returns the size of the file Path refers to.
func (f *File) SizeBytes() int64 {
	if e := f.entry(); e != nil {
		return e.SizeBytes
	}
	return 0
}

// ModifiedAt returns the modification time of the file Path refers to.
func (f *File) ModifiedAt() time.Time {
	if e := f.entry(); e != nil {
		return e.ModifiedAt
	}
	return time.Time{}
}

// Entries returns the present files, primary first.
func (f *File) Entries() []*FileEntry {
	var out []*FileEntry
	if f.Primary != nil {
		out = append(out, f.Primary)
	}
	if f.Companion != nil {
		out = append(out, f.Companion)
	}
	return out
}

// TotalBytes is the combined size of all present files.
func (f *File) TotalBytes() int64 {
	var n int64
	for _, e := range f.Entries() {
		n += e.SizeBytes
	}
	return n
}

func (f *File) entry() *FileEntry {
	if f.Primary != nil {
		return f.Primary
	}
	return f.Companion
}

// Enumerate lists addon saved data directly under dir. Files ending in
// .lua and .lua.bak group under the addon name they share. Client-owned
// files are excluded. An empty directory yields an empty map; a missing
// one yields install.ErrDirectoryNotFound. Files that vanish while being
// listed are skipped.
func Enumerate(dir string) (map[string]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &install.PathError{Path: dir, Err: install.ErrDirectoryNotFound}
		}
		return nil, errors.Wrapf(err, "reading %s", dir)
	}

	files := make(map[string]*File)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, companion, ok := splitName(e.Name())
		if !ok || globalFiles[strings.ToLower(name)] {
			continue
		}

		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		entry := &FileEntry{
			Path:       filepath.Join(dir, e.Name()),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		}

		f, exists := files[name]
		if !exists {
			f = &File{Name: name}
			files[name] = f
		}
		if companion {
			f.Companion = entry
		} else {
			f.Primary = entry
		}
	}
	return files, nil
}

// GetAddonFiles enumerates the saved data of one account of inst.
func GetAddonFiles(inst *install.Installation, accountID string) (map[string]*File, error) {
	acct, ok := inst.Account(accountID)
	if !ok {
		return nil, errors.WithHint(
			errors.Wrapf(ErrAccountNotFound, "%s in %s", accountID, inst.DataPath),
			"account IDs are the folder names under WTF/Account")
	}
	return Enumerate(acct.DataDirectory)
}

// Names returns the addon names in files, sorted.
func Names(files map[string]*File) []string {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Select returns the files named in names and, separately, the names that
// have no saved data. An empty names selects everything.
func Select(files map[string]*File, names []string) (map[string]*File, []string) {
	if len(names) == 0 {
		out := make(map[string]*File, len(files))
		for n, f := range files {
			out[n] = f
		}
		return out, nil
	}

	out := make(map[string]*File, len(names))
	var unknown []string
	for _, n := range names {
		if f, ok := lookup(files, n); ok {
			out[f.Name] = f
		} else {
			unknown = append(unknown, n)
		}
	}
	return out, unknown
}

// lookup matches exactly first, then ignoring case.
func lookup(files map[string]*File, name string) (*File, bool) {
	if f, ok := files[name]; ok {
		return f, true
	}
	for n, f := range files {
		if strings.EqualFold(n, name) {
			return f, true
		}
	}
	return nil, false
}

// splitName strips the data suffix from a file name. The suffix match
// ignores case; the returned name keeps the original spelling.
func splitName(file string) (name string, companion, ok bool) {
	lower := strings.ToLower(file)
	switch {
	case strings.HasSuffix(lower, CompanionSuffix):
		name = file[:len(file)-len(CompanionSuffix)]
		companion = true
	case strings.HasSuffix(lower, PrimarySuffix):
		name = file[:len(file)-len(PrimarySuffix)]
	default:
		return "", false, false
	}
	return name, companion, name != ""
}
