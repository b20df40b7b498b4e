package install

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/apm/internal/errors"
)

// Kind identifies the client flavor of an installation.
type Kind string

// Installation kinds. Detection never fails; unrecognized layouts are KindUnknown.
const (
	KindRetail  Kind = "retail"
	KindClassic Kind = "classic"
	KindPTR     Kind = "ptr"
	KindBeta    Kind = "beta"
	KindUnknown Kind = "unknown"
)

// Directory names of the client's user-data tree.
const (
	WTFDir            = "WTF"
	AccountDir        = "Account"
	SavedVariablesDir = "SavedVariables"
)

// versionMarkers are the version-subtree folder names shipped by the launcher.
var versionMarkers = []string{
	"_retail_",
	"_classic_",
	"_classic_era_",
	"_classic_ptr_",
	"_classic_era_ptr_",
	"_classic_beta_",
	"_ptr_",
	"_xptr_",
	"_beta_",
	"_alpha_",
}

// Sentinel errors for classification and enumeration.
var (
	// ErrPathNotFound indicates the supplied path does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrAmbiguousInstallation indicates an installation root holds more
	// than one version subtree and none was chosen.
	ErrAmbiguousInstallation = errors.New("ambiguous installation")

	// ErrInvalidStructure indicates the path matches none of the known layouts.
	ErrInvalidStructure = errors.New("invalid installation structure")

	// ErrDirectoryNotFound indicates an account container or account data
	// directory disappeared or was never there.
	ErrDirectoryNotFound = errors.New("directory not found")
)

// PathError records the path an error is about.
type PathError struct {
	Path   string
	Detail string
	Err    error
}

func (e *PathError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// AmbiguousError is returned when an installation root holds several
// version subtrees. Choices lists the version folder names, sorted.
type AmbiguousError struct {
	Path    string
	Choices []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s: %s contains %s; pick one",
		ErrAmbiguousInstallation, e.Path, strings.Join(e.Choices, ", "))
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguousInstallation
}

// Account is a per-user configuration namespace inside an installation.
type Account struct {
	// ID is the account folder name, e.g. "12345678#1".
	ID string `json:"id"`

	// DataDirectory is the account's SavedVariables directory.
	DataDirectory string `json:"data_directory"`
}

// Installation is a detected client instance. It is a read-only view over
// the filesystem.
type Installation struct {
	Kind Kind `json:"kind"`

	// RootPath is the version root, the directory holding WTF.
	RootPath string `json:"root_path"`

	// DataPath is the account container (WTF/Account).
	DataPath string `json:"data_path"`

	// Version is the version folder name (e.g. "_retail_"), if any.
	Version string `json:"version,omitempty"`

	Accounts []Account `json:"accounts"`
}

// New builds an Installation from a classification and loads its accounts.
func New(c *Classification) (*Installation, error) {
	inst := &Installation{
		Kind:     c.Kind,
		RootPath: c.RootPath,
		DataPath: c.DataPath,
		Version:  c.Version,
	}
	accounts, err := GetAccounts(inst)
	if err != nil {
		return nil, err
	}
	inst.Accounts = accounts
	return inst, nil
}

// Validate checks that DataPath still resolves to a directory.
func (i *Installation) Validate() error {
	if !isDir(i.DataPath) {
		return &PathError{Path: i.DataPath, Err: ErrDirectoryNotFound}
	}
	return nil
}

// Account returns the account with the given ID.
func (i *Installation) Account(id string) (*Account, bool) {
	for idx := range i.Accounts {
		if i.Accounts[idx].ID == id {
			return &i.Accounts[idx], true
		}
	}
	return nil, false
}

// AccountIDs returns the IDs of all known accounts in order.
func (i *Installation) AccountIDs() []string {
	ids := make([]string, len(i.Accounts))
	for idx, a := range i.Accounts {
		ids[idx] = a.ID
	}
	return ids
}

// Size returns the total bytes held in the accounts' SavedVariables
// directories. Unreadable entries are ignored.
func (i *Installation) Size() int64 {
	var total int64
	for _, a := range i.Accounts {
		_ = filepath.WalkDir(a.DataDirectory, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.Type().IsRegular() {
				if info, err := d.Info(); err == nil {
					total += info.Size()
				}
			}
			return nil
		})
	}
	return total
}

func (i *Installation) String() string {
	if i.Version != "" {
		return fmt.Sprintf("%s (%s) %s", i.Kind, i.Version, i.RootPath)
	}
	return fmt.Sprintf("%s %s", i.Kind, i.RootPath)
}

// IsVersionMarker reports whether name is a known version folder name.
func IsVersionMarker(name string) bool {
	for _, m := range versionMarkers {
		if strings.EqualFold(name, m) {
			return true
		}
	}
	return false
}

// DetectKind infers the installation kind from path segments. A version
// marker wins; otherwise the version root's name and its parent's name are
// matched against keywords.
func DetectKind(rootPath string) Kind {
	segments := splitPath(rootPath)
	for idx := len(segments) - 1; idx >= 0; idx-- {
		if IsVersionMarker(segments[idx]) {
			return kindFromName(segments[idx])
		}
	}

	for idx := len(segments) - 1; idx >= 0 && idx >= len(segments)-2; idx-- {
		if k := kindFromName(segments[idx]); k != KindUnknown {
			return k
		}
	}
	return KindUnknown
}

func kindFromName(name string) Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "ptr"):
		return KindPTR
	case strings.Contains(lower, "beta"), strings.Contains(lower, "alpha"):
		return KindBeta
	case strings.Contains(lower, "classic"):
		return KindClassic
	case strings.Contains(lower, "retail"):
		return KindRetail
	default:
		return KindUnknown
	}
}

// splitPath returns the non-empty segments of a cleaned path.
func splitPath(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// findChild returns dir/name, matching name case-insensitively when the
// exact spelling is absent. The result must be a directory.
func findChild(dir, name string) (string, bool) {
	exact := filepath.Join(dir, name)
	if isDir(exact) {
		return exact, true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			p := filepath.Join(dir, e.Name())
			if isDir(p) {
				return p, true
			}
		}
	}
	return "", false
}
