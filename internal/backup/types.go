package backup

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
)

// Manifest format version for forward compatibility.
const ManifestVersion = 1

// ManifestFileName is the sidecar written into every backup directory.
const ManifestFileName = "backup_manifest.json"

// TimestampFormat names timestamped backup folders.
const TimestampFormat = "20060102T150405"

// DefaultRetentionCount is the default number of backups kept by Prune.
const DefaultRetentionCount = 10

// Sentinel errors for backup operations.
var (
	// ErrInvalidProfile indicates a profile is missing required fields.
	ErrInvalidProfile = errors.New("invalid backup profile")

	// ErrDestinationUnavailable indicates the destination directory could
	// not be created or written. It is fatal to the whole backup.
	ErrDestinationUnavailable = errors.New("backup destination unavailable")

	// ErrAborted indicates a conflict decision stopped the operation.
	// Files copied before the abort stay on disk.
	ErrAborted = errors.New("backup aborted")

	// ErrManifestNotFound indicates a directory holds no backup manifest.
	ErrManifestNotFound = errors.New("backup manifest not found")

	// ErrAddonNotFound indicates a selected addon has no saved data to copy.
	ErrAddonNotFound = errors.New("addon not found")

	// ErrNoBackupsFound indicates a destination root holds no backups.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrBackupCorrupted indicates a backed-up file no longer matches the
	// checksum recorded in the manifest.
	ErrBackupCorrupted = errors.New("backup corrupted")
)

// Profile is a backup request built by the caller just before CreateBackup.
type Profile struct {
	Name string

	// Addons are the addon names to back up. Empty selects every addon in
	// the account.
	Addons []string

	Installation *install.Installation
	AccountID    string
}

// Validate checks the profile's required fields.
func (p Profile) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.Wrap(ErrInvalidProfile, "name is required")
	case p.Installation == nil:
		return errors.Wrap(ErrInvalidProfile, "installation is required")
	case p.AccountID == "":
		return errors.Wrap(ErrInvalidProfile, "account is required")
	}
	return nil
}

// Result reports the outcome of one backup or restore. Per-file problems
// are recorded here rather than returned as errors.
type Result struct {
	Success bool `json:"success"`

	// CopiedFiles are the file names written and, when enabled, validated.
	CopiedFiles []string `json:"copied_files"`

	// SkippedFiles were left alone because of a conflict decision.
	SkippedFiles []string `json:"skipped_files,omitempty"`

	// PreservedFiles are existing destination files moved aside before
	// being replaced.
	PreservedFiles []string `json:"preserved_files,omitempty"`

	// FailedFiles maps a file or addon name to what went wrong.
	FailedFiles map[string]string `json:"failed_files,omitempty"`

	// ValidationErrors describe files whose copy did not match the source.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	DestinationPath string `json:"destination_path"`

	// ManifestPath is empty when no manifest was written.
	ManifestPath string `json:"manifest_path,omitempty"`

	Aborted    bool      `json:"aborted,omitempty"`
	TotalBytes int64     `json:"total_bytes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newResult(dest string) *Result {
	return &Result{
		CopiedFiles:     []string{},
		FailedFiles:     make(map[string]string),
		DestinationPath: dest,
		StartedAt:       time.Now(),
	}
}

func (r *Result) fail(name string, err error) {
	r.FailedFiles[name] = err.Error()
}

func (r *Result) finish() {
	r.FinishedAt = time.Now()
	r.Success = !r.Aborted && len(r.FailedFiles) == 0 && len(r.ValidationErrors) == 0
}

// Err summarizes why the operation did not fully succeed, naming every
// failed file. It returns nil on success.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}

	var parts []string
	names := make([]string, 0, len(r.FailedFiles))
	for n := range r.FailedFiles {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", n, r.FailedFiles[n]))
	}
	parts = append(parts, r.ValidationErrors...)

	if r.Aborted {
		if len(parts) == 0 {
			return ErrAborted
		}
		return errors.Wrap(ErrAborted, strings.Join(parts, "; "))
	}
	if len(parts) == 0 {
		return errors.New("backup did not complete")
	}
	return errors.Newf("%d file(s) failed, %d failed validation: %s",
		len(r.FailedFiles), len(r.ValidationErrors), strings.Join(parts, "; "))
}

// Manifest describes the contents of one backup directory. It is stored
// as backup_manifest.json and written last.
type Manifest struct {
	Version            int                      `json:"version" yaml:"version"`
	CreatedAt          time.Time                `json:"created_at" yaml:"created_at"`
	ProfileName        string                   `json:"profile_name" yaml:"profile_name"`
	AccountID          string                   `json:"account_id" yaml:"account_id"`
	SourceInstallation SourceInstallation       `json:"source_installation" yaml:"source_installation"`
	Addons             map[string]ManifestAddon `json:"addons" yaml:"addons"`

	// Compressed records the compress_backup setting. Payload files are
	// stored as plain copies either way.
	Compressed  bool   `json:"compressed" yaml:"compressed"`
	ToolVersion string `json:"tool_version" yaml:"tool_version"`
}

// SourceInstallation is a snapshot of the installation a backup came from.
type SourceInstallation struct {
	Kind     install.Kind `json:"kind" yaml:"kind"`
	RootPath string       `json:"root_path" yaml:"root_path"`
	DataPath string       `json:"data_path" yaml:"data_path"`
	Version  string       `json:"version,omitempty" yaml:"version,omitempty"`
}

// ManifestAddon records one addon's files. Checksum and Size describe the
// primary file, or the companion when only that was copied.
type ManifestAddon struct {
	Checksum string         `json:"checksum" yaml:"checksum"`
	Size     int64          `json:"size" yaml:"size"`
	Files    []ManifestFile `json:"files" yaml:"files"`
}

// summarize sorts Files and sets Checksum and Size from the primary file,
// or from the companion when it is the only one.
func (a *ManifestAddon) summarize() {
	slices.SortFunc(a.Files, func(x, y ManifestFile) int { return strings.Compare(x.Name, y.Name) })
	a.Checksum, a.Size = "", 0
	for _, f := range a.Files {
		if a.Checksum == "" || !f.Companion {
			a.Checksum = f.Checksum
			a.Size = f.Size
		}
	}
}

// ManifestFile is one copied file, stored under Name in the backup directory.
type ManifestFile struct {
	Name      string `json:"name" yaml:"name"`
	Checksum  string `json:"checksum" yaml:"checksum"`
	Size      int64  `json:"size" yaml:"size"`
	Companion bool   `json:"companion,omitempty" yaml:"companion,omitempty"`
}

// AddonNames returns the manifest's addon names, sorted.
func (m *Manifest) AddonNames() []string {
	names := make([]string, 0, len(m.Addons))
	for n := range m.Addons {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Info is a read-only summary of a backup directory.
type Info struct {
	Path        string       `json:"path" yaml:"path"`
	ProfileName string       `json:"profile_name" yaml:"profile_name"`
	AccountID   string       `json:"account_id" yaml:"account_id"`
	Kind        install.Kind `json:"kind" yaml:"kind"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	Addons      []string     `json:"addons" yaml:"addons"`
	FileCount   int          `json:"file_count" yaml:"file_count"`
	TotalBytes  int64        `json:"total_bytes" yaml:"total_bytes"`
	Compressed  bool         `json:"compressed" yaml:"compressed"`
	ToolVersion string       `json:"tool_version" yaml:"tool_version"`
}

// Progress is reported once per file handled.
type Progress struct {
	Addon string
	File  string
	// Index counts files handled so far, starting at 1.
	Index int
	Total int
	// Outcome is "copied", "skipped", "failed", "invalid" or "aborted".
	Outcome string
	Bytes   int64
}
