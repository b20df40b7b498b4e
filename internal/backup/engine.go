package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/thoreinstein/apm/internal/addon"
	"github.com/thoreinstein/apm/internal/conflict"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
	"github.com/thoreinstein/apm/internal/paths"
	"github.com/thoreinstein/apm/pkg/fileutil"
)

// Engine copies addon saved data into backup directories and back.
// Files are handled one at a time so conflict checks and validation see a
// consistent destination.
type Engine struct {
	destination     string
	timestampFolder bool
	validate        bool
	compress        bool
	toolVersion     string
	policy          conflict.Policy
	prompter        conflict.Prompter
	progress        func(Progress)
	logger          *slog.Logger
	now             func() time.Time

	// afterCopy runs after each file is written, before validation.
	afterCopy func(dst string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithDestination sets the backup destination root.
func WithDestination(dir string) Option {
	return func(e *Engine) {
		e.destination = dir
	}
}

// WithTimestampFolder controls whether each backup gets its own
// <profile>-<timestamp> folder under the destination.
func WithTimestampFolder(enabled bool) Option {
	return func(e *Engine) {
		e.timestampFolder = enabled
	}
}

// WithValidation controls re-hashing source and copy after each file.
func WithValidation(enabled bool) Option {
	return func(e *Engine) {
		e.validate = enabled
	}
}

// WithCompression records the compress_backup setting in manifests.
func WithCompression(enabled bool) Option {
	return func(e *Engine) {
		e.compress = enabled
	}
}

// WithPolicy sets the conflict policy.
func WithPolicy(p conflict.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithPrompter sets the callback used by the prompt strategy.
func WithPrompter(p conflict.Prompter) Option {
	return func(e *Engine) {
		e.prompter = p
	}
}

// WithProgress registers an observer called once per file.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithToolVersion sets the version recorded in manifests.
func WithToolVersion(v string) Option {
	return func(e *Engine) {
		e.toolVersion = v
	}
}

// NewEngine creates an Engine. Defaults match the configuration defaults.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		destination:     paths.DefaultBackupDir(),
		timestampFolder: true,
		validate:        true,
		toolVersion:     "dev",
		policy:          conflict.DefaultPolicy(),
		logger:          logging.NewDiscard(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateBackup copies the selected addons of profile into a new backup
// directory and writes its manifest. files is the caller's enumeration of
// the account; nil enumerates it now.
//
// Only setup failures and Abort are returned as errors; per-file failures
// are reported in the Result. On Abort the partial Result is returned
// together with ErrAborted and no manifest is written.
func (e *Engine) CreateBackup(profile Profile, files map[string]*addon.File) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if files == nil {
		var err error
		files, err = addon.GetAddonFiles(profile.Installation, profile.AccountID)
		if err != nil {
			return nil, err
		}
	}

	dest, err := e.prepareDestination(profile.Name)
	if err != nil {
		return nil, err
	}

	log := e.logger.With("profile", profile.Name, "destination", dest)
	log.Info("starting backup", "account", profile.AccountID)

	prev, err := ReadManifest(dest)
	if err != nil {
		if !errors.Is(err, ErrManifestNotFound) {
			log.Warn("replacing unreadable manifest", "error", err)
		}
		prev = nil
	}

	res := newResult(dest)
	selected, unknown := addon.Select(files, profile.Addons)
	for _, name := range unknown {
		res.fail(name, ErrAddonNotFound)
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		ProfileName: profile.Name,
		AccountID:   profile.AccountID,
		SourceInstallation: SourceInstallation{
			Kind:     profile.Installation.Kind,
			RootPath: profile.Installation.RootPath,
			DataPath: profile.Installation.DataPath,
			Version:  profile.Installation.Version,
		},
		Addons:      make(map[string]ManifestAddon),
		Compressed:  e.compress,
		ToolVersion: e.toolVersion,
	}

	resolver := conflict.NewResolver(e.policy, e.prompter)
	total := 0
	for _, f := range selected {
		total += len(f.Entries())
	}

	index := 0
	for _, name := range addon.Names(selected) {
		f := selected[name]
		var entry ManifestAddon
		for _, fe := range f.Entries() {
			index++
			dst := filepath.Join(dest, filepath.Base(fe.Path))
			copied, err := e.transfer(resolver, res, name, fe.Path, dst, "", index, total)
			if err != nil {
				// Files overwritten before the abort must not keep their old
				// checksums in a reused folder.
				if prev != nil {
					e.saveManifest(dest, manifest, prev, res, log)
				}
				res.finish()
				log.Warn("backup stopped", "error", err)
				return res, err
			}
			if copied == nil {
				continue
			}
			entry.Files = append(entry.Files, ManifestFile{
				Name:      filepath.Base(dst),
				Checksum:  copied.SHA256,
				Size:      copied.Size,
				Companion: fe == f.Companion,
			})
		}
		if len(entry.Files) > 0 {
			entry.summarize()
			manifest.Addons[name] = entry
		}
	}

	if len(manifest.Addons) > 0 || prev != nil {
		e.saveManifest(dest, manifest, prev, res, log)
	}

	res.finish()
	log.Info("backup finished",
		"copied", len(res.CopiedFiles),
		"skipped", len(res.SkippedFiles),
		"failed", len(res.FailedFiles),
		"invalid", len(res.ValidationErrors),
	)
	return res, nil
}

// saveManifest writes m into dest after carrying over the entries of prev
// whose files are still intact there. When nothing remains, a stale
// manifest is removed instead.
func (e *Engine) saveManifest(dest string, m, prev *Manifest, res *Result, log *slog.Logger) {
	if prev != nil {
		carryOver(dest, m, prev, log)
	}

	path := filepath.Join(dest, ManifestFileName)
	if len(m.Addons) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			res.fail(ManifestFileName, err)
		}
		return
	}

	m.CreatedAt = e.now().UTC()
	if err := WriteManifest(dest, m); err != nil {
		res.fail(ManifestFileName, err)
		return
	}
	res.ManifestPath = path
}

// carryOver adds to m every file recorded in prev that m does not already
// list and whose payload in dest still matches the recorded checksum.
func carryOver(dest string, m, prev *Manifest, log *slog.Logger) {
	for name, old := range prev.Addons {
		entry := m.Addons[name]
		before := len(entry.Files)
		for _, f := range old.Files {
			if slices.ContainsFunc(entry.Files, func(nf ManifestFile) bool { return nf.Name == f.Name }) {
				continue
			}
			sum, _, err := fileutil.HashFile(filepath.Join(dest, f.Name))
			if err != nil || sum != f.Checksum {
				log.Debug("dropping stale manifest entry", "addon", name, "file", f.Name)
				continue
			}
			entry.Files = append(entry.Files, f)
		}
		if len(entry.Files) == before {
			continue
		}
		entry.summarize()
		m.Addons[name] = entry
	}
}

// transfer resolves the conflict for one file, copies it and validates the
// copy. It returns the copy result when the file was written and passed
// validation, nil when it was skipped or failed, and an error only when the
// whole operation must stop. A non-empty expected checksum is verified
// against src before anything is written.
func (e *Engine) transfer(resolver *conflict.Resolver, res *Result, addonName, src, dst, expected string, index, total int) (*fileutil.CopyResult, error) {
	file := filepath.Base(dst)
	report := func(outcome string, n int64) {
		if e.progress != nil {
			e.progress(Progress{Addon: addonName, File: file, Index: index, Total: total, Outcome: outcome, Bytes: n})
		}
	}
	failed := func(err error) (*fileutil.CopyResult, error) {
		res.fail(file, err)
		e.logger.Debug("file failed", "file", file, "error", err)
		report("failed", 0)
		return nil, nil
	}

	if expected != "" {
		sum, _, err := fileutil.HashFile(src)
		if err != nil {
			return failed(err)
		}
		if sum != expected {
			return failed(errors.Wrap(ErrBackupCorrupted, "checksum does not match manifest"))
		}
	}

	c, err := conflict.Check(addonName, src, dst)
	if err != nil {
		return failed(err)
	}
	decision, err := resolver.Resolve(c)
	if err != nil {
		res.Aborted = true
		return nil, err
	}

	switch decision.Action {
	case conflict.Abort:
		res.Aborted = true
		report("aborted", 0)
		return nil, errors.Wrapf(ErrAborted, "at %s", file)
	case conflict.Skip:
		res.SkippedFiles = append(res.SkippedFiles, file)
		e.logger.Debug("skipped existing file", "file", file)
		report("skipped", 0)
		return nil, nil
	case conflict.Rename:
		if c != nil {
			preserved, err := conflict.PreserveExisting(dst, decision.Suffix)
			if err != nil {
				return failed(err)
			}
			res.PreservedFiles = append(res.PreservedFiles, filepath.Base(preserved))
			e.logger.Debug("preserved existing file", "file", file, "as", filepath.Base(preserved))
		}
	}

	copied, err := fileutil.AtomicCopyFile(src, dst)
	if err != nil {
		return failed(err)
	}
	e.logger.Log(context.Background(), logging.LevelTrace, "copied", "file", file, "bytes", copied.Size, "sha256", copied.SHA256)

	if e.afterCopy != nil {
		e.afterCopy(dst)
	}

	if e.validate {
		if msg := validateCopy(src, dst); msg != "" {
			res.ValidationErrors = append(res.ValidationErrors, file+": "+msg)
			e.logger.Warn("validation failed", "file", file, "reason", msg)
			report("invalid", copied.Size)
			return nil, nil
		}
	}

	res.CopiedFiles = append(res.CopiedFiles, file)
	res.TotalBytes += copied.Size
	report("copied", copied.Size)
	return copied, nil
}

// validateCopy re-reads both files and returns a description of any
// difference, or "" when they match.
func validateCopy(src, dst string) string {
	srcSum, srcSize, err := fileutil.HashFile(src)
	if err != nil {
		return "re-reading source: " + err.Error()
	}
	dstSum, dstSize, err := fileutil.HashFile(dst)
	if err != nil {
		return "re-reading copy: " + err.Error()
	}
	if srcSize != dstSize {
		return "size mismatch"
	}
	if srcSum != dstSum {
		return "checksum mismatch"
	}
	return ""
}

// prepareDestination creates the backup directory and checks that it is
// writable.
func (e *Engine) prepareDestination(profileName string) (string, error) {
	root := paths.ExpandHome(e.destination)
	if root == "" {
		return "", errors.WithHint(
			errors.Wrap(ErrDestinationUnavailable, "no destination configured"),
			"set backup.destination_path in the config")
	}

	dest := root
	if e.timestampFolder {
		dest = uniqueDir(filepath.Join(root, safeName(profileName)+"-"+e.now().Format(TimestampFormat)))
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", errors.Wrapf(errors.Mark(err, ErrDestinationUnavailable), "creating %s", dest)
	}

	probe, err := os.CreateTemp(dest, ".apm-probe-*")
	if err != nil {
		return "", errors.Wrapf(errors.Mark(err, ErrDestinationUnavailable), "%s is not writable", dest)
	}
	probe.Close()
	os.Remove(probe.Name())

	return dest, nil
}

// uniqueDir returns dir, or dir-N for the first N not yet taken.
func uniqueDir(dir string) string {
	candidate := dir
	for n := 2; ; n++ {
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
		candidate = dir + "-" + strconv.Itoa(n)
	}
}

// safeName makes a profile name usable as a folder name.
func safeName(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	if s == "" || strings.Trim(s, ".") == "" {
		return "backup"
	}
	return s
}

// Restore copies files from the backup in backupDir into accountDir. Each
// file is checked against the manifest checksum first; corrupted files are
// reported and left out. Conflicts with files already in accountDir go
// through the engine's policy. names limits the addons restored; empty
// restores all.
func (e *Engine) Restore(backupDir, accountDir string, names []string) (*Result, error) {
	m, err := ReadManifest(backupDir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(accountDir)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrapf(ErrDestinationUnavailable, "account directory %s", accountDir)
	}

	log := e.logger.With("backup", backupDir, "destination", accountDir)
	log.Info("starting restore")

	res := newResult(accountDir)
	selected := m.AddonNames()
	if len(names) > 0 {
		selected = selected[:0]
		for _, n := range names {
			if _, ok := m.Addons[n]; ok {
				selected = append(selected, n)
			} else {
				res.fail(n, ErrAddonNotFound)
			}
		}
		slices.Sort(selected)
	}

	total := 0
	for _, n := range selected {
		total += len(m.Addons[n].Files)
	}

	resolver := conflict.NewResolver(e.policy, e.prompter)
	index := 0
	for _, name := range selected {
		for _, mf := range m.Addons[name].Files {
			index++
			src := filepath.Join(backupDir, mf.Name)
			dst := filepath.Join(accountDir, mf.Name)
			if _, err := e.transfer(resolver, res, name, src, dst, mf.Checksum, index, total); err != nil {
				res.finish()
				log.Warn("restore stopped", "error", err)
				return res, err
			}
		}
	}

	res.finish()
	log.Info("restore finished", "restored", len(res.CopiedFiles), "failed", len(res.FailedFiles))
	return res, nil
}

// VerifyReport lists the problems found by Verify.
type VerifyReport struct {
	Dir     string   `json:"dir"`
	Checked int      `json:"checked"`
	Missing []string `json:"missing,omitempty"`
	Corrupt []string `json:"corrupt,omitempty"`
}

// OK reports whether every file matched the manifest.
func (r *VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Corrupt) == 0
}

// Err returns ErrBackupCorrupted naming the bad files, or nil.
func (r *VerifyReport) Err() error {
	if r.OK() {
		return nil
	}
	bad := append(slices.Clone(r.Missing), r.Corrupt...)
	return errors.Wrapf(ErrBackupCorrupted, "%s: %s", r.Dir, strings.Join(bad, ", "))
}

// Verify re-hashes every file listed in the manifest of dir.
func Verify(dir string) (*VerifyReport, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Dir: dir}
	for _, name := range m.AddonNames() {
		for _, mf := range m.Addons[name].Files {
			report.Checked++
			sum, size, err := fileutil.HashFile(filepath.Join(dir, mf.Name))
			switch {
			case err != nil:
				report.Missing = append(report.Missing, mf.Name)
			case sum != mf.Checksum || size != mf.Size:
				report.Corrupt = append(report.Corrupt, mf.Name)
			}
		}
	}
	return report, nil
}
