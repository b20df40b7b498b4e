package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/apm/internal/backup"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
	"github.com/thoreinstein/apm/internal/paths"
)

// ConfigCheck reports whether the config file loaded and validated.
type ConfigCheck struct {
	file    string
	loadErr error
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a config check. file is the config file that was
// read ("" when defaults were used) and loadErr the error loading it.
func NewConfigCheck(file string, loadErr error) *ConfigCheck {
	return &ConfigCheck{file: file, loadErr: loadErr}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "config" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run reports the load error, or where the config came from.
func (c *ConfigCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	switch {
	case c.loadErr != nil:
		result.Status = SeverityError
		result.Message = c.loadErr.Error()
		result.FixHint = "fix the file, or rewrite it with: apm config init --force"
		if c.file != "" {
			result.Details = map[string]any{"file": c.file}
		}
	case c.file == "":
		result.Status = SeverityInfo
		result.Message = "no config file; using defaults"
		result.FixHint = "run: apm config init"
	default:
		result.Status = SeverityPass
		result.Message = "loaded " + c.file
		result.Details = map[string]any{"file": c.file}
	}
	return result
}

// DestinationCheck verifies the backup destination root is a writable
// directory. A missing root can be created with Fix.
type DestinationCheck struct {
	root    string
	missing bool
}

var (
	_ Check = (*DestinationCheck)(nil)
	_ Fixer = (*DestinationCheck)(nil)
)

// NewDestinationCheck creates a check of the backup destination root.
func NewDestinationCheck(root string) *DestinationCheck {
	return &DestinationCheck{root: paths.ExpandHome(root)}
}

// Name returns the unique identifier for this check.
func (c *DestinationCheck) Name() string { return "backup-destination" }

// Category returns the grouping for this check.
func (c *DestinationCheck) Category() string { return "filesystem" }

// Run stats the root and probes it with a temporary file.
func (c *DestinationCheck) Run(context.Context) *CheckResult {
	c.missing = false
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Details:  map[string]any{"path": c.root},
	}

	info, err := os.Stat(c.root)
	switch {
	case os.IsNotExist(err):
		c.missing = true
		result.Status = SeverityWarning
		result.Message = "destination does not exist yet"
		result.Fixable = true
		result.FixHint = "run: apm doctor --fix, or create it before the first backup"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = "destination is not a directory"
		result.FixHint = "set backup.destination_path to a directory"
		return result
	}

	if err := probeWritable(c.root); err != nil {
		result.Status = SeverityError
		result.Message = "destination is not writable"
		result.Details["error"] = err.Error()
		result.FixHint = "check the permissions of " + c.root
		return result
	}

	result.Status = SeverityPass
	result.Message = "writable: " + c.root
	return result
}

// CanFix returns true if the last Run found the root missing.
func (c *DestinationCheck) CanFix() bool {
	return c.missing
}

// Fix creates the destination root.
func (c *DestinationCheck) Fix() []FixResult {
	res := FixResult{Path: c.root}
	if err := paths.EnsureDir(c.root, destinationDirPerm); err != nil {
		res.Error = errors.Wrap(err, "creating destination")
		res.Description = "could not create directory"
		return []FixResult{res}
	}
	c.missing = false
	res.Fixed = true
	res.Description = "created directory"
	return []FixResult{res}
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".apm-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Remove(name)
}

// ScanRootsCheck reports which configured scan roots exist.
type ScanRootsCheck struct {
	roots []string
}

var _ Check = (*ScanRootsCheck)(nil)

// NewScanRootsCheck creates a check of the configured scan roots.
func NewScanRootsCheck(roots []string) *ScanRootsCheck {
	return &ScanRootsCheck{roots: roots}
}

// Name returns the unique identifier for this check.
func (c *ScanRootsCheck) Name() string { return "scan-roots" }

// Category returns the grouping for this check.
func (c *ScanRootsCheck) Category() string { return "config" }

// Run stats every root.
func (c *ScanRootsCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if len(c.roots) == 0 {
		result.Status = SeverityWarning
		result.Message = "no scan roots configured"
		result.FixHint = `run: apm config set scan.paths "<game folder>"`
		return result
	}

	var missing []string
	for _, r := range c.roots {
		info, err := os.Stat(paths.ExpandHome(r))
		if err != nil || !info.IsDir() {
			missing = append(missing, r)
		}
	}

	result.Details = map[string]any{
		"roots":   c.roots,
		"missing": missing,
	}
	switch {
	case len(missing) == len(c.roots):
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("none of the %d scan roots exist", len(c.roots))
		result.FixHint = `run: apm config set scan.paths "<game folder>"`
	case len(missing) > 0:
		result.Status = SeverityInfo
		result.Message = fmt.Sprintf("%d of %d scan roots missing: %s",
			len(missing), len(c.roots), strings.Join(missing, ", "))
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d scan roots present", len(c.roots))
	}
	return result
}

// Scanner finds installations. *install.Scanner satisfies it.
type Scanner interface {
	ScanInstallations(ctx context.Context) ([]install.Installation, error)
}

// InstallationCheck runs a scan and reports what it found.
type InstallationCheck struct {
	scanner Scanner
}

var _ Check = (*InstallationCheck)(nil)

// NewInstallationCheck creates a check backed by s.
func NewInstallationCheck(s Scanner) *InstallationCheck {
	return &InstallationCheck{scanner: s}
}

// Name returns the unique identifier for this check.
func (c *InstallationCheck) Name() string { return "installations" }

// Category returns the grouping for this check.
func (c *InstallationCheck) Category() string { return "installations" }

// Run scans and counts installations and accounts.
func (c *InstallationCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	found, err := c.scanner.ScanInstallations(ctx)
	if err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}

	if len(found) == 0 {
		result.Status = SeverityWarning
		result.Message = "no installations found under the scan roots"
		result.FixHint = "add the game folder to scan.paths, or pass it to commands directly"
		return result
	}

	list := make([]map[string]any, 0, len(found))
	accounts := 0
	for _, inst := range found {
		accounts += len(inst.Accounts)
		list = append(list, map[string]any{
			"kind":     string(inst.Kind),
			"path":     inst.RootPath,
			"accounts": len(inst.Accounts),
		})
	}
	result.Details = map[string]any{"installations": list}

	if accounts == 0 {
		result.Status = SeverityInfo
		result.Message = fmt.Sprintf("%d installation(s) found, none with account data", len(found))
		result.FixHint = "log in to the game once so it creates WTF/Account"
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("%d installation(s), %d account(s)", len(found), accounts)
	return result
}

// BackupsCheck verifies every backup under the destination root and
// reports profiles holding more backups than the retention count.
type BackupsCheck struct {
	root      string
	retention int
}

var _ Check = (*BackupsCheck)(nil)

// NewBackupsCheck creates a check of the backups under root. A retention
// of 0 disables the retention report.
func NewBackupsCheck(root string, retention int) *BackupsCheck {
	return &BackupsCheck{root: paths.ExpandHome(root), retention: retention}
}

// Name returns the unique identifier for this check.
func (c *BackupsCheck) Name() string { return "backups" }

// Category returns the grouping for this check.
func (c *BackupsCheck) Category() string { return "backups" }

// Run re-hashes each backup against its manifest.
func (c *BackupsCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	infos, err := backup.List(c.root)
	if err != nil {
		if errors.Is(err, backup.ErrNoBackupsFound) {
			result.Status = SeverityInfo
			result.Message = "no backups yet"
			return result
		}
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}

	var damaged []string
	perProfile := make(map[string]int)
	for _, info := range infos {
		if ctx.Err() != nil {
			break
		}
		perProfile[info.ProfileName]++

		report, err := backup.Verify(info.Path)
		if err != nil || !report.OK() {
			damaged = append(damaged, filepath.Base(info.Path))
		}
	}

	var overRetention []string
	if c.retention > 0 {
		for profile, n := range perProfile {
			if n > c.retention {
				overRetention = append(overRetention, profile)
			}
		}
	}

	result.Details = map[string]any{
		"count":    len(infos),
		"profiles": perProfile,
	}

	switch {
	case len(damaged) > 0:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d of %d backups fail verification: %s",
			len(damaged), len(infos), strings.Join(damaged, ", "))
		result.Details["damaged"] = damaged
		result.FixHint = "run: apm backup verify <backup-dir> for details"
	case len(overRetention) > 0:
		result.Status = SeverityInfo
		result.Message = fmt.Sprintf("%d backups verified; %d profile(s) exceed retention of %d",
			len(infos), len(overRetention), c.retention)
		result.FixHint = "run: apm backup prune"
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d backups verified", len(infos))
	}
	return result
}
