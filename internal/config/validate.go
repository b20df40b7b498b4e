package config

import (
	"strconv"
	"strings"

	"github.com/thoreinstein/apm/internal/conflict"
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
	"github.com/thoreinstein/apm/internal/paths"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidValue indicates a field holds a value outside its allowed set.
	ErrInvalidValue = errors.New("invalid value")

	// ErrOutOfRange indicates a numeric field is outside its allowed range.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")
)

// maxScanDepth caps scan.max_depth.
const maxScanDepth = 10

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if strings.TrimSpace(cfg.Backup.DestinationPath) == "" {
		errs = append(errs, &FieldError{Field: "backup.destination_path", Err: ErrInvalidPath})
	} else if err := paths.Validate(cfg.Backup.DestinationPath); err != nil {
		errs = append(errs, &FieldError{Field: "backup.destination_path", Value: cfg.Backup.DestinationPath, Err: ErrInvalidPath})
	}

	if cfg.Backup.RetentionCount < 0 {
		errs = append(errs, &FieldError{Field: "backup.retention_count", Value: strconv.Itoa(cfg.Backup.RetentionCount), Err: ErrOutOfRange})
	}

	for _, p := range cfg.Scan.Paths {
		if err := paths.Validate(p); err != nil {
			errs = append(errs, &FieldError{Field: "scan.paths", Value: p, Err: ErrInvalidPath})
		}
	}

	if cfg.Scan.MaxDepth < 1 || cfg.Scan.MaxDepth > maxScanDepth {
		errs = append(errs, &FieldError{Field: "scan.max_depth", Value: strconv.Itoa(cfg.Scan.MaxDepth), Err: ErrOutOfRange})
	}

	if _, err := conflict.ParseStrategy(cfg.Conflicts.Strategy); err != nil {
		errs = append(errs, &FieldError{Field: "conflicts.strategy", Value: cfg.Conflicts.Strategy, Err: ErrInvalidValue})
	}

	if strings.ContainsAny(cfg.Conflicts.BackupSuffix, `/\`) {
		errs = append(errs, &FieldError{Field: "conflicts.backup_suffix", Value: cfg.Conflicts.BackupSuffix, Err: ErrInvalidValue})
	}

	if !logging.ValidLevel(cfg.Logging.Level) {
		errs = append(errs, &FieldError{Field: "logging.level", Value: cfg.Logging.Level, Err: ErrInvalidValue})
	}

	switch logging.Format(cfg.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, &FieldError{Field: "logging.format", Value: cfg.Logging.Format, Err: ErrInvalidValue})
	}

	return errs
}

// FieldError represents an error for a specific configuration key.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
