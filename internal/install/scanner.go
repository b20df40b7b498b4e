package install

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/logging"
)

// DefaultMaxDepth is how far below each root the scanner descends.
const DefaultMaxDepth = 3

// ScanConfig controls discovery.
type ScanConfig struct {
	// Roots are the directories searched. Missing or unreadable roots are
	// skipped.
	Roots []string

	IncludeBeta bool
	IncludePTR  bool

	// MaxDepth limits descent below each root. Zero means DefaultMaxDepth.
	MaxDepth int

	FollowSymlinks bool
}

// Scanner discovers installations beneath a set of roots.
type Scanner struct {
	cfg    ScanConfig
	logger *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the logger used for skipped paths.
func WithLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = l
	}
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScanConfig, opts ...ScannerOption) *Scanner {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	s := &Scanner{
		cfg:    cfg,
		logger: logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanInstallations walks every configured root and returns the
// installations found, deduplicated by data path, in discovery order.
// Per-path problems are logged and skipped; only cancellation is returned.
func (s *Scanner) ScanInstallations(ctx context.Context) ([]Installation, error) {
	var (
		found   []Installation
		seen    = make(map[string]bool)
		visited = make(map[string]bool)
	)

	add := func(inst *Installation) {
		if seen[inst.DataPath] || !s.wanted(inst.Kind) {
			return
		}
		seen[inst.DataPath] = true
		found = append(found, *inst)
	}

	for _, root := range s.cfg.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isDir(root) {
			s.logger.Debug("skipping scan root", "root", root)
			continue
		}
		if err := s.walk(ctx, root, 0, visited, add); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("scan finished", "installations", len(found))
	return found, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, depth int, visited map[string]bool, add func(*Installation)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if visited[real] {
			return nil
		}
		visited[real] = true
	}

	c, err := Classify(dir)
	switch {
	case err == nil:
		inst, err := New(c)
		if err != nil {
			s.logger.Debug("skipping installation", "path", dir, "error", err)
			return nil
		}
		add(inst)
		return nil
	case errors.Is(err, ErrAmbiguousInstallation):
		var amb *AmbiguousError
		if errors.As(err, &amb) {
			for _, v := range amb.Choices {
				s.addVersion(dir, v, add)
			}
		}
		return nil
	default:
		s.logger.Log(ctx, logging.LevelTrace, "not an installation", "path", dir, "error", err)
	}

	if depth >= s.cfg.MaxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Debug("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		child := filepath.Join(dir, e.Name())
		if !s.descendable(e, child) {
			continue
		}
		if err := s.walk(ctx, child, depth+1, visited, add); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) descendable(e fs.DirEntry, path string) bool {
	if e.Type()&fs.ModeSymlink != 0 {
		return s.cfg.FollowSymlinks && isDir(path)
	}
	return e.IsDir()
}

func (s *Scanner) addVersion(root, version string, add func(*Installation)) {
	c, err := Classify(root, WithVersion(version))
	if err != nil {
		s.logger.Debug("skipping version", "path", root, "version", version, "error", err)
		return
	}
	inst, err := New(c)
	if err != nil {
		s.logger.Debug("skipping installation", "path", root, "version", version, "error", err)
		return
	}
	add(inst)
}

func (s *Scanner) wanted(k Kind) bool {
	switch k {
	case KindBeta:
		return s.cfg.IncludeBeta
	case KindPTR:
		return s.cfg.IncludePTR
	default:
		return true
	}
}

// AddManual classifies a user-supplied path and returns its installation.
// version picks a version subtree when the path is an installation root
// holding several; pass "" otherwise. Unlike scanning, errors are returned
// to the caller and kind filters do not apply.
func (s *Scanner) AddManual(path, version string) (*Installation, error) {
	var opts []ClassifyOption
	if version != "" {
		opts = append(opts, WithVersion(version))
	}
	inst, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("added installation", "path", inst.DataPath, "kind", inst.Kind)
	return inst, nil
}

// Open classifies path and loads the installation it belongs to.
func Open(path string, opts ...ClassifyOption) (*Installation, error) {
	c, err := Classify(path, opts...)
	if err != nil {
		return nil, err
	}
	return New(c)
}
