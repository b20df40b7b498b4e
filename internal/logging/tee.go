package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thoreinstein/apm/internal/errors"
)

// Tee returns a handler that dispatches each record to every handler in hs
// that is enabled for its level. Nil entries are dropped. A single handler
// is returned as is.
func Tee(hs ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			kept = append(kept, h)
		}
	}
	switch len(kept) {
	case 0:
		return slog.NewTextHandler(io.Discard, nil)
	case 1:
		return kept[0]
	}
	return &teeHandler{handlers: kept}
}

type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives each handler its own copy of r. Every handler runs even if
// an earlier one fails; the errors are joined.
func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: hs}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: hs}
}

// logFilePerm keeps log files private; they hold local paths.
const logFilePerm = 0o600

// OpenFile opens path for appending, creating it and its directory as
// needed, and returns a JSON handler writing to it at level. The caller
// closes the returned file.
func OpenFile(path string, level slog.Leveler) (slog.Handler, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, errors.Wrap(err, "creating log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening log file")
	}
	return slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}), f, nil
}
