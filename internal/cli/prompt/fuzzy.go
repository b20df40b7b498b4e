package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"

	"github.com/thoreinstein/apm/internal/addon"
	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/errors"
)

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// findMulti is swapped in tests.
var findMulti = fuzzyfinder.FindMulti

// PickAddons lets the user choose addons with a fuzzy finder (Tab to mark).
// Aborting returns ErrSelectionCancelled.
func PickAddons(files map[string]*addon.File) ([]string, error) {
	names := addon.Names(files)
	if len(names) == 0 {
		return nil, ErrNoOptions
	}

	idxs, err := findMulti(
		names,
		func(i int) string {
			return names[i]
		},
		fuzzyfinder.WithHeader("Select addons (Tab to mark, Enter to confirm)"),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return describeAddon(files[names[i]])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "addon selection failed")
	}

	selected := make([]string, 0, len(idxs))
	for _, i := range idxs {
		selected = append(selected, names[i])
	}
	return selected, nil
}

func describeAddon(f *addon.File) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Addon: %s\n\n", f.Name)
	for _, e := range f.Entries() {
		fmt.Fprintf(&b, "%s\n  %s, modified %s\n", e.Path, cli.FormatBytes(e.SizeBytes), cli.FormatTime(e.ModifiedAt))
	}
	return b.String()
}
