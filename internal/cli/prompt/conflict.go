package prompt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thoreinstein/apm/internal/cli"
	"github.com/thoreinstein/apm/internal/conflict"
	"github.com/thoreinstein/apm/internal/errors"
)

// ConflictPrompter asks about existing destination files one at a time.
// Upper-case answers apply to every later conflict as well.
type ConflictPrompter struct {
	sel    *Selector
	sticky *conflict.Action
}

var _ conflict.Prompter = (*ConflictPrompter)(nil)

// NewConflictPrompter creates a ConflictPrompter using stdin and stdout.
func NewConflictPrompter() *ConflictPrompter {
	return NewConflictPrompterWithIO(os.Stdin, os.Stdout)
}

// NewConflictPrompterWithIO creates a ConflictPrompter with custom reader and writer.
func NewConflictPrompterWithIO(r io.Reader, w io.Writer) *ConflictPrompter {
	return &ConflictPrompter{sel: NewSelectorWithIO(r, w)}
}

// PromptConflict implements conflict.Prompter. EOF aborts.
func (p *ConflictPrompter) PromptConflict(c conflict.Conflict) (conflict.Action, error) {
	if p.sticky != nil {
		return *p.sticky, nil
	}

	w := p.sel.writer
	fmt.Fprintf(w, "\n%s already exists\n", c.DestinationPath)
	fmt.Fprintf(w, "  existing: %s, modified %s\n", cli.FormatBytes(c.ExistingSize), cli.FormatTime(c.ExistingModTime))
	fmt.Fprintf(w, "  incoming: %s, modified %s\n", cli.FormatBytes(c.SourceSize), cli.FormatTime(c.SourceModified))

	for {
		fmt.Fprint(w, "[o]verwrite, [s]kip, [r]ename existing, [a]bort (O/S/R for all) [s]: ")

		input, err := p.sel.readLine()
		if err != nil {
			if errors.Is(err, ErrSelectionCancelled) {
				return conflict.Abort, nil
			}
			return conflict.Abort, err
		}

		action, all, ok := parseAnswer(input)
		if !ok {
			fmt.Fprintf(w, "unrecognized answer %q\n", input)
			continue
		}
		if all {
			p.sticky = &action
		}
		return action, nil
	}
}

func parseAnswer(input string) (action conflict.Action, all, ok bool) {
	if input == "" {
		return conflict.Skip, false, true
	}
	all = input == strings.ToUpper(input) && input != strings.ToLower(input)

	switch strings.ToLower(input) {
	case "o", "overwrite":
		return conflict.Overwrite, all, true
	case "s", "skip":
		return conflict.Skip, all, true
	case "r", "rename":
		return conflict.Rename, all, true
	case "a", "abort":
		return conflict.Abort, false, true
	default:
		return conflict.Skip, false, false
	}
}
