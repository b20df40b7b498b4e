package conflict

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/pkg/fileutil"
)

// DefaultSuffix is appended to preserved destination files.
const DefaultSuffix = ".backup"

// Strategy is the configured policy for existing destination files.
type Strategy string

// Conflict strategies.
const (
	StrategyPrompt    Strategy = "prompt"
	StrategyOverwrite Strategy = "overwrite"
	StrategySkip      Strategy = "skip"
	StrategyBackup    Strategy = "backup"
)

// Strategies lists the valid strategies.
var Strategies = []Strategy{StrategyPrompt, StrategyOverwrite, StrategySkip, StrategyBackup}

// ErrInvalidStrategy indicates an unrecognized strategy name.
var ErrInvalidStrategy = errors.New("invalid conflict strategy")

// ErrInvalidAction indicates a Prompter returned an Action outside the
// defined set.
var ErrInvalidAction = errors.New("invalid conflict action")

// ParseStrategy parses a strategy name, ignoring case.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidStrategy, "%q (want prompt, overwrite, skip or backup)", s)
}

// Policy is how destination conflicts are handled.
type Policy struct {
	Strategy Strategy

	// BackupExisting preserves the existing file instead of skipping when
	// the strategy is prompt and no one can be asked.
	BackupExisting bool

	// BackupSuffix is appended to preserved files. Empty means DefaultSuffix.
	BackupSuffix string
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Strategy:       StrategyPrompt,
		BackupExisting: true,
		BackupSuffix:   DefaultSuffix,
	}
}

// Action is what to do with one conflicting file.
type Action int

// Actions.
const (
	// Overwrite replaces the destination.
	Overwrite Action = iota
	// Skip leaves the destination untouched.
	Skip
	// Rename preserves the destination under a suffixed name, then writes.
	Rename
	// Abort stops the whole operation.
	Abort
)

func (a Action) String() string {
	switch a {
	case Overwrite:
		return "overwrite"
	case Skip:
		return "skip"
	case Rename:
		return "rename"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is the resolved action for one file.
type Decision struct {
	Action Action
	// Suffix is set for Rename.
	Suffix string
}

// Conflict describes a destination file that already exists.
type Conflict struct {
	AddonName       string
	SourcePath      string
	DestinationPath string
	SourceSize      int64
	SourceModified  time.Time
	ExistingSize    int64
	ExistingModTime time.Time
}

// Prompter asks the user about a single conflict. It is called
// synchronously from the copy loop.
type Prompter interface {
	PromptConflict(c Conflict) (Action, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(c Conflict) (Action, error)

// PromptConflict calls f.
func (f PromptFunc) PromptConflict(c Conflict) (Action, error) {
	return f(c)
}

// Resolver turns a Policy into per-file decisions.
type Resolver struct {
	policy   Policy
	prompter Prompter
}

// NewResolver creates a Resolver. prompter may be nil.
func NewResolver(policy Policy, prompter Prompter) *Resolver {
	if policy.BackupSuffix == "" {
		policy.BackupSuffix = DefaultSuffix
	}
	if policy.Strategy == "" {
		policy.Strategy = StrategyPrompt
	}
	return &Resolver{policy: policy, prompter: prompter}
}

// Policy returns the effective policy.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Check stats the destination of src -> dst and returns the Conflict when
// dst exists. A nil Conflict means there is nothing to resolve.
func Check(addonName, src, dst string) (*Conflict, error) {
	existing, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "checking %s", dst)
	}
	c := &Conflict{
		AddonName:       addonName,
		SourcePath:      src,
		DestinationPath: dst,
		ExistingSize:    existing.Size(),
		ExistingModTime: existing.ModTime(),
	}
	if info, err := os.Stat(src); err == nil {
		c.SourceSize = info.Size()
		c.SourceModified = info.ModTime()
	}
	return c, nil
}

// Resolve decides what to do with c. A nil c (no existing destination)
// always resolves to Overwrite.
func (r *Resolver) Resolve(c *Conflict) (Decision, error) {
	if c == nil {
		return Decision{Action: Overwrite}, nil
	}

	switch r.policy.Strategy {
	case StrategyOverwrite:
		return Decision{Action: Overwrite}, nil
	case StrategySkip:
		return Decision{Action: Skip}, nil
	case StrategyBackup:
		return r.rename(), nil
	case StrategyPrompt:
		if r.prompter == nil {
			if r.policy.BackupExisting {
				return r.rename(), nil
			}
			return Decision{Action: Skip}, nil
		}
		action, err := r.prompter.PromptConflict(*c)
		if err != nil {
			return Decision{}, errors.Wrapf(err, "resolving conflict for %s", c.DestinationPath)
		}
		switch action {
		case Overwrite, Skip, Abort:
			return Decision{Action: action}, nil
		case Rename:
			return r.rename(), nil
		default:
			return Decision{}, errors.Wrapf(ErrInvalidAction, "%s for %s", action, c.DestinationPath)
		}
	default:
		return Decision{}, errors.Wrapf(ErrInvalidStrategy, "%q", r.policy.Strategy)
	}
}

func (r *Resolver) rename() Decision {
	return Decision{Action: Rename, Suffix: r.policy.BackupSuffix}
}

// PreserveExisting moves path aside to path+suffix, or path+suffix+".N"
// for the first free N, so earlier preserved copies are kept. It returns
// the new name.
func PreserveExisting(path, suffix string) (string, error) {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	target := path + suffix
	for n := 1; ; n++ {
		taken, err := fileutil.Exists(target)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		target = fmt.Sprintf("%s%s.%d", path, suffix, n)
	}
	if err := os.Rename(path, target); err != nil {
		return "", errors.Wrapf(err, "preserving %s", path)
	}
	return target, nil
}
