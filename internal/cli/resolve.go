// Package cli provides CLI-specific helpers shared by the apm commands.
package cli

import (
	"github.com/thoreinstein/apm/internal/errors"
	"github.com/thoreinstein/apm/internal/install"
)

// Sentinel errors for resolving command arguments.
var (
	// ErrNoAccounts is returned when an installation has no account
	// with saved data.
	ErrNoAccounts = errors.New("no accounts found")

	// ErrUnknownAccount is returned when --account names no account.
	ErrUnknownAccount = errors.New("unknown account")
)

// Chooser picks one of several options and returns its index.
// prompt.Selector implements it.
type Chooser interface {
	Select(title string, options []string) (int, error)
}

// ResolveInstallation opens path as an installation. When path is an
// installation root holding several versions and version is empty, ch is
// asked to pick one; with a nil ch the ambiguity is an error.
// Errors are user errors carrying a hint.
func ResolveInstallation(path, version string, ch Chooser) (*install.Installation, error) {
	inst, err := resolveInstallation(path, version, ch)
	switch {
	case err == nil:
		return inst, nil
	case errors.Is(err, install.ErrAmbiguousInstallation):
		return nil, errors.NewUserError(err, "Pass --version with one of the listed folders")
	default:
		return nil, errors.NewUserError(err, "Run 'apm scan' to list detected installations")
	}
}

func resolveInstallation(path, version string, ch Chooser) (*install.Installation, error) {
	var opts []install.ClassifyOption
	if version != "" {
		opts = append(opts, install.WithVersion(version))
	}

	inst, err := install.Open(path, opts...)
	if err == nil {
		return inst, nil
	}

	var amb *install.AmbiguousError
	if ch == nil || version != "" || !errors.As(err, &amb) {
		return nil, err
	}

	idx, serr := ch.Select("Installation "+amb.Path+" has several versions", amb.Choices)
	if serr != nil {
		return nil, errors.Wrap(serr, "choosing version")
	}
	return install.Open(path, install.WithVersion(amb.Choices[idx]))
}

// ResolveAccount returns the account named id. An empty id selects the
// only account, or asks ch when there are several. With a nil ch and
// several accounts, ErrUnknownAccount lists the choices.
func ResolveAccount(inst *install.Installation, id string, ch Chooser) (*install.Account, error) {
	a, err := resolveAccount(inst, id, ch)
	if err != nil {
		return nil, errors.NewUserError(err, "Run 'apm accounts <path>' to list accounts")
	}
	return a, nil
}

func resolveAccount(inst *install.Installation, id string, ch Chooser) (*install.Account, error) {
	if len(inst.Accounts) == 0 {
		return nil, errors.Wrapf(ErrNoAccounts, "in %s", inst.DataPath)
	}

	if id != "" {
		a, ok := inst.Account(id)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownAccount, "%q (have %v)", id, inst.AccountIDs())
		}
		return a, nil
	}

	if len(inst.Accounts) == 1 {
		return &inst.Accounts[0], nil
	}

	if ch == nil {
		return nil, errors.Wrapf(ErrUnknownAccount, "several accounts, pass --account (have %v)", inst.AccountIDs())
	}

	idx, err := ch.Select("Accounts", inst.AccountIDs())
	if err != nil {
		return nil, errors.Wrap(err, "choosing account")
	}
	return &inst.Accounts[idx], nil
}
