package install

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/apm/internal/errors"
)

// GetAccounts lists the accounts of an installation. An account is a
// non-hidden subdirectory of DataPath holding a SavedVariables directory;
// other entries are skipped silently. The result is sorted by ID.
func GetAccounts(inst *Installation) ([]Account, error) {
	entries, err := os.ReadDir(inst.DataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Path: inst.DataPath, Err: ErrDirectoryNotFound}
		}
		return nil, errors.Wrapf(err, "reading accounts in %s", inst.DataPath)
	}

	accounts := make([]Account, 0, len(entries))
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		dir := filepath.Join(inst.DataPath, e.Name())
		if !isDir(dir) {
			continue
		}
		sv, ok := findChild(dir, SavedVariablesDir)
		if !ok {
			continue
		}
		accounts = append(accounts, Account{ID: e.Name(), DataDirectory: sv})
	}

	slices.SortFunc(accounts, func(a, b Account) int {
		return strings.Compare(a.ID, b.ID)
	})
	return accounts, nil
}
