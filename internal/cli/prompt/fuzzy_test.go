package prompt

import (
	"errors"
	"testing"
	"time"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/apm/internal/addon"
)

func stubFinder(t *testing.T, idxs []int, err error) {
	t.Helper()
	orig := findMulti
	findMulti = func(_ any, _ func(int) string, _ ...fuzzyfinder.Option) ([]int, error) {
		return idxs, err
	}
	t.Cleanup(func() { findMulti = orig })
}

func addonFiles() map[string]*addon.File {
	mod := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return map[string]*addon.File{
		"WeakAuras": {Name: "WeakAuras", Primary: &addon.FileEntry{Path: "/sv/WeakAuras.lua", SizeBytes: 10, ModifiedAt: mod}},
		"Details":   {Name: "Details", Primary: &addon.FileEntry{Path: "/sv/Details.lua", SizeBytes: 20, ModifiedAt: mod}},
		"DBM-Core":  {Name: "DBM-Core", Primary: &addon.FileEntry{Path: "/sv/DBM-Core.lua", SizeBytes: 30, ModifiedAt: mod}},
	}
}

// Tests in this file swap a package variable and must not run in parallel.

func TestPickAddons(t *testing.T) {
	stubFinder(t, []int{2, 0}, nil)

	got, err := PickAddons(addonFiles())
	require.NoError(t, err)
	// Names are sorted: DBM-Core, Details, WeakAuras.
	assert.Equal(t, []string{"WeakAuras", "DBM-Core"}, got)
}

func TestPickAddons_Abort(t *testing.T) {
	stubFinder(t, nil, fuzzyfinder.ErrAbort)

	_, err := PickAddons(addonFiles())
	assert.True(t, errors.Is(err, ErrSelectionCancelled))
}

func TestPickAddons_Empty(t *testing.T) {
	_, err := PickAddons(nil)
	assert.True(t, errors.Is(err, ErrNoOptions))
}

func TestDescribeAddon(t *testing.T) {
	desc := describeAddon(addonFiles()["Details"])
	assert.Contains(t, desc, "Addon: Details")
	assert.Contains(t, desc, "/sv/Details.lua")
	assert.Contains(t, desc, "20 B")
	assert.Empty(t, describeAddon(nil))
}
