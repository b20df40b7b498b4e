package conflict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/apm/internal/errors"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"prompt", StrategyPrompt, false},
		{"Overwrite", StrategyOverwrite, false},
		{"SKIP", StrategySkip, false},
		{"backup", StrategyBackup, false},
		{"merge", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidStrategy))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	c := &Conflict{AddonName: "DBM-Core", DestinationPath: "/dst/DBM-Core.lua"}
	answer := func(a Action) Prompter {
		return PromptFunc(func(Conflict) (Action, error) { return a, nil })
	}

	tests := []struct {
		name     string
		policy   Policy
		prompter Prompter
		conflict *Conflict
		want     Decision
	}{
		{"no conflict", Policy{Strategy: StrategySkip}, nil, nil, Decision{Action: Overwrite}},
		{"overwrite", Policy{Strategy: StrategyOverwrite}, nil, c, Decision{Action: Overwrite}},
		{"skip", Policy{Strategy: StrategySkip}, nil, c, Decision{Action: Skip}},
		{"backup", Policy{Strategy: StrategyBackup, BackupSuffix: ".old"}, nil, c, Decision{Action: Rename, Suffix: ".old"}},
		{"backup default suffix", Policy{Strategy: StrategyBackup}, nil, c, Decision{Action: Rename, Suffix: DefaultSuffix}},
		{"prompt answered skip", Policy{Strategy: StrategyPrompt}, answer(Skip), c, Decision{Action: Skip}},
		{"prompt answered rename", Policy{Strategy: StrategyPrompt}, answer(Rename), c, Decision{Action: Rename, Suffix: DefaultSuffix}},
		{"prompt answered abort", Policy{Strategy: StrategyPrompt}, answer(Abort), c, Decision{Action: Abort}},
		{"prompt headless preserves", Policy{Strategy: StrategyPrompt, BackupExisting: true}, nil, c, Decision{Action: Rename, Suffix: DefaultSuffix}},
		{"prompt headless skips", Policy{Strategy: StrategyPrompt}, nil, c, Decision{Action: Skip}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.policy, tt.prompter).Resolve(tt.conflict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_PromptError(t *testing.T) {
	boom := errors.New("stdin closed")
	r := NewResolver(Policy{Strategy: StrategyPrompt}, PromptFunc(func(Conflict) (Action, error) {
		return Abort, boom
	}))

	_, err := r.Resolve(&Conflict{DestinationPath: "x"})
	assert.True(t, errors.Is(err, boom))
}

func TestResolver_UnknownAction(t *testing.T) {
	r := NewResolver(Policy{Strategy: StrategyPrompt}, PromptFunc(func(Conflict) (Action, error) {
		return Action(42), nil
	}))

	d, err := r.Resolve(&Conflict{DestinationPath: "WeakAuras.lua"})
	assert.True(t, errors.Is(err, ErrInvalidAction))
	assert.Contains(t, err.Error(), "Action(42)")
	assert.Equal(t, Decision{}, d)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.lua")
	dst := filepath.Join(dir, "dst.lua")
	require.NoError(t, os.WriteFile(src, []byte("new data"), 0o644))

	c, err := Check("Addon", src, dst)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))
	c, err = Check("Addon", src, dst)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int64(3), c.ExistingSize)
	assert.Equal(t, int64(8), c.SourceSize)
	assert.Equal(t, "Addon", c.AddonName)
}

func TestPreserveExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "DBM-Core.lua")

	write := func(content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("first")
	got, err := PreserveExisting(path, ".backup")
	require.NoError(t, err)
	assert.Equal(t, path+".backup", got)

	write("second")
	got, err = PreserveExisting(path, ".backup")
	require.NoError(t, err)
	assert.Equal(t, path+".backup.1", got)

	first, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, "first", string(first))

	second, err := os.ReadFile(path + ".backup.1")
	require.NoError(t, err)
	assert.Equal(t, "second", string(second))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
