package install

import (
	"os"
	"path/filepath"
	"testing"
)

// makeAccount creates <root>/WTF/Account/<id>/SavedVariables and returns
// the account container path.
func makeAccount(t *testing.T, root, id string) string {
	t.Helper()
	sv := filepath.Join(root, WTFDir, AccountDir, id, SavedVariablesDir)
	if err := os.MkdirAll(sv, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", sv, err)
	}
	return filepath.Join(root, WTFDir, AccountDir)
}

// makeFile writes a small file, creating parent directories.
func makeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}
