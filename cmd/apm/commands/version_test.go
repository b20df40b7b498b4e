package commands

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/thoreinstein/apm/internal/config"
)

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand_OutputFormat(t *testing.T) {
	t.Setenv(config.EnvDataDir, t.TempDir())

	output, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	tests := []struct {
		name     string
		contains string
	}{
		{name: "contains version header", contains: "apm version"},
		{name: "contains commit field", contains: "commit:"},
		{name: "contains built field", contains: "built:"},
		{name: "contains go field", contains: "go:"},
		{name: "contains config field", contains: "using defaults"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(output, tt.contains) {
				t.Errorf("version output missing %q\nGot:\n%s", tt.contains, output)
			}
		})
	}
}

func TestVersionCommand_GoVersion(t *testing.T) {
	var buf bytes.Buffer
	runVersionWithWriter(&buf)

	// The output should contain the actual Go runtime version
	goVersion := runtime.Version()
	if !strings.Contains(buf.String(), goVersion) {
		t.Errorf("version output should contain Go version %q\nGot:\n%s", goVersion, buf.String())
	}
}
