package doctor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	name   string
	status Severity
	runs   int
}

func (c *stubCheck) Name() string     { return c.name }
func (c *stubCheck) Category() string { return "test" }

func (c *stubCheck) Run(context.Context) *CheckResult {
	c.runs++
	return &CheckResult{Name: c.name, Category: "test", Status: c.status}
}

type fixableCheck struct {
	stubCheck
	fixable bool
	fixed   bool
}

func (c *fixableCheck) CanFix() bool { return c.fixable }

func (c *fixableCheck) Fix() []FixResult {
	c.fixed = true
	return []FixResult{{Path: c.name, Fixed: true}}
}

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []Severity
		wantPassed   int
		wantInfo     int
		wantWarnings int
		wantErrors   int
	}{
		{name: "empty runner"},
		{
			name:       "all pass",
			statuses:   []Severity{SeverityPass, SeverityPass},
			wantPassed: 2,
		},
		{
			name:         "mixed",
			statuses:     []Severity{SeverityPass, SeverityInfo, SeverityWarning, SeverityError, SeverityWarning},
			wantPassed:   1,
			wantInfo:     1,
			wantWarnings: 2,
			wantErrors:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner()
			for i, s := range tt.statuses {
				r.AddCheck(&stubCheck{name: string(rune('a' + i)), status: s})
			}

			report := r.Run(t.Context())

			assert.Len(t, report.Results, len(tt.statuses))
			assert.Equal(t, tt.wantPassed, report.Summary.Passed)
			assert.Equal(t, tt.wantInfo, report.Summary.Info)
			assert.Equal(t, tt.wantWarnings, report.Summary.Warnings)
			assert.Equal(t, tt.wantErrors, report.Summary.Errors)
			assert.Equal(t, tt.wantErrors > 0, report.HasErrors())
			assert.Equal(t, tt.wantWarnings > 0, report.HasWarnings())
		})
	}
}

func TestRunner_RunOrderAndTimestamp(t *testing.T) {
	r := NewRunner()
	fixed := time.Date(2026, 10, 17, 9, 30, 0, 0, time.FixedZone("X", 3600))
	r.now = func() time.Time { return fixed }

	for _, name := range []string{"first", "second", "third"} {
		r.AddCheck(&stubCheck{name: name})
	}

	report := r.Run(t.Context())
	require.Len(t, report.Results, 3)
	assert.Equal(t, "first", report.Results[0].Name)
	assert.Equal(t, "third", report.Results[2].Name)
	assert.Equal(t, fixed.UTC(), report.Timestamp)
}

func TestRunner_RunCancelled(t *testing.T) {
	check := &stubCheck{name: "never"}
	r := NewRunner()
	r.AddCheck(check)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report := r.Run(ctx)
	assert.Empty(t, report.Results)
	assert.Zero(t, check.runs)
}

func TestRunner_Fix(t *testing.T) {
	plain := &stubCheck{name: "plain"}
	nothing := &fixableCheck{stubCheck: stubCheck{name: "nothing"}}
	broken := &fixableCheck{stubCheck: stubCheck{name: "broken"}, fixable: true}

	r := NewRunner()
	r.AddCheck(plain)
	r.AddCheck(nothing)
	r.AddCheck(broken)

	results := r.Fix()
	require.Len(t, results, 1)
	assert.Equal(t, "broken", results[0].Path)
	assert.True(t, broken.fixed)
	assert.False(t, nothing.fixed)
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range []Severity{SeverityPass, SeverityInfo, SeverityWarning, SeverityError} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var got Severity
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}

	assert.Equal(t, "unknown", Severity(42).String())

	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}

func TestReport_JSON(t *testing.T) {
	r := NewRunner()
	r.AddCheck(&stubCheck{name: "a", status: SeverityWarning})

	data, err := json.Marshal(r.Run(t.Context()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warning"`)
	assert.Contains(t, string(data), `"warnings":1`)
}
