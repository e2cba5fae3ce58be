package log

import "testing"

func TestSetLevelFromString(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" DEBUG ", LevelDebug},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
	}
	for _, tt := range tests {
		SetLevelFromString(tt.in)
		if minLevel != tt.want {
			t.Errorf("SetLevelFromString(%q): level = %v, want %v", tt.in, minLevel, tt.want)
		}
	}

	// Unknown values keep the current level.
	SetLevel(LevelWarn)
	SetLevelFromString("verbose")
	if minLevel != LevelWarn {
		t.Errorf("unknown value changed level to %v", minLevel)
	}
}

func TestEnabled(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelWarn)
	if enabled(LevelDebug) || enabled(LevelInfo) {
		t.Error("levels below the minimum should be disabled")
	}
	if !enabled(LevelWarn) || !enabled(LevelError) {
		t.Error("levels at or above the minimum should be enabled")
	}
}

func TestFormatKVs(t *testing.T) {
	got := formatKVs("path", "a.xlsx", "rows", 3)
	if got != " path=a.xlsx rows=3" {
		t.Errorf("formatKVs = %q", got)
	}

	// Non-string keys and dangling values are skipped.
	if got := formatKVs(42, "x", "key"); got != "" {
		t.Errorf("malformed kv list = %q", got)
	}
}
