package archive

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		mode   Mode
		want   Action
	}{
		{"absent saves regardless of ignore", false, ModeIgnore, ActionSave},
		{"absent saves regardless of overwrite", false, ModeOverwrite, ActionSave},
		{"present with ignore skips", true, ModeIgnore, ActionSkip},
		{"present with overwrite replaces", true, ModeOverwrite, ActionReplace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.exists, tt.mode)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_UnknownMode(t *testing.T) {
	// Unknown modes are only reachable when a collision occurs; config
	// parsing rejects them earlier.
	if _, err := Resolve(true, Mode("merge")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"ignore", "overwrite"} {
		if _, err := ParseMode(valid); err != nil {
			t.Errorf("ParseMode(%q) error = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "replace", "Ignore"} {
		if _, err := ParseMode(invalid); err == nil {
			t.Errorf("ParseMode(%q) expected error", invalid)
		}
	}
}
