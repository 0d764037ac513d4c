package archive

import (
	"testing"
	"time"
)

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"plain subject", "Q1 Report", "2025-03-15T10_00_00 Q1 Report.eml"},
		{"unsafe characters", "a/b?c", "2025-03-15T10_00_00 a_b_c.eml"},
		{"empty subject", "", "2025-03-15T10_00_00.eml"},
		{"whitespace subject", "   ", "2025-03-15T10_00_00.eml"},
		{"all reserved characters", `/\?%*:|"<>`, "2025-03-15T10_00_00 __________.eml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(ts, tt.subject); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilename_Deterministic(t *testing.T) {
	ts := time.Date(2023, 7, 1, 8, 30, 15, 0, time.UTC)
	a := Filename(ts, "hello")
	b := Filename(ts, "hello")
	if a != b {
		t.Errorf("Filename not deterministic: %q vs %q", a, b)
	}
}
