package archive

import (
	"strings"
	"testing"
	"time"
)

func TestPathFor(t *testing.T) {
	ts := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		granularity Granularity
		want        string
	}{
		{"yearly", Yearly, "2025"},
		{"monthly", Monthly, "2025/03"},
		{"daily", Daily, "2025/20250315"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PathFor(ts, tt.granularity)
			if err != nil {
				t.Fatalf("PathFor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PathFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathFor_UnknownGranularity(t *testing.T) {
	if _, err := PathFor(time.Now(), Granularity("weekly")); err == nil {
		t.Error("expected error for unknown granularity")
	}
}

func TestPathFor_CoarserIsAncestor(t *testing.T) {
	// The yearly path must be a prefix of the monthly path, and the
	// monthly path's first segment must match the daily path's.
	ts := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	yearly, _ := PathFor(ts, Yearly)
	monthly, _ := PathFor(ts, Monthly)
	daily, _ := PathFor(ts, Daily)

	if !strings.HasPrefix(monthly, yearly+"/") {
		t.Errorf("monthly path %q does not descend from yearly path %q", monthly, yearly)
	}
	if !strings.HasPrefix(daily, yearly+"/") {
		t.Errorf("daily path %q does not descend from yearly path %q", daily, yearly)
	}
}

func TestParseGranularity(t *testing.T) {
	for _, valid := range []string{"yearly", "monthly", "daily"} {
		if _, err := ParseGranularity(valid); err != nil {
			t.Errorf("ParseGranularity(%q) error = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Monthly", "hourly"} {
		if _, err := ParseGranularity(invalid); err == nil {
			t.Errorf("ParseGranularity(%q) expected error", invalid)
		}
	}
}
