// Package archive holds the pure naming rules of the archive layout:
// which folder a message lands in, what its file is called, and how a
// naming collision with an existing file is resolved.
package archive

import (
	"fmt"
	"time"
)

// Granularity controls how deep the archive folder tree nests.
type Granularity string

const (
	Yearly  Granularity = "yearly"
	Monthly Granularity = "monthly"
	Daily   Granularity = "daily"
)

// ParseGranularity validates a configured granularity value.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Yearly, Monthly, Daily:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q (want yearly, monthly or daily)", s)
}

// PathFor maps a timestamp to its archive folder path. The mapping is
// deterministic: identical inputs always yield identical paths, both
// when planning cache preloads and when deciding the save target.
func PathFor(ts time.Time, g Granularity) (string, error) {
	switch g {
	case Yearly:
		return ts.Format("2006"), nil
	case Monthly:
		return ts.Format("2006/01"), nil
	case Daily:
		return ts.Format("2006/20060102"), nil
	}
	return "", fmt.Errorf("unknown granularity %q", g)
}
