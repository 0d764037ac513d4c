package watermark

import (
	"fmt"
	"strings"
)

// Open selects a backend from a state location specifier:
//
//	memory://               in-memory (dry runs, tests)
//	sqlite:///path/to.db    sqlite database file
//	postgres://user@host/db postgres connection string
//	anything else           JSON properties file at that path
func Open(spec string) (Store, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("watermark: state location is empty")
	}

	switch {
	case spec == "memory://":
		return NewMemory(), nil
	case strings.HasPrefix(spec, "sqlite://"):
		path := strings.TrimPrefix(spec, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("watermark: sqlite state location is missing a path")
		}
		return NewSQL("sqlite", path)
	case strings.HasPrefix(spec, "postgres://"), strings.HasPrefix(spec, "postgresql://"):
		return NewSQL("postgres", spec)
	default:
		return NewFile(spec)
	}
}
