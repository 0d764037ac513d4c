// Package watermark persists the archiver's checkpoint: the receipt
// time of the newest message a past run durably archived. Several
// backends exist so the checkpoint can live next to the archive (file)
// or in shared infrastructure (sqlite, postgres).
package watermark

import (
	"context"
	"sync"
)

// DefaultKey is the property name used when none is configured.
const DefaultKey = "lastRun"

// Store is a tiny persisted key/value property store. Get reports
// absence through its second result; absence is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory keeps properties in memory only. Used by tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error { return nil }
