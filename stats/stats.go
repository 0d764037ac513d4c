// Package stats tracks the outcome counters of one archiving run.
package stats

import "sync"

type EventType string

const (
	// EventTypeEnumerated is emitted once, after candidate selection,
	// carrying the total candidate count.
	EventTypeEnumerated EventType = "enumerated"
	EventTypeSaved      EventType = "saved"
	EventTypeSkipped    EventType = "skipped"
	EventTypeReplaced   EventType = "replaced"
	EventTypeDryRun     EventType = "dry_run"
	EventTypeError      EventType = "error"
)

type Event struct {
	Type      EventType
	MessageID string
	Count     int
	Err       error
}

// Summary is the end-of-run report. Replaced messages count toward
// Skipped as well: an overwrite adds no new unique content.
type Summary struct {
	Candidates int
	Saved      int
	Skipped    int
	Replaced   int
	DryRun     int
	Errors     int
	LastError  error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"candidates", s.Candidates,
		"saved", s.Saved,
		"skipped", s.Skipped,
		"replaced", s.Replaced,
		"errors", s.Errors,
	}
	if s.DryRun > 0 {
		attrs = append(attrs, "dryRun", s.DryRun)
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Collector folds events into a Summary. The engine applies events
// synchronously from its single processing loop; the mutex only guards
// Snapshot readers such as a progress renderer.
type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Apply(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeEnumerated:
		c.summary.Candidates = evt.Count
	case EventTypeSaved:
		c.summary.Saved++
	case EventTypeSkipped:
		c.summary.Skipped++
	case EventTypeReplaced:
		c.summary.Replaced++
		c.summary.Skipped++
	case EventTypeDryRun:
		c.summary.DryRun++
	case EventTypeError:
		c.summary.Errors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	summary := c.summary
	c.mu.Unlock()
	return summary
}
