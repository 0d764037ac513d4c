package stats

import (
	"errors"
	"testing"
)

func TestCollector(t *testing.T) {
	c := NewCollector()

	c.Apply(Event{Type: EventTypeEnumerated, Count: 4})
	c.Apply(Event{Type: EventTypeSaved, MessageID: "a"})
	c.Apply(Event{Type: EventTypeSkipped, MessageID: "b"})
	c.Apply(Event{Type: EventTypeReplaced, MessageID: "c"})
	c.Apply(Event{Type: EventTypeError, MessageID: "d", Err: errors.New("boom")})

	s := c.Snapshot()
	if s.Candidates != 4 {
		t.Errorf("Candidates = %d, want 4", s.Candidates)
	}
	if s.Saved != 1 {
		t.Errorf("Saved = %d, want 1", s.Saved)
	}
	// A replace counts as a skip too: no new unique content.
	if s.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", s.Skipped)
	}
	if s.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", s.Replaced)
	}
	if s.Errors != 1 || s.LastError == nil {
		t.Errorf("Errors = %d, LastError = %v; want 1 with error", s.Errors, s.LastError)
	}
}

func TestSummary_LogAttrs(t *testing.T) {
	s := Summary{Candidates: 2, Saved: 1, Skipped: 1}
	attrs := s.LogAttrs()
	if len(attrs) != 10 {
		t.Errorf("LogAttrs() has %d elements, want 10", len(attrs))
	}
}
