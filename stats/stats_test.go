package stats

import (
	"context"
	"errors"
	"testing"
)

func TestCollectorApply(t *testing.T) {
	c := NewCollector()

	c.Apply(Event{Type: EventTypeScanned})
	c.Apply(Event{Type: EventTypeScanned})
	c.Apply(Event{Type: EventTypeFiltered})
	c.Apply(Event{Type: EventTypeAnalyzed})
	c.Apply(Event{Type: EventTypeHeaderAbsent})
	c.Apply(Event{Type: EventTypeEmitted})
	c.Apply(Event{Type: EventTypeError, Err: errors.New("boom")})

	summary := c.Snapshot()
	if summary.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", summary.Scanned)
	}
	if summary.Filtered != 1 || summary.Analyzed != 1 || summary.HeaderAbsent != 1 || summary.Emitted != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Errors != 1 || summary.LastError == nil {
		t.Errorf("Errors = %d, LastError = %v", summary.Errors, summary.LastError)
	}
}

func TestCollectorRunDrainsChannel(t *testing.T) {
	c := NewCollector()
	events := make(chan Event, 4)
	events <- Event{Type: EventTypeScanned}
	events <- Event{Type: EventTypeAnalyzed}
	close(events)

	c.Run(context.Background(), events)

	summary := c.Snapshot()
	if summary.Scanned != 1 || summary.Analyzed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestCollectorRunStopsOnCancel(t *testing.T) {
	c := NewCollector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Channel is never closed; cancellation must end the run.
	c.Run(ctx, make(chan Event))
}
