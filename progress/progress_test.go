package progress

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dhcgn/mbox-stats/config"
	"github.com/dhcgn/mbox-stats/runner"
	"github.com/dhcgn/mbox-stats/stats"
)

type fakeSource struct {
	size int64
	pos  int64
}

func (f fakeSource) Size() int64 { return f.size }
func (f fakeSource) Pos() int64  { return f.pos }

func TestReporterCollectsEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := runner.New(config.Config{}, logger)

	reporter := NewReporter(fakeSource{size: 1000, pos: 250}, r, logger, "warn")

	r.EmitEvent(stats.Event{Type: stats.EventTypeScanned, Offset: 250})
	r.EmitEvent(stats.Event{Type: stats.EventTypeAnalyzed})

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	summary := reporter.collector.Snapshot()
	if summary.Scanned != 1 || summary.Analyzed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestObserveThrottles(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := runner.New(config.Config{}, logger)
	reporter := NewReporter(fakeSource{size: 1000, pos: 500}, r, logger, "warn")

	// The limiter grants one observation immediately and then at most one
	// per second; a burst must not panic or block.
	for i := 0; i < 100; i++ {
		reporter.observe()
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}
