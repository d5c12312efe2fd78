// Package progress reports how far the scanner has read through the mbox
// file. Reporting is a read-only observation of the scanner offset, throttled
// to at most one log line per second.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"

	"github.com/dhcgn/mbox-stats/stats"
)

// Source is the read-only offset view of the scanner.
type Source interface {
	Size() int64
	Pos() int64
}

// Reporter logs percent-read progress from scanned events and prints a pretty
// run summary once the pipeline finishes. The summary goes to stderr so that
// stdout stays reserved for stat lines.
type Reporter struct {
	source    Source
	limiter   *rate.Limiter
	logger    *slog.Logger
	collector *stats.Collector
	started   time.Time
	summaryW  io.Writer
	enabled   bool
}

// NewReporter subscribes a progress reporter to the pipeline event stream.
// The pretty summary is only rendered at the info log level, matching the
// behavior of the plain log output.
func NewReporter(source Source, stream stats.EventStream, logger *slog.Logger, logLevel string) *Reporter {
	reporter := &Reporter{
		source:    source,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		logger:    logger,
		collector: stats.NewCollector(),
		started:   time.Now(),
		summaryW:  os.Stderr,
		enabled:   logLevel == "info",
	}
	stream.SubscribeStats("progress", reporter.consume)
	return reporter
}

func (r *Reporter) consume(ctx context.Context, events <-chan stats.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				r.finish()
				return nil
			}
			r.collector.Apply(evt)
			if evt.Type == stats.EventTypeScanned {
				r.observe()
			}
		}
	}
}

func (r *Reporter) observe() {
	if !r.limiter.Allow() {
		return
	}

	pos := r.source.Pos()
	size := r.source.Size()
	if size <= 0 || r.logger == nil {
		return
	}

	percent := 100 * float64(pos) / float64(size)
	r.logger.Info("reading mbox", "percent", fmt.Sprintf("%.1f", percent), "pos", pos, "size", size)
}

func (r *Reporter) finish() {
	if r.logger != nil {
		r.logger.Info("reading mbox", "percent", "100.0", "pos", r.source.Pos(), "size", r.source.Size())
	}

	if !r.enabled {
		return
	}

	summary := r.collector.Snapshot()
	section := pterm.DefaultSection.WithWriter(r.summaryW)
	info := pterm.Info.WithWriter(r.summaryW)

	section.Println("Summary Statistics")
	info.Printf("Duration: %v\n", time.Since(r.started).Round(time.Millisecond))
	info.Printf("Scanned: %d\n", summary.Scanned)
	info.Printf("Filtered out: %d\n", summary.Filtered)
	info.Printf("Analyzed: %d\n", summary.Analyzed)
	info.Printf("Missing headers: %d\n", summary.HeaderAbsent)
	info.Printf("Lines written: %d\n", summary.Emitted)
	info.Printf("Errors: %d\n", summary.Errors)
	if summary.LastError != nil {
		pterm.Error.WithWriter(r.summaryW).Printf("Last error: %v\n", summary.LastError)
	}
}
