package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Stage string

const (
	StageScan    Stage = "mbox"
	StageAnalyze Stage = "analyze"
	StageSink    Stage = "sink"
)

type EventType string

const (
	EventTypeScanned      EventType = "scanned"
	EventTypeFiltered     EventType = "filtered"
	EventTypeAnalyzed     EventType = "analyzed"
	EventTypeHeaderAbsent EventType = "header_absent"
	EventTypeEmitted      EventType = "emitted"
	EventTypeError        EventType = "error"
)

type Event struct {
	Stage  Stage
	Type   EventType
	Offset int64
	Err    error
	Detail string
}

type Summary struct {
	Scanned      int
	Filtered     int
	Analyzed     int
	HeaderAbsent int
	Emitted      int
	Errors       int
	LastError    error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"scanned", s.Scanned,
		"filtered", s.Filtered,
		"analyzed", s.Analyzed,
		"headerAbsent", s.HeaderAbsent,
		"emitted", s.Emitted,
		"errors", s.Errors,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.apply(evt)
		}
	}
}

// Apply folds a single event into the summary.
func (c *Collector) Apply(evt Event) {
	c.apply(evt)
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	summary := c.summary
	c.mu.Unlock()
	return summary
}

func (c *Collector) apply(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeScanned:
		c.summary.Scanned++
	case EventTypeFiltered:
		c.summary.Filtered++
	case EventTypeAnalyzed:
		c.summary.Analyzed++
	case EventTypeHeaderAbsent:
		c.summary.HeaderAbsent++
	case EventTypeEmitted:
		c.summary.Emitted++
	case EventTypeError:
		c.summary.Errors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

// EventStream is the subscription surface exposed by the pipeline runner.
type EventStream interface {
	SubscribeStats(name string, fn func(context.Context, <-chan Event) error)
}

// Reporter collects pipeline events and logs a summary once the run ends.
type Reporter struct {
	collector *Collector
	logger    *slog.Logger
	started   time.Time
}

func NewReporter(stream EventStream, logger *slog.Logger) *Reporter {
	reporter := &Reporter{
		collector: NewCollector(),
		logger:    logger,
		started:   time.Now(),
	}
	stream.SubscribeStats("stats-reporter", reporter.consume)
	return reporter
}

func (r *Reporter) consume(ctx context.Context, events <-chan Event) error {
	r.collector.Run(ctx, events)
	summary := r.collector.Snapshot()
	attrs := append(summary.LogAttrs(), "duration", time.Since(r.started))
	if ctx.Err() != nil {
		if r.logger != nil {
			r.logger.Debug("stats collection stopped", append(attrs, "err", ctx.Err())...)
		}
		return ctx.Err()
	}
	if r.logger != nil {
		r.logger.Info("stats summary", attrs...)
	}
	return nil
}

func (r *Reporter) Summary() Summary {
	return r.collector.Snapshot()
}
