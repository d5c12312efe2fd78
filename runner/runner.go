package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dhcgn/mbox-stats/config"
	"github.com/dhcgn/mbox-stats/model"
	"github.com/dhcgn/mbox-stats/stats"
)

type StageFunc func(context.Context) error

// Runner wires the pipeline stages together: the scanner writes raw record
// envelopes, the analyzer turns them into stat tuples, and the sink drains
// those. A side channel of events feeds the stats subscribers.
type Runner struct {
	cfg    config.Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	records chan model.Envelope
	stats   chan model.Stat

	// Every stats subscriber gets its own event channel so that events are
	// broadcast, not distributed.
	subMu sync.Mutex
	subs  []chan stats.Event

	workWG  sync.WaitGroup
	statsWG sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeRecordsOnce sync.Once
	closeStatsOnce   sync.Once
	closeEventsOnce  sync.Once
	since            time.Time
}

func New(cfg config.Config, logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		records: make(chan model.Envelope, 32),
		stats:   make(chan model.Stat, 32),
	}
}

func (r *Runner) Config() config.Config {
	return r.cfg
}

func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

func (r *Runner) Context() context.Context {
	return r.ctx
}

func (r *Runner) RecordsWriter() chan<- model.Envelope {
	return r.records
}

func (r *Runner) Records() <-chan model.Envelope {
	return r.records
}

func (r *Runner) CloseRecords() {
	r.closeRecordsOnce.Do(func() {
		close(r.records)
	})
}

func (r *Runner) StatsWriter() chan<- model.Stat {
	return r.stats
}

func (r *Runner) Stats() <-chan model.Stat {
	return r.stats
}

func (r *Runner) CloseStats() {
	r.closeStatsOnce.Do(func() {
		close(r.stats)
	})
}

func (r *Runner) EmitEvent(evt stats.Event) {
	r.subMu.Lock()
	subs := r.subs
	r.subMu.Unlock()

	for _, ch := range subs {
		select {
		case <-r.ctx.Done():
			return
		case ch <- evt:
		}
	}
}

// SubscribeStats registers an event consumer. Subscribe before the producer
// stage is added, otherwise early events are missed.
func (r *Runner) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	ch := make(chan stats.Event, 128)
	r.subMu.Lock()
	r.subs = append(r.subs, ch)
	r.subMu.Unlock()

	r.statsWG.Add(1)
	go func() {
		defer r.statsWG.Done()
		if err := fn(r.ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stats: %w", name, err))
		}
	}()
}

func (r *Runner) AddStage(name string, fn StageFunc) {
	r.workWG.Add(1)
	go func() {
		defer r.workWG.Done()
		if err := fn(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stage: %w", name, err))
		}
	}()
}

// Start blocks until every stage has finished, then drains the stats
// subscribers and reports the first stage error, if any.
func (r *Runner) Start() error {
	r.since = time.Now()

	r.workWG.Wait()
	r.closeEvents()
	r.statsWG.Wait()

	r.cancel()

	err := r.err
	duration := time.Since(r.since)
	if err != nil {
		r.logger.Error("pipeline failed", "duration", duration, "err", err)
		return err
	}

	r.logger.Info("pipeline completed", "duration", duration)
	return nil
}

func (r *Runner) closeEvents() {
	r.closeEventsOnce.Do(func() {
		r.subMu.Lock()
		for _, ch := range r.subs {
			close(ch)
		}
		r.subMu.Unlock()
	})
}

func (r *Runner) fail(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
		r.cancel()
	}
	r.errMu.Unlock()
}
