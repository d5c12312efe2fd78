// Package sink is the terminal pipeline stage: it drains stat tuples and
// writes one whitespace-separated line per tuple. Aggregation and sorting
// are barriers, so they materialize the stream before any line is written;
// the plain per-message mode streams with bounded memory.
package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dhcgn/mbox-stats/aggregate"
	"github.com/dhcgn/mbox-stats/model"
	"github.com/dhcgn/mbox-stats/runner"
	"github.com/dhcgn/mbox-stats/stats"
)

type Writer struct {
	out        io.Writer
	aggregate  bool
	sortBySize bool
	runner     *runner.Runner
	logger     *slog.Logger
}

func NewWriter(out io.Writer, aggregate, sortBySize bool, r *runner.Runner, logger *slog.Logger) *Writer {
	writer := &Writer{
		out:        out,
		aggregate:  aggregate,
		sortBySize: sortBySize,
		runner:     r,
		logger:     logger,
	}
	r.AddStage("sink", writer.run)
	return writer
}

func (w *Writer) run(ctx context.Context) error {
	buffered := bufio.NewWriter(w.out)

	if w.aggregate || w.sortBySize {
		if err := w.runMaterialized(ctx, buffered); err != nil {
			return err
		}
	} else {
		if err := w.runStreaming(ctx, buffered); err != nil {
			return err
		}
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (w *Writer) runStreaming(ctx context.Context, out *bufio.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case stat, ok := <-w.runner.Stats():
			if !ok {
				return nil
			}
			if err := w.writeLine(out, stat); err != nil {
				return err
			}
		}
	}
}

func (w *Writer) runMaterialized(ctx context.Context, out *bufio.Writer) error {
	collected, err := w.drain(ctx)
	if err != nil {
		return err
	}

	if w.sortBySize {
		aggregate.SortBySize(collected)
	}

	for _, stat := range collected {
		if err := w.writeLine(out, stat); err != nil {
			return err
		}
	}
	return nil
}

// drain consumes the whole stat stream. With aggregation enabled it folds
// into grouped buckets as it goes, keeping memory proportional to the number
// of distinct (sender, labels) pairs rather than the message count.
func (w *Writer) drain(ctx context.Context) ([]model.Stat, error) {
	var grouper *aggregate.Grouper
	if w.aggregate {
		grouper = aggregate.NewGrouper()
	}

	var collected []model.Stat
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case stat, ok := <-w.runner.Stats():
			if !ok {
				if grouper != nil {
					return grouper.Stats(), nil
				}
				return collected, nil
			}
			if grouper != nil {
				grouper.Add(stat)
			} else {
				collected = append(collected, stat)
			}
		}
	}
}

func (w *Writer) writeLine(out *bufio.Writer, stat model.Stat) error {
	if _, err := fmt.Fprintf(out, "%d %d %s %s\n", stat.TotalSizeBytes, stat.Count, stat.FromAddr, stat.Labels); err != nil {
		return fmt.Errorf("write stat line: %w", err)
	}
	w.runner.EmitEvent(stats.Event{Stage: stats.StageSink, Type: stats.EventTypeEmitted})
	return nil
}
