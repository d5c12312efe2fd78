// Package analyze turns raw mbox records into statistics tuples: it extracts
// the sender, recipient and label headers, normalizes the sender address and
// the label set, and forwards one Stat per surviving record.
package analyze

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/dhcgn/mbox-stats/config"
	"github.com/dhcgn/mbox-stats/filter"
	"github.com/dhcgn/mbox-stats/model"
	"github.com/dhcgn/mbox-stats/runner"
	"github.com/dhcgn/mbox-stats/stats"
)

// absentHeader is how a missing header renders in output, for compatibility
// with the historical format. It also means absent senders group together
// with literal-text "None" senders.
const absentHeader = "None"

type Analyzer struct {
	runner *runner.Runner
	logger *slog.Logger
	filter *filter.Filter
	policy labelPolicy
}

func NewAnalyzer(cfg config.Config, f *filter.Filter, r *runner.Runner, logger *slog.Logger) *Analyzer {
	analyzer := &Analyzer{
		runner: r,
		logger: logger,
		filter: f,
		policy: compileLabelPolicy(cfg.Labels),
	}
	r.AddStage("analyze", analyzer.run)
	return analyzer
}

func (a *Analyzer) run(ctx context.Context) error {
	defer a.runner.CloseStats()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case envelope, ok := <-a.runner.Records():
			if !ok {
				return nil
			}

			if envelope.Err != nil {
				// The scanner already emitted an error event and is about
				// to fail its own stage; just stop consuming.
				return nil
			}

			if a.filter != nil && a.filter.Active() && !a.allows(envelope.Record) {
				a.runner.EmitEvent(stats.Event{Stage: stats.StageAnalyze, Type: stats.EventTypeFiltered})
				continue
			}

			stat := a.stat(envelope.Record)
			a.runner.EmitEvent(stats.Event{Stage: stats.StageAnalyze, Type: stats.EventTypeAnalyzed})

			select {
			case <-ctx.Done():
				return ctx.Err()
			case a.runner.StatsWriter() <- stat:
			}
		}
	}
}

func (a *Analyzer) allows(record model.Record) bool {
	header, body := splitRecord(record.Raw)
	return a.filter.Allows(header, body)
}

func (a *Analyzer) stat(record model.Record) model.Stat {
	headers := parseHeaders(record.Raw)

	from, fromPresent := headers.Get("From")
	if !fromPresent {
		from = absentHeader
		a.runner.EmitEvent(stats.Event{Stage: stats.StageAnalyze, Type: stats.EventTypeHeaderAbsent, Detail: "From"})
	}

	labels, labelsPresent := headers.Get(a.policy.header)
	if !labelsPresent {
		labels = absentHeader
		a.runner.EmitEvent(stats.Event{Stage: stats.StageAnalyze, Type: stats.EventTypeHeaderAbsent, Detail: a.policy.header})
	}

	// The recipient is parsed for parity with the surrounding tooling but
	// does not feed the output.
	to, _ := headers.Get("To")

	fromAddr := ExtractAddress(from)
	labelString := a.policy.canonicalLabels(labels)

	if a.logger != nil {
		a.logger.Debug("analyzed message", "from", fromAddr, "to", to, "labels", labelString, "size", record.Size)
	}

	return model.Stat{
		Count:          1,
		TotalSizeBytes: record.Size,
		FromAddr:       fromAddr,
		Labels:         labelString,
	}
}

// splitRecord separates a raw record into its header block and body for
// filtering. The leading "From " separator line stays with the header block;
// the body begins after the first blank line.
func splitRecord(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}
