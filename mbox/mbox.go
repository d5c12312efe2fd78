// Package mbox implements a streaming boundary scanner for mbox containers.
//
// Records are delimited by lines starting with "From " at column 0. Each
// record spans its own separator line (inclusive) up to the next separator
// line (exclusive) or end of file, and its reported size is its exact byte
// length within the container. The scanner performs no mboxrd ">From "
// unescaping, so a body line that begins with "From " at column 0 splits
// the record.
package mbox

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/dhcgn/mbox-stats/model"
	"github.com/dhcgn/mbox-stats/runner"
	"github.com/dhcgn/mbox-stats/stats"
)

const maxLineBytes = 32 << 20 // 32 MiB

var (
	ErrNotMbox      = errors.New(`first line does not start with "From "`)
	ErrLineTooLarge = errors.New("mbox line exceeds max length")
)

var fromPrefix = []byte("From ")

// Reader scans an mbox file into raw records, one message at a time.
// It is forward-only and not restartable.
type Reader struct {
	file *os.File
	br   *bufio.Reader

	size int64
	pos  atomic.Int64

	// pending holds the separator line of the next record, already consumed
	// from the stream. nil once the stream is exhausted.
	pending []byte
	eof     bool
}

// Open opens an mbox file and verifies the container format: the first line
// must be a "From " separator, otherwise ErrNotMbox is returned. An empty
// file fails this check too.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat mbox: %w", err)
	}

	r := &Reader{
		file: file,
		br:   bufio.NewReaderSize(file, 256<<10),
		size: info.Size(),
	}

	line, err := r.readLine()
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read first line: %w", err)
	}
	if !bytes.HasPrefix(line, fromPrefix) {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNotMbox)
	}

	r.pending = line
	r.eof = err == io.EOF
	return r, nil
}

// Size reports the total size of the underlying file in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Pos reports how many bytes have been consumed from the file so far. It is
// safe to read from another goroutine for progress reporting.
func (r *Reader) Pos() int64 {
	return r.pos.Load()
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// Next returns the next raw record. It returns io.EOF once the container is
// exhausted.
func (r *Reader) Next() (model.Record, error) {
	if r.pending == nil {
		return model.Record{}, io.EOF
	}

	raw := r.pending
	r.pending = nil

	for !r.eof {
		line, err := r.readLine()
		if err != nil && err != io.EOF {
			return model.Record{}, err
		}
		if err == io.EOF {
			r.eof = true
		}
		if len(line) == 0 {
			continue
		}
		if bytes.HasPrefix(line, fromPrefix) {
			r.pending = line
			break
		}
		raw = append(raw, line...)
	}

	return model.Record{Raw: raw, Size: int64(len(raw))}, nil
}

// readLine reads one physical line including its terminator, growing past
// bufio.ErrBufferFull for long lines. The consumed-bytes counter advances by
// exactly the length of the returned line.
func (r *Reader) readLine() ([]byte, error) {
	var out []byte
	for {
		b, err := r.br.ReadBytes('\n')
		out = append(out, b...)
		if len(out) > maxLineBytes {
			return nil, fmt.Errorf("%w (%d bytes)", ErrLineTooLarge, maxLineBytes)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		r.pos.Add(int64(len(out)))
		if err == io.EOF {
			return out, io.EOF
		}
		if err != nil {
			return out, fmt.Errorf("read mbox: %w", err)
		}
		return out, nil
	}
}

// Producer is the pipeline stage that feeds raw records into the runner.
type Producer struct {
	reader *Reader
	runner *runner.Runner
	logger *slog.Logger
}

// NewProducer registers the scanner stage. The stage starts consuming as
// soon as it is added, so the caller should wire up all stats subscribers
// before calling this.
func NewProducer(reader *Reader, r *runner.Runner, logger *slog.Logger) *Producer {
	producer := &Producer{reader: reader, runner: r, logger: logger}
	r.AddStage("mbox", producer.run)
	return producer
}

// Reader exposes the underlying scanner for offset observation. Callers must
// not advance it.
func (p *Producer) Reader() *Reader {
	return p.reader
}

func (p *Producer) run(ctx context.Context) error {
	defer p.runner.CloseRecords()
	defer p.reader.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := p.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if p.logger != nil {
				p.logger.Error("mbox scan error", "err", err)
			}
			p.runner.EmitEvent(stats.Event{Stage: stats.StageScan, Type: stats.EventTypeError, Err: err})
			if emitErr := p.emit(ctx, model.Envelope{Err: err}); emitErr != nil {
				return emitErr
			}
			return err
		}

		p.runner.EmitEvent(stats.Event{Stage: stats.StageScan, Type: stats.EventTypeScanned, Offset: p.reader.Pos()})

		if err := p.emit(ctx, model.Envelope{Record: record}); err != nil {
			return err
		}
	}
}

func (p *Producer) emit(ctx context.Context, env model.Envelope) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.runner.RecordsWriter() <- env:
		return nil
	}
}

// CountMessages counts the messages in an mbox file without computing any
// statistics. It uses the stock go-mbox reader, which is fine here because
// byte-exact sizes do not matter for a count.
func CountMessages(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	count := 0
	for {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return 0, err
		}

		count++
		if _, err := io.Copy(io.Discard, msgReader); err != nil {
			// Keep counting even if one message cannot be read through.
			continue
		}
	}
}
