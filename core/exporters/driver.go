package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fbz-tec/dbxport/core/cancelable"
	"github.com/fbz-tec/dbxport/core/db"
	"github.com/fbz-tec/dbxport/core/output"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/fbz-tec/dbxport/core/validation"
	"github.com/fbz-tec/dbxport/internal/logger"
	"github.com/google/uuid"
)

var log = logger.Scope("export")

// Run drives job from Created to a terminal state.
//
// The cancel token is checked between batches only, so at most one batch is
// written after Cancel. A canceled job keeps its partial output, gets its
// footer and returns the token's *cancelable.CanceledError. An errored job
// gets no footer; the partial file is left in place. ctx cancellation is
// forwarded to the token.
func Run(ctx context.Context, job *Job) (Result, error) {
	start := time.Now()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	res := Result{JobID: job.ID, Path: job.Destination}

	if err := job.advance(StateValidating); err != nil {
		return res, err
	}

	token := job.Options.CancelToken
	if token == nil {
		token = cancelable.New(cancelable.Descriptor{
			Message: "export canceled",
			Fields:  map[string]any{"job": job.ID.String()},
		})
		job.Options.CancelToken = token
	}
	stop := context.AfterFunc(ctx, token.Cancel)
	defer stop()
	defer token.Discard()
	// AfterFunc runs asynchronously; a done ctx must be seen by the next check.
	canceledErr := func() error {
		if ctx.Err() != nil {
			token.Cancel()
		}
		return token.Err()
	}

	finish := func(state JobState, err error) (Result, error) {
		if aerr := job.advance(state); aerr != nil {
			err = errors.Join(err, aerr)
		}
		res.State = job.State()
		res.Duration = time.Since(start)
		for _, o := range job.Observers {
			o.JobFinished(job, res)
		}
		switch res.State {
		case StateCompleted:
			log.Debug("job %s completed: %d rows in %v", job.ID, res.Rows, res.Duration)
		case StateCanceled:
			log.Debug("job %s canceled after %d rows", job.ID, res.Rows)
		default:
			log.Debug("job %s failed after %d rows: %v", job.ID, res.Rows, err)
		}
		return res, err
	}

	exp, err := newExporter(job)
	if err != nil {
		return finish(StateErrored, err)
	}

	// A pgx connection serves one query at a time, so catalog lookups and
	// the header happen before a table cursor is opened.
	var cursor db.Cursor
	defer func() {
		if cursor != nil {
			cursor.Close()
		}
	}()

	var columns []schema.Column
	if job.Query != "" {
		if cursor, err = job.Conn.OpenCursor(ctx, job.cursorRequest()); err != nil {
			return finish(StateErrored, fmt.Errorf("error opening cursor: %w", err))
		}
		columns = cursor.Columns()
	} else if columns, err = job.Conn.Columns(ctx, job.Table); err != nil {
		return finish(StateErrored, fmt.Errorf("error reading columns of %s: %w", job.Table, err))
	}

	header, err := exp.Header(ctx, columns)
	if errors.Is(err, ErrHeaderUnavailable) {
		log.Warn("%v", err)
		header = ""
	} else if err != nil {
		return finish(StateErrored, fmt.Errorf("error building header: %w", err))
	}

	dest, err := output.CreateWriter(output.OutputConfig{
		Path:        job.Destination,
		Compression: job.Options.Compression,
		Format:      job.Options.Format,
	})
	if err != nil {
		return finish(StateErrored, err)
	}
	res.Path = dest.Path
	closed := false
	defer func() {
		if !closed {
			dest.Close()
		}
	}()

	if err := job.advance(StateRunning); err != nil {
		return finish(StateErrored, err)
	}

	w := &chunkWriter{w: dest}
	if header != "" {
		if err := w.line(header); err != nil {
			return finish(StateErrored, fmt.Errorf("error writing header: %w", err))
		}
	}

	if cursor == nil {
		if cursor, err = job.Conn.OpenCursor(ctx, job.cursorRequest()); err != nil {
			return finish(StateErrored, fmt.Errorf("error opening cursor: %w", err))
		}
	}
	if len(columns) == 0 {
		columns = cursor.Columns()
	}
	fields := schema.ColumnNames(cursor.Columns())
	types := schema.ColumnTypes(columns)
	sep := exp.RowSeparator()

	var canceled error
	for {
		if canceled = canceledErr(); canceled != nil {
			break
		}

		batch, err := cursor.NextBatch(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if canceled = canceledErr(); canceled != nil {
				break
			}
			return finish(StateErrored, fmt.Errorf("error fetching rows: %w", err))
		}

		var chunk strings.Builder
		for i, values := range batch {
			row, err := schema.NewRow(columns, fields, values)
			if err != nil {
				return finish(StateErrored, fmt.Errorf("row %d: %w", res.Rows+i+1, err))
			}
			text, err := exp.FormatRow(row, types)
			if err != nil {
				return finish(StateErrored, fmt.Errorf("error formatting row %d: %w", res.Rows+i+1, err))
			}
			if res.Rows+i > 0 {
				chunk.WriteString(sep)
			}
			chunk.WriteString(text)
		}
		if err := w.write(chunk.String()); err != nil {
			return finish(StateErrored, fmt.Errorf("error writing rows: %w", err))
		}
		res.Rows += len(batch)
		for _, o := range job.Observers {
			o.RowsWritten(job, len(batch))
		}
	}

	if res.Rows > 0 && exp.TrailingSeparator() {
		if err := w.write(sep); err != nil {
			return finish(StateErrored, fmt.Errorf("error writing rows: %w", err))
		}
	}

	footer, err := exp.Footer()
	if err != nil {
		return finish(StateErrored, fmt.Errorf("error building footer: %w", err))
	}
	if footer != "" {
		if err := w.endLine(); err != nil {
			return finish(StateErrored, err)
		}
		if err := w.line(footer); err != nil {
			return finish(StateErrored, fmt.Errorf("error writing footer: %w", err))
		}
	}

	closed = true
	if err := dest.Close(); err != nil {
		return finish(StateErrored, fmt.Errorf("error closing %s: %w", res.Path, err))
	}

	if canceled != nil {
		return finish(StateCanceled, canceled)
	}
	return finish(StateCompleted, nil)
}

func newExporter(job *Job) (Exporter, error) {
	if job.Conn == nil {
		return nil, fmt.Errorf("export job has no connection")
	}
	if strings.TrimSpace(job.Destination) == "" {
		return nil, fmt.Errorf("export job has no destination")
	}
	if job.Query != "" {
		if err := validation.ValidateQuery(job.Query); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	} else if strings.TrimSpace(job.Table.Name) == "" {
		return nil, fmt.Errorf("export job needs a table or a query")
	}

	factory, err := Get(job.Options.Format)
	if err != nil {
		return nil, err
	}
	return factory(job)
}

func (j *Job) cursorRequest() db.CursorRequest {
	return db.CursorRequest{
		Table:     j.Table,
		Query:     j.Query,
		Filters:   j.Filters,
		BatchSize: j.Options.batchSize(),
	}
}

// chunkWriter remembers whether the output currently ends a line.
type chunkWriter struct {
	w       io.Writer
	written bool
	atEOL   bool
}

func (c *chunkWriter) write(s string) error {
	if s == "" {
		return nil
	}
	if _, err := io.WriteString(c.w, s); err != nil {
		return err
	}
	c.written = true
	c.atEOL = strings.HasSuffix(s, "\n")
	return nil
}

func (c *chunkWriter) endLine() error {
	if c.written && !c.atEOL {
		return c.write("\n")
	}
	return nil
}

// line writes s and terminates the line if s did not.
func (c *chunkWriter) line(s string) error {
	if err := c.write(s); err != nil {
		return err
	}
	return c.endLine()
}
