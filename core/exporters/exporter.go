package exporters

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fbz-tec/dbxport/core/cancelable"
	"github.com/fbz-tec/dbxport/core/db"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/google/uuid"
)

const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatSQL      = "sql"
	FormatYAML     = "yaml"
	FormatTemplate = "template"
)

// DefaultBatchSize is the number of rows pulled per cursor round trip.
const DefaultBatchSize = db.DefaultBatchSize

var (
	// ErrUnsupportedExport is returned when no statement builder exists for
	// the connection's backend. Nothing has been written when it is returned.
	ErrUnsupportedExport = errors.New("export not supported for this backend")
	// ErrHeaderUnavailable marks a header the connection could not produce.
	// The driver degrades it to an empty header.
	ErrHeaderUnavailable = errors.New("header unavailable")
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// ExportOptions holds export configuration.
type ExportOptions struct {
	Format            string
	CreateTableHeader bool
	IncludeSchema     bool
	BatchSize         int
	// CancelToken is polled between batches. Run creates one when nil.
	CancelToken *cancelable.Operation
	Compression string
	Delimiter   rune
	NoHeader    bool
	// Template mode
	TemplateHeader string
	TemplateRow    string
	TemplateFooter string
}

func (o ExportOptions) batchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

// Exporter renders one output format. FormatRow must not perform I/O; the
// driver owns every write.
type Exporter interface {
	// Header is called once, before any row. columns is the declared column
	// list of the exported relation.
	Header(ctx context.Context, columns []schema.Column) (string, error)
	FormatRow(row *schema.Row, columnTypes map[string]string) (string, error)
	Footer() (string, error)
	// RowSeparator is written between formatted rows, and after the last one
	// when TrailingSeparator is true.
	RowSeparator() string
	TrailingSeparator() bool
}

// JobState is the lifecycle position of a Job. States only move forward.
type JobState int

const (
	StateCreated JobState = iota
	StateValidating
	StateRunning
	StateCompleted
	StateCanceled
	StateErrored
)

var stateNames = map[JobState]string{
	StateCreated:    "created",
	StateValidating: "validating",
	StateRunning:    "running",
	StateCompleted:  "completed",
	StateCanceled:   "canceled",
	StateErrored:    "errored",
}

func (s JobState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateCanceled || s == StateErrored
}

var transitions = map[JobState][]JobState{
	StateCreated:    {StateValidating},
	StateValidating: {StateRunning, StateErrored},
	StateRunning:    {StateCompleted, StateCanceled, StateErrored},
}

// Observer is notified of job progress. Calls happen on the driver goroutine.
type Observer interface {
	RowsWritten(job *Job, n int)
	JobFinished(job *Job, res Result)
}

// Job is one export run. Conn is borrowed: Run never closes it.
type Job struct {
	ID          uuid.UUID
	Destination string
	Conn        db.Connection
	Table       schema.TableOrView
	// Query, when set, is exported instead of Table. QueryName names the
	// target table of generated statements.
	Query     string
	QueryName string
	Filters   []schema.TableFilter
	Options   ExportOptions
	Observers []Observer

	mu      sync.Mutex
	state   JobState
	history []JobState
}

// State returns the current state. Safe for concurrent use.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// History lists every state the job went through, Created first.
func (j *Job) History() []JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JobState, 0, len(j.history)+1)
	out = append(out, StateCreated)
	return append(out, j.history...)
}

func (j *Job) advance(next JobState) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, allowed := range transitions[j.state] {
		if allowed == next {
			j.state = next
			j.history = append(j.history, next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.state, next)
}

// target is the relation generated statements refer to.
func (j *Job) target() schema.TableOrView {
	if j.Query != "" {
		name := j.QueryName
		if name == "" {
			name = "query_results"
		}
		return schema.TableOrView{Name: name}
	}
	return j.Table
}

// Result summarizes a finished job.
type Result struct {
	JobID    uuid.UUID
	State    JobState
	Rows     int
	Path     string
	Duration time.Duration
}
