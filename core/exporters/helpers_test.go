package exporters

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fbz-tec/dbxport/core/db"
	"github.com/fbz-tec/dbxport/core/schema"
)

// fakeConn serves canned batches. Its cursor ignores filters.
type fakeConn struct {
	backend     string
	columns     []schema.Column
	batches     [][][]any
	script      []string
	scriptErr   error
	cursorErr   error
	batchErr    error
	openCursors int
	requests    []db.CursorRequest
}

func (f *fakeConn) Backend() string { return f.backend }

func (f *fakeConn) ListTables(context.Context) ([]schema.TableOrView, error) {
	return []schema.TableOrView{{Name: "foo", EntityType: "table"}}, nil
}

func (f *fakeConn) Columns(context.Context, schema.TableOrView) ([]schema.Column, error) {
	return f.columns, nil
}

func (f *fakeConn) GetTableCreateScript(context.Context, string, string) ([]string, error) {
	return f.script, f.scriptErr
}

func (f *fakeConn) GetPrimaryKey(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeConn) OpenCursor(_ context.Context, req db.CursorRequest) (db.Cursor, error) {
	if f.cursorErr != nil {
		return nil, f.cursorErr
	}
	f.openCursors++
	f.requests = append(f.requests, req)
	return &fakeCursor{conn: f}, nil
}

func (f *fakeConn) Close() error { return nil }

type fakeCursor struct {
	conn *fakeConn
	next int
}

func (c *fakeCursor) Columns() []schema.Column { return c.conn.columns }

func (c *fakeCursor) NextBatch(context.Context) ([][]any, error) {
	if c.next >= len(c.conn.batches) {
		if c.conn.batchErr != nil {
			return nil, c.conn.batchErr
		}
		return nil, io.EOF
	}
	b := c.conn.batches[c.next]
	c.next++
	return b, nil
}

func (c *fakeCursor) Close() error { return nil }

var errBoom = errors.New("boom")

func idNameColumns() []schema.Column {
	return []schema.Column{{Name: "id", DataType: "int4"}, {Name: "name", DataType: "text"}}
}

// rows builds n positional (id, name) rows starting at id from.
func rows(from, n int) [][]any {
	out := make([][]any, n)
	for i := range out {
		out[i] = []any{int64(from + i), "row"}
	}
	return out
}

func newJob(t *testing.T, conn db.Connection, format string) *Job {
	t.Helper()
	return &Job{
		Destination: filepath.Join(t.TempDir(), "out."+format),
		Conn:        conn,
		Table:       schema.TableOrView{Name: "foo", Schema: "public"},
		Options:     ExportOptions{Format: format},
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(b)
}

// recorder is an Observer that keeps what it was told.
type recorder struct {
	batches  []int
	results  []Result
	onRows   func(job *Job)
	finished int
}

func (r *recorder) RowsWritten(job *Job, n int) {
	r.batches = append(r.batches, n)
	if r.onRows != nil {
		r.onRows(job)
	}
}

func (r *recorder) JobFinished(_ *Job, res Result) {
	r.finished++
	r.results = append(r.results, res)
}
