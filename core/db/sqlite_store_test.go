package db

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/google/go-cmp/cmp"
)

func openTestSQLite(t *testing.T, stmts ...string) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Connect(); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, stmt := range stmts {
		if _, err := store.DB().Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	return store
}

const peopleDDL = `CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, photo BLOB)`

func TestSQLiteCatalog(t *testing.T) {
	store := openTestSQLite(t,
		peopleDDL,
		`CREATE TABLE pairs (a INTEGER, b INTEGER, PRIMARY KEY (a, b))`,
		`CREATE VIEW adults AS SELECT * FROM people`,
	)
	ctx := context.Background()

	tables, err := store.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error: %v", err)
	}
	want := []schema.TableOrView{
		{Name: "adults", EntityType: "view"},
		{Name: "pairs", EntityType: "table"},
		{Name: "people", EntityType: "table"},
	}
	if diff := cmp.Diff(want, tables); diff != "" {
		t.Errorf("ListTables() mismatch (-want +got):\n%s", diff)
	}

	cols, err := store.Columns(ctx, schema.TableOrView{Name: "people"})
	if err != nil {
		t.Fatalf("Columns() error: %v", err)
	}
	wantCols := []schema.Column{
		{Name: "id", DataType: "INTEGER"},
		{Name: "name", DataType: "TEXT", NotNull: true},
		{Name: "photo", DataType: "BLOB"},
	}
	if diff := cmp.Diff(wantCols, cols); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	if pk, err := store.GetPrimaryKey(ctx, "people", ""); err != nil || pk != "id" {
		t.Errorf("GetPrimaryKey(people) = %q, %v", pk, err)
	}
	if pk, err := store.GetPrimaryKey(ctx, "pairs", ""); err != nil || pk != "" {
		t.Errorf("GetPrimaryKey(pairs) = %q, %v, want composite key to be absent", pk, err)
	}
}

func TestSQLiteCreateScript(t *testing.T) {
	store := openTestSQLite(t, peopleDDL)
	ctx := context.Background()

	script, err := store.GetTableCreateScript(ctx, "people", "")
	if err != nil {
		t.Fatalf("GetTableCreateScript() error: %v", err)
	}
	if diff := cmp.Diff([]string{peopleDDL}, script); diff != "" {
		t.Errorf("script mismatch (-want +got):\n%s", diff)
	}

	script, err = store.GetTableCreateScript(ctx, "missing", "")
	if err != nil || len(script) != 0 {
		t.Errorf("GetTableCreateScript(missing) = %v, %v, want empty", script, err)
	}
}

func TestSQLiteCursorBatches(t *testing.T) {
	store := openTestSQLite(t,
		peopleDDL,
		`INSERT INTO people (id, name) VALUES (1, 'a'), (2, 'b'), (3, 'c'), (4, 'd'), (5, 'e')`,
	)
	ctx := context.Background()

	cur, err := store.OpenCursor(ctx, CursorRequest{
		Table:     schema.TableOrView{Name: "people", Schema: "main"},
		Filters:   []schema.TableFilter{{Field: "id", Type: "<=", Value: 4}},
		BatchSize: 3,
	})
	if err != nil {
		t.Fatalf("OpenCursor() error: %v", err)
	}
	defer cur.Close()

	if got := schema.ColumnNames(cur.Columns()); !cmp.Equal(got, []string{"id", "name", "photo"}) {
		t.Errorf("Columns() = %v", got)
	}

	var sizes []int
	var first [][]any
	for {
		batch, err := cur.NextBatch(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextBatch() error: %v", err)
		}
		if first == nil {
			first = batch
		}
		sizes = append(sizes, len(batch))
	}

	if diff := cmp.Diff([]int{3, 1}, sizes); diff != "" {
		t.Errorf("batch sizes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{int64(1), "a", nil}, first[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	if _, err := cur.NextBatch(ctx); err != io.EOF {
		t.Errorf("NextBatch() after drain = %v, want io.EOF", err)
	}
}

func TestSQLiteRawQueryCursor(t *testing.T) {
	store := openTestSQLite(t, peopleDDL, `INSERT INTO people (id, name) VALUES (1, 'a'), (2, 'b')`)
	ctx := context.Background()

	cur, err := store.OpenCursor(ctx, CursorRequest{Query: "SELECT name, id FROM people ORDER BY id DESC;"})
	if err != nil {
		t.Fatalf("OpenCursor() error: %v", err)
	}
	defer cur.Close()

	batch, err := cur.NextBatch(ctx)
	if err != nil {
		t.Fatalf("NextBatch() error: %v", err)
	}
	if diff := cmp.Diff([][]any{{"b", int64(2)}, {"a", int64(1)}}, batch); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteCursorKeepsStoredDateText(t *testing.T) {
	store := openTestSQLite(t,
		`CREATE TABLE events (id INTEGER PRIMARY KEY, at DATETIME, day DATE, ts TIMESTAMP, note TEXT)`,
		`INSERT INTO events VALUES (1, '2024-01-02 03:04:05', '2024-01-02', '2024-01-02T03:04:05.123Z', 'x'), (2, NULL, NULL, NULL, NULL)`,
	)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CursorRequest
	}{
		{"table", CursorRequest{Table: schema.TableOrView{Name: "events"}}},
		{"filtered table", CursorRequest{Table: schema.TableOrView{Name: "events"}, Filters: []schema.TableFilter{{Field: "id", Type: ">", Value: 0}}}},
		{"query", CursorRequest{Query: "SELECT id, at, day, ts, note FROM events ORDER BY id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, err := store.OpenCursor(ctx, tt.req)
			if err != nil {
				t.Fatalf("OpenCursor() error: %v", err)
			}
			defer cur.Close()

			wantTypes := []string{"integer", "datetime", "date", "timestamp", "text"}
			var gotTypes []string
			for _, c := range cur.Columns() {
				gotTypes = append(gotTypes, c.DataType)
			}
			if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
				t.Errorf("column types mismatch (-want +got):\n%s", diff)
			}

			batch, err := cur.NextBatch(ctx)
			if err != nil {
				t.Fatalf("NextBatch() error: %v", err)
			}
			want := [][]any{
				{int64(1), "2024-01-02 03:04:05", "2024-01-02", "2024-01-02T03:04:05.123Z", "x"},
				{int64(2), nil, nil, nil, nil},
			}
			if diff := cmp.Diff(want, batch); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoredTextQuery(t *testing.T) {
	cols := []schema.Column{{Name: "id", DataType: "integer"}, {Name: "at", DataType: "datetime"}}
	got, ok := storedTextQuery(`SELECT * FROM "events"`, cols)
	if !ok {
		t.Fatal("storedTextQuery() should rewrite date columns")
	}
	want := `SELECT "src"."id" AS "id", CAST("src"."at" AS TEXT) AS "at" FROM (SELECT * FROM "events") "src"`
	if got != want {
		t.Errorf("storedTextQuery() = %s\nwant %s", got, want)
	}

	if _, ok := storedTextQuery("SELECT 1", []schema.Column{{Name: "id", DataType: "integer"}}); ok {
		t.Error("no date columns should leave the query alone")
	}
	dup := []schema.Column{{Name: "at", DataType: "date"}, {Name: "at", DataType: "date"}}
	if _, ok := storedTextQuery("SELECT 1", dup); ok {
		t.Error("repeated names should leave the query alone")
	}
}

func TestSQLiteNotConnected(t *testing.T) {
	store := NewSQLiteStore("unused.db")
	if _, err := store.ListTables(context.Background()); err == nil {
		t.Error("ListTables() without Connect() should fail")
	}
	if err := NewSQLiteStore(" ").Connect(); err == nil {
		t.Error("Connect() with empty path should fail")
	}
}

func TestOpenSQLite(t *testing.T) {
	store, err := Open("sqlite", filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()
	if store.Backend() != "sqlite" {
		t.Errorf("Backend() = %q", store.Backend())
	}
}
