package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fbz-tec/dbxport/core/dialects"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/fbz-tec/dbxport/core/sqlbuilder"
	"github.com/fbz-tec/dbxport/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore reads a SQLite database file through database/sql.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Backend() string { return "sqlite" }

// DB exposes the handle, mostly for seeding test databases.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Connect() error {
	if s.db != nil {
		return nil
	}
	if strings.TrimSpace(s.path) == "" {
		return fmt.Errorf("sqlite database path cannot be empty")
	}

	logger.Debug("Opening SQLite database: %s", s.path)

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if s.path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return s.db, nil
}

func (s *SQLiteStore) ListTables(ctx context.Context) ([]schema.TableOrView, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.TableOrView
	for rows.Next() {
		var t schema.TableOrView
		if err := rows.Scan(&t.Name, &t.EntityType); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type sqliteColumn struct {
	schema.Column
	pk int
}

func (s *SQLiteStore) tableInfo(ctx context.Context, table string) ([]sqliteColumn, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+dialects.SqliteData.QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []sqliteColumn
	for rows.Next() {
		var (
			c       sqliteColumn
			cid     int
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&cid, &c.Name, &c.DataType, &notNull, &dflt, &c.pk); err != nil {
			return nil, err
		}
		c.NotNull = notNull != 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *SQLiteStore) Columns(ctx context.Context, table schema.TableOrView) ([]schema.Column, error) {
	info, err := s.tableInfo(ctx, table.Name)
	if err != nil {
		return nil, err
	}
	cols := make([]schema.Column, len(info))
	for i, c := range info {
		cols[i] = c.Column
	}
	return cols, nil
}

func (s *SQLiteStore) GetPrimaryKey(ctx context.Context, table, _ string) (string, error) {
	info, err := s.tableInfo(ctx, table)
	if err != nil {
		return "", err
	}
	var key string
	for _, c := range info {
		if c.pk == 0 {
			continue
		}
		if key != "" {
			return "", nil
		}
		key = c.Name
	}
	return key, nil
}

// GetTableCreateScript returns the statement stored in sqlite_master.
func (s *SQLiteStore) GetTableCreateScript(ctx context.Context, table, _ string) ([]string, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var ddl sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`, table).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !ddl.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading create script of %s: %w", table, err)
	}
	return []string{ddl.String}, nil
}

func (s *SQLiteStore) OpenCursor(ctx context.Context, req CursorRequest) (Cursor, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	a := sqlbuilder.For(dialects.SQLite)
	table := req.Table
	table.Schema = ""

	var query string
	var args []any
	if req.Query != "" {
		query, args, err = a.WrapQuery(req.Query, req.Filters)
	} else {
		query, args, err = a.BuildSelect(table, req.Filters)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Query: %s", query)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}
	cols := make([]schema.Column, len(types))
	for i, ct := range types {
		cols[i] = schema.Column{Name: ct.Name(), DataType: strings.ToLower(ct.DatabaseTypeName())}
	}

	// The driver parses date/time-declared columns into time.Time, which
	// loses the stored text. Those columns are read back as TEXT instead.
	if asText, ok := storedTextQuery(query, cols); ok {
		rows.Close()
		logger.Debug("Query: %s", asText)
		if rows, err = db.QueryContext(ctx, asText, args...); err != nil {
			return nil, fmt.Errorf("query execution failed: %w", err)
		}
	}

	return &sqlCursor{rows: rows, columns: cols, batch: req.batchSize()}, nil
}

// storedTextQuery wraps query so that every column declared with a date or
// time type is cast to TEXT. It reports false when no column needs it or
// when column names repeat and cannot be selected by name.
func storedTextQuery(query string, cols []schema.Column) (string, bool) {
	d := dialects.Resolve(dialects.SQLite)
	seen := make(map[string]bool, len(cols))
	needed := false
	for _, c := range cols {
		if seen[c.Name] {
			return "", false
		}
		seen[c.Name] = true
		if isDateTimeType(c.DataType) {
			needed = true
		}
	}
	if !needed {
		return "", false
	}

	items := make([]string, len(cols))
	for i, c := range cols {
		ref := `"src".` + d.QuoteIdent(c.Name)
		if isDateTimeType(c.DataType) {
			ref = "CAST(" + ref + " AS TEXT)"
		}
		items[i] = ref + " AS " + d.QuoteIdent(c.Name)
	}
	return "SELECT " + strings.Join(items, ", ") + " FROM (" + query + `) "src"`, true
}

func isDateTimeType(declared string) bool {
	t := strings.ToLower(declared)
	return strings.Contains(t, "date") || strings.Contains(t, "time")
}

type sqlCursor struct {
	rows    *sql.Rows
	columns []schema.Column
	batch   int
	done    bool
}

func (c *sqlCursor) Columns() []schema.Column { return c.columns }

func (c *sqlCursor) NextBatch(ctx context.Context) ([][]any, error) {
	if c.done {
		return nil, io.EOF
	}
	out := make([][]any, 0, c.batch)
	for len(out) < c.batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.rows.Next() {
			c.done = true
			break
		}
		values := make([]any, len(c.columns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := c.rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error reading row: %w", err)
		}
		out = append(out, values)
	}
	if c.done {
		if err := c.rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating rows: %w", err)
		}
		if len(out) == 0 {
			return nil, io.EOF
		}
	}
	return out, nil
}

func (c *sqlCursor) Close() error { return c.rows.Close() }
