package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/fbz-tec/dbxport/core/dialects"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/fbz-tec/dbxport/core/sqlbuilder"
	"github.com/fbz-tec/dbxport/internal/logger"
	"github.com/jackc/pgx/v5"
)

// PgStore represents a PostgreSQL wire-protocol connection.
type PgStore struct {
	dsn     string
	backend string
	conn    *pgx.Conn
}

// NewPgStore creates a new PostgreSQL store instance with the given DSN.
func NewPgStore(dsn string) *PgStore {
	return &PgStore{dsn: dsn, backend: "postgresql"}
}

func (s *PgStore) Backend() string { return s.backend }

// Connect establishes a connection to the database.
// Returns an error if the connection fails or if ping fails.
func (s *PgStore) Connect() error {
	if s.conn != nil {
		return nil // already connected
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Debug("Connection timeout: 10s")
	logger.Debug("Attempting to connect to database host: %s", sanitizeDSN(s.dsn))

	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	logger.Debug("Connection established, verifying connectivity (ping)...")

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Debug("Database ping successful")
	s.conn = conn
	return nil
}

// Close closes the database connection.
func (s *PgStore) Close() error {
	logger.Debug("Closing database connection...")

	if s.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := s.conn.Close(ctx)
		if err != nil {
			logger.Debug("Error closing database connection: %v", err)
		} else {
			logger.Debug("Database connection closed successfully")
		}
		s.conn = nil
		return err
	}
	return nil
}

// Query executes a SQL query with the given arguments and returns the result rows.
func (s *PgStore) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.conn == nil {
		logger.Debug("No active database connection; query cannot be executed")
		return nil, fmt.Errorf("database not connected")
	}

	logger.Debug("Query: %s", sql)

	startTime := time.Now()
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	logger.Debug("Query started in %v", time.Since(startTime))
	return rows, nil
}

const listTablesSQL = `
SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name`

func (s *PgStore) ListTables(ctx context.Context) ([]schema.TableOrView, error) {
	rows, err := s.Query(ctx, listTablesSQL)
	if err != nil {
		return nil, err
	}
	tables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.TableOrView, error) {
		var t schema.TableOrView
		var kind string
		if err := row.Scan(&t.Schema, &t.Name, &kind); err != nil {
			return t, err
		}
		t.EntityType = "table"
		if kind == "VIEW" {
			t.EntityType = "view"
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing tables: %w", err)
	}
	return tables, nil
}

const columnsSQL = `
SELECT a.attname, format_type(a.atttypid, a.atttypmod), a.attnotnull
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relname = $1 AND n.nspname = $2 AND a.attnum > 0 AND NOT a.attisdropped
ORDER BY a.attnum`

func (s *PgStore) Columns(ctx context.Context, table schema.TableOrView) ([]schema.Column, error) {
	rows, err := s.Query(ctx, columnsSQL, table.Name, pgSchema(table.Schema))
	if err != nil {
		return nil, err
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Column, error) {
		var c schema.Column
		err := row.Scan(&c.Name, &c.DataType, &c.NotNull)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", table, err)
	}
	return cols, nil
}

const primaryKeySQL = `
SELECT a.attname
FROM pg_index i
JOIN pg_class c ON c.oid = i.indrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey)
WHERE i.indisprimary AND c.relname = $1 AND n.nspname = $2
ORDER BY array_position(i.indkey, a.attnum)`

func (s *PgStore) primaryKeys(ctx context.Context, table, schemaName string) ([]string, error) {
	rows, err := s.Query(ctx, primaryKeySQL, table, pgSchema(schemaName))
	if err != nil {
		return nil, err
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("error reading primary key of %s: %w", table, err)
	}
	return keys, nil
}

func (s *PgStore) GetPrimaryKey(ctx context.Context, table, schemaName string) (string, error) {
	keys, err := s.primaryKeys(ctx, table, schemaName)
	if err != nil || len(keys) != 1 {
		return "", err
	}
	return keys[0], nil
}

// GetTableCreateScript rebuilds a CREATE TABLE from the catalog. The result
// is empty when the relation has no visible columns.
func (s *PgStore) GetTableCreateScript(ctx context.Context, table, schemaName string) ([]string, error) {
	ref := schema.TableOrView{Name: table, Schema: schemaName}
	cols, err := s.Columns(ctx, ref)
	if err != nil || len(cols) == 0 {
		return nil, err
	}
	keys, err := s.primaryKeys(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	return []string{sqlbuilder.For(dialects.Postgres).BuildCreateTable(ref, cols, keys)}, nil
}

func (s *PgStore) OpenCursor(ctx context.Context, req CursorRequest) (Cursor, error) {
	a := sqlbuilder.For(dialects.Postgres)

	var query string
	var args []any
	var err error
	if req.Query != "" {
		query, args, err = a.WrapQuery(req.Query, req.Filters)
	} else {
		query, args, err = a.BuildSelect(req.Table, req.Filters)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	fields := rows.FieldDescriptions()
	cols := make([]schema.Column, len(fields))
	typeMap := s.conn.TypeMap()
	for i, fd := range fields {
		cols[i] = schema.Column{Name: fd.Name}
		if t, ok := typeMap.TypeForOID(fd.DataTypeOID); ok {
			cols[i].DataType = t.Name
		}
	}

	return &pgCursor{rows: rows, columns: cols, batch: req.batchSize()}, nil
}

type pgCursor struct {
	rows    pgx.Rows
	columns []schema.Column
	batch   int
	done    bool
}

func (c *pgCursor) Columns() []schema.Column { return c.columns }

func (c *pgCursor) NextBatch(ctx context.Context) ([][]any, error) {
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
		values, err := c.rows.Values()
		if err != nil {
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

func (c *pgCursor) Close() error {
	c.rows.Close()
	err := c.rows.Err()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pgSchema(name string) string {
	if name == "" {
		return dialects.PostgresData.DefaultSchema
	}
	return name
}

// sanitizeDSN masks the password inside a DSN before logging.
func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<invalid-dsn>"
	}

	var userInfo string
	if u.User != nil {
		username := u.User.Username()
		if _, hasPwd := u.User.Password(); hasPwd {
			userInfo = fmt.Sprintf("%s:***@", username)
		} else {
			userInfo = fmt.Sprintf("%s@", username)
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return fmt.Sprintf("%s://%s%s%s", u.Scheme, userInfo, u.Host, path)
}
