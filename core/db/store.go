package db

import (
	"context"
	"fmt"

	"github.com/fbz-tec/dbxport/core/clients"
	"github.com/fbz-tec/dbxport/core/schema"
)

// DefaultBatchSize bounds NextBatch when a CursorRequest leaves BatchSize unset.
const DefaultBatchSize = 500

// Connection is what the export and navigation layers need from a database.
// A Connection is owned by one job at a time; implementations do no sharing.
type Connection interface {
	// Backend returns the client key (postgresql, sqlite, ...).
	Backend() string
	ListTables(ctx context.Context) ([]schema.TableOrView, error)
	// Columns returns the declared columns in table order.
	Columns(ctx context.Context, table schema.TableOrView) ([]schema.Column, error)
	// GetTableCreateScript returns the DDL of a table. An empty result means
	// the backend cannot produce one.
	GetTableCreateScript(ctx context.Context, table, schemaName string) ([]string, error)
	// GetPrimaryKey returns the single primary key column, or "" when the
	// table has none or a composite one.
	GetPrimaryKey(ctx context.Context, table, schemaName string) (string, error)
	OpenCursor(ctx context.Context, req CursorRequest) (Cursor, error)
	Close() error
}

// Store is a Connection with an explicit connect step.
type Store interface {
	Connection
	Connect() error
}

// CursorRequest selects the rows of a table, or of a raw query when Query is set.
type CursorRequest struct {
	Table     schema.TableOrView
	Query     string
	Filters   []schema.TableFilter
	BatchSize int
}

func (r CursorRequest) batchSize() int {
	if r.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return r.BatchSize
}

// Cursor streams the rows of one query in bounded batches.
type Cursor interface {
	Columns() []schema.Column
	// NextBatch returns at most BatchSize positional rows, or io.EOF once drained.
	NextBatch(ctx context.Context) ([][]any, error)
	Close() error
}

// Open builds and connects the store serving a client key. dsn is a URL for
// network backends and a file path for sqlite.
func Open(backend, dsn string) (Store, error) {
	if _, ok := clients.FindClient(backend); !ok {
		return nil, fmt.Errorf("unknown database client %q", backend)
	}

	var store Store
	switch backend {
	case "postgresql", "cockroachdb", "redshift":
		pg := NewPgStore(dsn)
		pg.backend = backend
		store = pg
	case "sqlite":
		store = NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("no driver available for client %q", backend)
	}

	if err := store.Connect(); err != nil {
		return nil, err
	}
	return store, nil
}
