package exporters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/fbz-tec/dbxport/core/clients"
	"github.com/fbz-tec/dbxport/core/db"
	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/fbz-tec/dbxport/core/sqlbuilder"
)

// sqlExporter writes one INSERT statement per row, optionally preceded by
// the table's CREATE TABLE statement.
type sqlExporter struct {
	conn    db.Connection
	adapter sqlbuilder.Adapter
	table   schema.TableOrView
	query   bool
	opts    ExportOptions
}

func newSQLExporter(job *Job) (Exporter, error) {
	backend := job.Conn.Backend()
	adapter, ok := clients.AdapterFor(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExport, backend)
	}

	table := job.target()
	if !job.Options.IncludeSchema {
		table.Schema = ""
	}
	return &sqlExporter{
		conn:    job.Conn,
		adapter: adapter,
		table:   table,
		query:   job.Query != "",
		opts:    job.Options,
	}, nil
}

// Header returns the create-table statement, terminated. Multi-statement
// scripts are cut down to their first statement.
func (e *sqlExporter) Header(ctx context.Context, _ []schema.Column) (string, error) {
	if !e.opts.CreateTableHeader || e.query {
		return "", nil
	}

	script, err := e.conn.GetTableCreateScript(ctx, e.table.Name, e.table.Schema)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrHeaderUnavailable, e.table, err)
	}
	if len(script) == 0 || strings.TrimSpace(script[0]) == "" {
		return "", fmt.Errorf("%w for %s: no create script", ErrHeaderUnavailable, e.table)
	}

	stmt := strings.TrimSpace(script[0])
	terminator := e.adapter.Data().Terminator
	if !strings.HasSuffix(stmt, terminator) {
		stmt += terminator
	}
	return stmt, nil
}

// FormatRow builds a single INSERT. Array values are JSON text in JSON-typed
// columns and composite literals everywhere else.
func (e *sqlExporter) FormatRow(row *schema.Row, columnTypes map[string]string) (string, error) {
	data := e.adapter.Data()
	values := orderedmap.NewOrderedMap[string, any]()

	for name, value := range row.AllFromFront() {
		seq, ok := formatters.AsSequence(formatters.Unwrap(value))
		if !ok {
			values.Set(name, value)
			continue
		}

		if data.IsJSONType(columnTypes[name]) {
			b, err := json.Marshal(formatters.FormatJSONValue(seq))
			if err != nil {
				return "", fmt.Errorf("column %q: error encoding JSON: %w", name, err)
			}
			values.Set(name, string(b))
			continue
		}

		literal, err := e.adapter.CompositeLiteral(seq)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", name, err)
		}
		values.Set(name, literal)
	}

	return e.adapter.BuildInsert(e.table, values)
}

// Footer is always empty for SQL.
func (e *sqlExporter) Footer() (string, error) { return "", nil }

func (e *sqlExporter) RowSeparator() string {
	return e.adapter.Data().Terminator + "\n"
}

func (e *sqlExporter) TrailingSeparator() bool { return true }

func init() {
	MustRegister(FormatSQL, newSQLExporter)
}
