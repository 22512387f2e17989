package exporters

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
)

type csvExporter struct {
	delimiter rune
	noHeader  bool
}

func newCSVExporter(job *Job) (Exporter, error) {
	delimiter := job.Options.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	if delimiter == '"' || delimiter == '\r' || delimiter == '\n' {
		return nil, fmt.Errorf("invalid CSV delimiter %q", delimiter)
	}
	return &csvExporter{delimiter: delimiter, noHeader: job.Options.NoHeader}, nil
}

func (e *csvExporter) Header(_ context.Context, columns []schema.Column) (string, error) {
	if e.noHeader || len(columns) == 0 {
		return "", nil
	}
	return e.record(schema.ColumnNames(columns))
}

func (e *csvExporter) FormatRow(row *schema.Row, _ map[string]string) (string, error) {
	record := make([]string, 0, row.Len())
	for _, v := range row.AllFromFront() {
		record = append(record, formatters.FormatCSVValue(v))
	}
	return e.record(record)
}

// record encodes one CSV line without its line terminator.
func (e *csvExporter) record(fields []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = e.delimiter
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error encoding CSV: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func (e *csvExporter) Footer() (string, error) { return "", nil }

func (e *csvExporter) RowSeparator() string { return "\n" }

func (e *csvExporter) TrailingSeparator() bool { return true }

func init() {
	MustRegister(FormatCSV, newCSVExporter)
}
