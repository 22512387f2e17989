package exporters

import (
	"context"

	"github.com/fbz-tec/dbxport/core/encoders"
	"github.com/fbz-tec/dbxport/core/schema"
)

// jsonExporter writes a top-level array of objects, one per row.
type jsonExporter struct {
	enc encoders.OrderedJSONEncoder
}

func (e *jsonExporter) Header(context.Context, []schema.Column) (string, error) { return "[", nil }

func (e *jsonExporter) FormatRow(row *schema.Row, _ map[string]string) (string, error) {
	b, err := e.enc.EncodeRow(row)
	if err != nil {
		return "", err
	}
	return "  " + string(b), nil
}

func (e *jsonExporter) Footer() (string, error) { return "]", nil }

func (e *jsonExporter) RowSeparator() string { return ",\n" }

func (e *jsonExporter) TrailingSeparator() bool { return false }

func init() {
	MustRegister(FormatJSON, func(*Job) (Exporter, error) {
		return &jsonExporter{enc: encoders.NewOrderedJSONEncoder("    ")}, nil
	})
}
