package exporters

import (
	"context"

	"github.com/fbz-tec/dbxport/core/encoders"
	"github.com/fbz-tec/dbxport/core/schema"
)

// yamlExporter writes a top-level sequence, one mapping per row.
type yamlExporter struct {
	enc encoders.OrderedYAMLEncoder
}

func (e *yamlExporter) Header(context.Context, []schema.Column) (string, error) { return "", nil }

func (e *yamlExporter) FormatRow(row *schema.Row, _ map[string]string) (string, error) {
	return e.enc.EncodeItem(row)
}

func (e *yamlExporter) Footer() (string, error) { return "", nil }

func (e *yamlExporter) RowSeparator() string { return "\n" }

func (e *yamlExporter) TrailingSeparator() bool { return true }

func init() {
	MustRegister(FormatYAML, func(*Job) (Exporter, error) {
		return &yamlExporter{enc: encoders.NewOrderedYAMLEncoder(2)}, nil
	})
}
