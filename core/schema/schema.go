// Package schema describes tables, columns, filters and rows shared by the
// connection collaborators, the SQL builder and the exporters.
package schema

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
)

// TableOrView identifies a relation. Schema is empty for backends without schemas.
type TableOrView struct {
	Name       string `yaml:"name" json:"name"`
	Schema     string `yaml:"schema,omitempty" json:"schema,omitempty"`
	EntityType string `yaml:"entityType,omitempty" json:"entityType,omitempty"`
}

func (t TableOrView) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column is one declared column of a relation or one field of a cursor.
type Column struct {
	Name     string
	DataType string
	NotNull  bool
}

// TableFilter restricts the rows of an export. Type is the comparison operator.
type TableFilter struct {
	Field string `yaml:"field" json:"field"`
	Type  string `yaml:"type" json:"type"`
	Value any    `yaml:"value" json:"value"`
}

// ColumnTypes indexes declared data types by column name.
func ColumnTypes(columns []Column) map[string]string {
	types := make(map[string]string, len(columns))
	for _, c := range columns {
		types[c.Name] = c.DataType
	}
	return types
}

// ColumnNames returns the names in declared order.
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// Row maps column names to values. Iteration order is the table's declared
// column order, whatever order the cursor produced the fields in.
type Row = orderedmap.OrderedMap[string, any]

// NewRow builds a Row from one positional cursor row. fields names the
// positions of values; declared fixes the output order. Declared columns the
// cursor did not return are skipped. Repeated field names and fields that
// are not declared are errors; the first one in cursor order is reported.
func NewRow(declared []Column, fields []string, values []any) (*Row, error) {
	if len(fields) != len(values) {
		return nil, fmt.Errorf("row has %d values for %d fields", len(values), len(fields))
	}

	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := byName[f]; dup {
			return nil, fmt.Errorf("duplicate field %q in result set", f)
		}
		byName[f] = i
	}

	row := orderedmap.NewOrderedMap[string, any]()
	for _, c := range declared {
		i, ok := byName[c.Name]
		if !ok {
			continue
		}
		row.Set(c.Name, values[i])
		delete(byName, c.Name)
	}

	for _, f := range fields {
		if _, left := byName[f]; left {
			return nil, fmt.Errorf("field %q is not a declared column", f)
		}
	}
	return row, nil
}
