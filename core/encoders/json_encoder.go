// Package encoders renders rows as JSON objects or YAML mappings, keeping
// the declared column order.
package encoders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
)

// OrderedJSONEncoder encodes rows as JSON objects while preserving key order.
type OrderedJSONEncoder struct {
	// Indent prefixes every key line. Empty produces a single-line object.
	Indent string
}

func NewOrderedJSONEncoder(indent string) OrderedJSONEncoder {
	return OrderedJSONEncoder{Indent: indent}
}

// EncodeRow encodes one row. The closing brace is indented one level less
// than the keys so the object nests inside a top-level array.
func (o OrderedJSONEncoder) EncodeRow(row *schema.Row) ([]byte, error) {
	if row == nil || row.Len() == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.Grow(row.Len() * 32)

	pretty := o.Indent != ""
	buf.WriteByte('{')
	if pretty {
		buf.WriteByte('\n')
	}

	i := 0
	for k, v := range row.AllFromFront() {
		if i > 0 {
			buf.WriteByte(',')
			if pretty {
				buf.WriteByte('\n')
			}
		}
		buf.WriteString(o.Indent)
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		if pretty {
			buf.WriteByte(' ')
		}

		valueJSON, err := marshalWithoutHTMLEscape(formatters.FormatJSONValue(v))
		if err != nil {
			return nil, fmt.Errorf("error marshaling value for key %q: %w", k, err)
		}
		buf.Write(valueJSON)
		i++
	}

	if pretty {
		buf.WriteByte('\n')
		if len(o.Indent) >= 2 {
			buf.WriteString(o.Indent[:len(o.Indent)-2])
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
