// Package sqlbuilder turns generic statement-building calls into
// dialect-correct SQL text. Every dialect is served by the same adapter type
// driven by its dialects.DialectData; adding a backend is one table entry.
package sqlbuilder

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fbz-tec/dbxport/core/dialects"
	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/google/uuid"
)

// Adapter builds statements for one dialect.
type Adapter interface {
	Dialect() dialects.Dialect
	Data() dialects.DialectData
	QuoteIdent(name string) string
	QualifiedTable(schemaName, table string) string
	EscapeValue(v any) (string, error)
	CompositeLiteral(values []any) (string, error)
	BuildInsert(table schema.TableOrView, row *schema.Row) (string, error)
	BuildCreateTable(table schema.TableOrView, columns []schema.Column, primaryKey []string) string
	BuildSelect(table schema.TableOrView, filters []schema.TableFilter) (string, []any, error)
	WrapQuery(query string, filters []schema.TableFilter) (string, []any, error)
}

type adapter struct {
	data dialects.DialectData
}

var adapters = func() map[dialects.Dialect]Adapter {
	m := make(map[dialects.Dialect]Adapter)
	for _, d := range dialects.Known() {
		m[d] = &adapter{data: dialects.Resolve(d)}
	}
	return m
}()

// For returns the adapter of d. Unknown dialects get the default dialect's rules.
func For(d dialects.Dialect) Adapter {
	if a, ok := adapters[d]; ok {
		return a
	}
	return &adapter{data: dialects.Resolve(d)}
}

func (a *adapter) Dialect() dialects.Dialect { return a.data.Dialect }

func (a *adapter) Data() dialects.DialectData { return a.data }

func (a *adapter) QuoteIdent(name string) string { return a.data.QuoteIdent(name) }

func (a *adapter) QualifiedTable(schemaName, table string) string {
	if schemaName == "" {
		return a.data.QuoteIdent(table)
	}
	return a.data.QuoteIdent(schemaName) + "." + a.data.QuoteIdent(table)
}

// EscapeValue renders v as a literal. Sequences are refused: the caller must
// pick between CompositeLiteral and JSON text based on the column type.
func (a *adapter) EscapeValue(v any) (string, error) {
	v = formatters.Unwrap(v)

	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if val {
			return a.data.BoolLiterals[1], nil
		}
		return a.data.BoolLiterals[0], nil
	case string:
		return a.data.QuoteString(val), nil
	case []byte:
		return a.binaryLiteral(val), nil
	case json.RawMessage:
		return a.data.QuoteString(string(val)), nil
	case json.Number:
		return val.String(), nil
	case float64:
		return a.floatLiteral(val, 64), nil
	case float32:
		return a.floatLiteral(float64(val), 32), nil
	case *big.Int:
		if val == nil {
			return "NULL", nil
		}
		return formatters.MakeString(val), nil
	case time.Time:
		return a.data.QuoteString(val.Format(a.data.TimestampLayout)), nil
	case [16]byte:
		return a.data.QuoteString(uuid.UUID(val).String()), nil
	case uuid.UUID:
		return a.data.QuoteString(val.String()), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return a.floatLiteral(rv.Float(), 64), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return a.EscapeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return "", fmt.Errorf("cannot escape sequence value of type %T directly", v)
	case reflect.Map, reflect.Struct:
		if s, ok := v.(fmt.Stringer); ok {
			return a.data.QuoteString(s.String()), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("error encoding %T as JSON: %w", v, err)
		}
		return a.data.QuoteString(string(b)), nil
	}
	return a.data.QuoteString(formatters.MakeString(v)), nil
}

func (a *adapter) floatLiteral(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NULL"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func (a *adapter) binaryLiteral(b []byte) string {
	switch a.data.Binary {
	case dialects.BinaryXLiteral:
		return "X'" + hex.EncodeToString(b) + "'"
	case dialects.Binary0x:
		return "0x" + hex.EncodeToString(b)
	case dialects.BinaryFromBase64:
		return "FROM_BASE64('" + base64.StdEncoding.EncodeToString(b) + "')"
	default:
		return `'\x` + hex.EncodeToString(b) + "'"
	}
}

// CompositeLiteral encodes a sequence as the text of the backend's composite
// type: '{a,"b c",NULL}' where arrays are native, a JSON array otherwise. The
// result is unquoted text meant to go through EscapeValue.
func (a *adapter) CompositeLiteral(values []any) (string, error) {
	if !a.data.NativeArrays {
		b, err := json.Marshal(jsonSafe(values))
		if err != nil {
			return "", fmt.Errorf("error encoding array as JSON: %w", err)
		}
		return string(b), nil
	}

	var sb strings.Builder
	if err := a.writeArray(&sb, values); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (a *adapter) writeArray(sb *strings.Builder, values []any) error {
	sb.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		v = formatters.Unwrap(v)
		if v == nil {
			sb.WriteString("NULL")
			continue
		}
		if nested, ok := formatters.AsSequence(v); ok {
			if err := a.writeArray(sb, nested); err != nil {
				return err
			}
			continue
		}
		switch val := v.(type) {
		case bool:
			sb.WriteString(strconv.FormatBool(val))
			continue
		case []byte:
			writeArrayElement(sb, `\x`+hex.EncodeToString(val))
			continue
		case time.Time:
			writeArrayElement(sb, val.Format(a.data.TimestampLayout))
			continue
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			sb.WriteString(formatters.MakeString(v))
		case reflect.Map, reflect.Struct:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("error encoding array element %T: %w", v, err)
			}
			writeArrayElement(sb, string(b))
		default:
			writeArrayElement(sb, formatters.MakeString(v))
		}
	}
	sb.WriteByte('}')
	return nil
}

func writeArrayElement(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
}

func jsonSafe(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = formatters.FormatJSONValue(v)
	}
	return out
}
