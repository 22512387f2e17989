package formatters

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Unwrap resolves driver.Valuer implementations (pgtype.Numeric, pgtype.Interval,
// sql.NullString, ...) to their plain driver value. Invalid values become nil.
func Unwrap(v any) any {
	for i := 0; i < 4; i++ {
		valuer, ok := v.(driver.Valuer)
		if !ok {
			return v
		}
		next, err := valuer.Value()
		if err != nil {
			return nil
		}
		if reflect.TypeOf(next) == reflect.TypeOf(v) {
			return next
		}
		v = next
	}
	return v
}

// AsSequence reports whether v is array-like and returns its elements. Byte
// strings and fixed-size byte arrays (UUIDs) are scalars, not sequences.
func AsSequence(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// MakeString renders any scalar as text. nil becomes the empty string and a
// zero big integer renders as "0".
func MakeString(v any) string {
	v = Unwrap(v)
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case *big.Int:
		if val == nil || val.Sign() == 0 {
			return "0"
		}
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case [16]byte:
		return uuid.UUID(val).String()
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprintf("%v", v)
}

// FormatJSONValue prepares a value for encoding/json: UUIDs become text and
// valid UTF-8 byte strings are emitted as strings instead of base64.
func FormatJSONValue(v any) any {
	v = Unwrap(v)
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return val
	case *big.Int:
		return json.Number(MakeString(val))
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = FormatJSONValue(e)
		}
		return out
	}
	return v
}

// FormatYAMLValue prepares a value for yaml.v3 node encoding.
func FormatYAMLValue(v any) any {
	v = FormatJSONValue(v)
	switch val := v.(type) {
	case json.Number:
		return val.String()
	case []byte:
		return string(val)
	}
	return v
}

// FormatCSVValue formats a value as a single CSV field. Sequences use the
// '{a,b}' array notation and documents are JSON encoded.
func FormatCSVValue(v any) string {
	v = Unwrap(v)
	if v == nil {
		return ""
	}

	if seq, ok := AsSequence(v); ok {
		if len(seq) == 0 {
			return "{}"
		}
		elems := make([]string, len(seq))
		for i, elem := range seq {
			elems[i] = FormatCSVValue(elem)
		}
		return fmt.Sprintf("{%s}", strings.Join(elems, ","))
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct:
		if _, isTime := v.(time.Time); !isTime {
			b, err := json.Marshal(v)
			if err != nil {
				return "{}"
			}
			return string(b)
		}
	}
	return MakeString(v)
}

// FormatTemplateValue formats a value for template rendering: documents and
// sequences are JSON text, everything else keeps its Go type.
func FormatTemplateValue(v any) any {
	v = FormatJSONValue(v)
	if v == nil {
		return nil
	}
	if _, ok := AsSequence(v); ok {
		b, err := json.Marshal(v)
		if err != nil {
			return "[]"
		}
		return string(b)
	}
	if reflect.ValueOf(v).Kind() == reflect.Map {
		b, err := json.Marshal(v)
		if err != nil {
			return "{}"
		}
		return string(b)
	}
	return v
}
