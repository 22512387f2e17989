// Package dialects holds the per-backend SQL rules: identifier quoting, literal
// escaping and type-name mapping.
package dialects

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fbz-tec/dbxport/internal/logger"
)

// Dialect identifies one SQL backend family.
type Dialect string

const (
	Postgres  Dialect = "postgresql"
	MySQL     Dialect = "mysql"
	SQLServer Dialect = "sqlserver"
	SQLite    Dialect = "sqlite"
	Redshift  Dialect = "redshift"
	BigQuery  Dialect = "bigquery"
)

// Default is returned by Resolve for identifiers it does not know.
const Default = SQLite

// StringEscape selects how quotes and control characters are escaped inside string literals.
type StringEscape int

const (
	// EscapeDoubledQuote doubles single quotes and leaves everything else untouched.
	EscapeDoubledQuote StringEscape = iota
	// EscapeBackslash uses backslash sequences (MySQL, BigQuery).
	EscapeBackslash
)

// BinaryStyle selects the literal syntax used for byte strings.
type BinaryStyle int

const (
	BinaryHexBytea  BinaryStyle = iota // '\xdeadbeef'
	BinaryXLiteral                     // X'deadbeef'
	Binary0x                           // 0xdeadbeef
	BinaryFromBase64                   // FROM_BASE64('3q2+7w==')
)

// PlaceholderStyle selects the bind parameter syntax.
type PlaceholderStyle int

const (
	PlaceholderDollar   PlaceholderStyle = iota // $1
	PlaceholderQuestion                         // ?
	PlaceholderAtP                              // @p1
)

// DialectData is the immutable rule set of one dialect. Values returned by
// Resolve share their maps and slices; callers must not modify them.
type DialectData struct {
	Dialect Dialect

	IdentOpen  string
	IdentClose string

	StringEscape  StringEscape
	UnicodePrefix string

	// BoolLiterals holds the false and true literals, in that order.
	BoolLiterals [2]string
	Binary       BinaryStyle
	Placeholder  PlaceholderStyle

	// NativeArrays is true when the backend accepts '{a,b}' array literals.
	NativeArrays bool
	JSONTypes    []string

	// ColumnTypes maps generic type names to the backend's native names.
	ColumnTypes map[string]string

	DefaultSchema   string
	TimestampLayout string
	Terminator      string
}

// QuoteIdent wraps a single identifier, doubling any embedded closing quote.
func (d DialectData) QuoteIdent(name string) string {
	return d.IdentOpen + strings.ReplaceAll(name, d.IdentClose, d.IdentClose+d.IdentClose) + d.IdentClose
}

// QuoteString renders s as a string literal.
func (d DialectData) QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 3)
	b.WriteString(d.UnicodePrefix)
	b.WriteByte('\'')
	switch d.StringEscape {
	case EscapeBackslash:
		for _, r := range s {
			switch r {
			case 0:
				b.WriteString(`\0`)
			case '\b':
				b.WriteString(`\b`)
			case '\t':
				b.WriteString(`\t`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\x1a':
				b.WriteString(`\Z`)
			case '\'':
				b.WriteString(`\'`)
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			default:
				b.WriteRune(r)
			}
		}
	default:
		b.WriteString(strings.ReplaceAll(s, "'", "''"))
	}
	b.WriteByte('\'')
	return b.String()
}

// MapType translates a generic type name (integer, text, json, ...) to the
// native name. Unknown names are returned unchanged.
func (d DialectData) MapType(generic string) string {
	if native, ok := d.ColumnTypes[strings.ToLower(strings.TrimSpace(generic))]; ok {
		return native
	}
	return generic
}

// IsJSONType reports whether a declared column type holds JSON documents.
func (d DialectData) IsJSONType(columnType string) bool {
	t := strings.ToLower(strings.TrimSpace(columnType))
	for _, j := range d.JSONTypes {
		if t == j {
			return true
		}
	}
	return false
}

// PlaceholderAt returns the bind parameter marker for the n-th argument (1-based).
func (d DialectData) PlaceholderAt(n int) string {
	switch d.Placeholder {
	case PlaceholderQuestion:
		return "?"
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(n)
	default:
		return "$" + strconv.Itoa(n)
	}
}

var registry = map[Dialect]DialectData{
	Postgres:  PostgresData,
	MySQL:     MysqlData,
	SQLServer: SqlServerData,
	SQLite:    SqliteData,
	Redshift:  RedshiftData,
	BigQuery:  BigQueryData,
}

// Resolve returns the rules for d. Unknown dialects silently fall back to
// Default with a logged warning.
func Resolve(d Dialect) DialectData {
	if data, ok := registry[d]; ok {
		return data
	}
	logger.Warn("Unknown SQL dialect %q, falling back to %s", string(d), Default)
	return registry[Default]
}

// Parse validates a dialect identifier. Use it instead of Resolve when an
// unknown value must be reported.
func Parse(s string) (Dialect, bool) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	_, ok := registry[d]
	return d, ok
}

// Known lists every dialect with its own rule set, sorted by name.
func Known() []Dialect {
	out := make([]Dialect, 0, len(registry))
	for d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
