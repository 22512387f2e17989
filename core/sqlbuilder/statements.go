package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
)

// BuildInsert renders a single-row INSERT without a trailing terminator.
// table.Schema is used as given; callers clear it when schema qualification is off.
func (a *adapter) BuildInsert(table schema.TableOrView, row *schema.Row) (string, error) {
	target := a.QualifiedTable(table.Schema, table.Name)
	if row == nil || row.Len() == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", target), nil
	}

	columns := make([]string, 0, row.Len())
	values := make([]string, 0, row.Len())
	for name, value := range row.AllFromFront() {
		literal, err := a.EscapeValue(value)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", name, err)
		}
		columns = append(columns, a.data.QuoteIdent(name))
		values = append(values, literal)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		target, strings.Join(columns, ", "), strings.Join(values, ", ")), nil
}

// BuildCreateTable renders a one-line CREATE TABLE. Generic type names are
// mapped to native ones; native names pass through.
func (a *adapter) BuildCreateTable(table schema.TableOrView, columns []schema.Column, primaryKey []string) string {
	defs := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		def := a.data.QuoteIdent(c.Name) + " " + a.data.MapType(c.DataType)
		if c.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(primaryKey) > 0 {
		quoted := make([]string, len(primaryKey))
		for i, k := range primaryKey {
			quoted[i] = a.data.QuoteIdent(k)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", a.QualifiedTable(table.Schema, table.Name), strings.Join(defs, ", "))
}

// BuildSelect renders a parameterized SELECT * over a table.
func (a *adapter) BuildSelect(table schema.TableOrView, filters []schema.TableFilter) (string, []any, error) {
	query := "SELECT * FROM " + a.QualifiedTable(table.Schema, table.Name)
	where, args, err := a.buildWhere(filters)
	if err != nil {
		return "", nil, err
	}
	return query + where, args, nil
}

// WrapQuery applies filters to the result of an arbitrary query.
func (a *adapter) WrapQuery(query string, filters []schema.TableFilter) (string, []any, error) {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	if len(filters) == 0 {
		return query, nil, nil
	}
	where, args, err := a.buildWhere(filters)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT * FROM (%s) %s%s", query, a.data.QuoteIdent("q"), where), args, nil
}

func (a *adapter) buildWhere(filters []schema.TableFilter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	var args []any
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		if strings.TrimSpace(f.Field) == "" {
			return "", nil, fmt.Errorf("filter without field")
		}
		column := a.data.QuoteIdent(f.Field)
		op := strings.ToLower(strings.Join(strings.Fields(f.Type), " "))

		switch op {
		case "", "=", "!=", "<>", "<", "<=", ">", ">=", "like":
			if op == "" {
				op = "="
			}
			if f.Value == nil && (op == "=" || op == "!=" || op == "<>") {
				if op == "=" {
					clauses = append(clauses, column+" IS NULL")
				} else {
					clauses = append(clauses, column+" IS NOT NULL")
				}
				continue
			}
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("%s %s %s", column, strings.ToUpper(op), a.data.PlaceholderAt(len(args))))
		case "in":
			values, ok := formatters.AsSequence(f.Value)
			if !ok || len(values) == 0 {
				return "", nil, fmt.Errorf("filter %q: IN requires a non-empty list", f.Field)
			}
			marks := make([]string, len(values))
			for i, v := range values {
				args = append(args, v)
				marks[i] = a.data.PlaceholderAt(len(args))
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ", ")))
		case "is null":
			clauses = append(clauses, column+" IS NULL")
		case "is not null":
			clauses = append(clauses, column+" IS NOT NULL")
		default:
			return "", nil, fmt.Errorf("filter %q: unsupported operator %q", f.Field, f.Type)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
