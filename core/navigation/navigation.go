// Package navigation follows a foreign key from a cell value to the rows it
// references. Resolution is pure; dispatching the resulting load request is
// left to a Dispatcher.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/fbz-tec/dbxport/internal/logger"
)

var log = logger.Scope("fk")

// ErrTableNotFound is returned when no table of the catalog matches a key.
var ErrTableNotFound = errors.New("destination table not found")

// KeyDescriptor points at the referenced side of a foreign key. ToSchema and
// ToColumn are optional.
type KeyDescriptor struct {
	ToTable  string `json:"toTable" yaml:"toTable"`
	ToSchema string `json:"toSchema,omitempty" yaml:"toSchema,omitempty"`
	ToColumn string `json:"toColumn,omitempty" yaml:"toColumn,omitempty"`
}

// Target is a resolved key. Column is empty when the primary key must be
// looked up.
type Target struct {
	Table  schema.TableOrView
	Column string
}

// LoadRequest asks for the rows of Table matching Filter. TitleScope is the
// clicked value, used to label the result.
type LoadRequest struct {
	Table      schema.TableOrView
	Filter     schema.TableFilter
	TitleScope any
}

// PrimaryKeyFinder is the part of db.Connection resolution needs.
type PrimaryKeyFinder interface {
	GetPrimaryKey(ctx context.Context, table, schemaName string) (string, error)
}

// Dispatcher performs a load request.
type Dispatcher interface {
	LoadTable(ctx context.Context, req LoadRequest) error
}

// ResolveTarget finds the table a key points at. A descriptor without schema
// whose table and column fields name no table is retried as (schema, table).
func ResolveTarget(tables []schema.TableOrView, key KeyDescriptor) (Target, error) {
	if t, ok := findTable(tables, key.ToSchema, key.ToTable); ok {
		return Target{Table: t, Column: key.ToColumn}, nil
	}

	if key.ToTable != "" && key.ToColumn != "" && key.ToSchema == "" {
		if t, ok := findTable(tables, key.ToTable, key.ToColumn); ok {
			return Target{Table: t}, nil
		}
	}
	return Target{}, fmt.Errorf("%w: %q", ErrTableNotFound, key.ToTable)
}

// findTable matches on name, and on schema when schemaName is set.
func findTable(tables []schema.TableOrView, schemaName, name string) (schema.TableOrView, bool) {
	for _, t := range tables {
		if t.Name == name && (schemaName == "" || t.Schema == schemaName) {
			return t, true
		}
	}
	return schema.TableOrView{}, false
}

// Resolve builds the load request for a clicked value. A target without
// column is filtered on its primary key.
func Resolve(ctx context.Context, tables []schema.TableOrView, key KeyDescriptor, value any, pk PrimaryKeyFinder) (LoadRequest, error) {
	target, err := ResolveTarget(tables, key)
	if err != nil {
		return LoadRequest{}, err
	}

	column := target.Column
	if column == "" {
		if pk == nil {
			return LoadRequest{}, fmt.Errorf("no primary key lookup available for %s", target.Table)
		}
		column, err = pk.GetPrimaryKey(ctx, target.Table.Name, target.Table.Schema)
		if err != nil {
			return LoadRequest{}, fmt.Errorf("error reading primary key of %s: %w", target.Table, err)
		}
		if column == "" {
			return LoadRequest{}, fmt.Errorf("%s has no single-column primary key", target.Table)
		}
	}

	return LoadRequest{
		Table:      target.Table,
		Filter:     schema.TableFilter{Field: column, Type: "=", Value: value},
		TitleScope: value,
	}, nil
}

// Navigate resolves and dispatches in one step. Failures are logged and
// returned; nothing is dispatched when resolution fails.
func Navigate(ctx context.Context, d Dispatcher, tables []schema.TableOrView, key KeyDescriptor, value any, pk PrimaryKeyFinder) error {
	log.Debug("navigating %+v with value %v", key, value)

	req, err := Resolve(ctx, tables, key, value, pk)
	if err != nil {
		log.Error("unable to open foreign key: %v", err)
		return err
	}
	if err := d.LoadTable(ctx, req); err != nil {
		return fmt.Errorf("error loading %s: %w", req.Table, err)
	}
	return nil
}

// LinkLabel describes where a set of keys leads, e.g.
// "View records in orders, items, or invoices".
func LinkLabel(keys []KeyDescriptor) string {
	switch len(keys) {
	case 0:
		return ""
	case 1:
		return "View record in " + keys[0].ToTable
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.ToTable
	}
	last := len(names) - 1
	return fmt.Sprintf("View records in %s, or %s", strings.Join(names[:last], ", "), names[last])
}
