package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fbz-tec/dbxport/core/db"
	"github.com/fbz-tec/dbxport/core/exporters"
	"github.com/fbz-tec/dbxport/core/navigation"
	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/fbz-tec/dbxport/internal/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	fkToTable  string
	fkToSchema string
	fkToColumn string
	fkValue    string
	fkOutput   string
	fkFormat   string
)

var resolveFKCmd = &cobra.Command{
	Use:   "resolve-fk",
	Short: "Follow a foreign key value to the rows it references",
	Long: `Resolve a foreign key to its destination table and filter.
Without --output the load request is printed as YAML. With --output the
referenced rows are exported like a regular table export.`,
	Example: `  # Which row does orders.customer_id = 42 point at?
  dbxport resolve-fk --to-table customers --value 42

  # Export the referenced invoice rows as JSON
  dbxport resolve-fk --to-table invoices --to-schema billing --to-column order_id --value 7 -o invoices.json -f json`,
	Args: cobra.NoArgs,
	RunE: runResolveFK,
}

func init() {
	f := resolveFKCmd.Flags()
	f.SortFlags = false
	f.StringVar(&fkToTable, "to-table", "", "Referenced table (required)")
	f.StringVar(&fkToSchema, "to-schema", "", "Referenced schema")
	f.StringVar(&fkToColumn, "to-column", "", "Referenced column (defaults to the primary key)")
	f.StringVar(&fkValue, "value", "", "Key value to follow (required)")
	f.StringVarP(&fkOutput, "output", "o", "", "Export the referenced rows to this file")
	f.StringVarP(&fkFormat, "format", "f", exporters.FormatJSON, "Output format when --output is set")
	_ = resolveFKCmd.MarkFlagRequired("to-table")
	_ = resolveFKCmd.MarkFlagRequired("value")
}

func runResolveFK(cmd *cobra.Command, args []string) error {
	cfg, err := connectionConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	tables, err := store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("error listing tables: %w", err)
	}

	var dispatcher navigation.Dispatcher = printDispatcher{w: cmd.OutOrStdout()}
	if fkOutput != "" {
		dispatcher = &exportDispatcher{conn: store, destination: fkOutput, format: strings.ToLower(strings.TrimSpace(fkFormat))}
	}

	key := navigation.KeyDescriptor{ToTable: fkToTable, ToSchema: fkToSchema, ToColumn: fkToColumn}
	return navigation.Navigate(ctx, dispatcher, tables, key, parseValue(fkValue), store)
}

// printDispatcher writes load requests as YAML documents.
type printDispatcher struct {
	w io.Writer
}

func (p printDispatcher) LoadTable(_ context.Context, req navigation.LoadRequest) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(req); err != nil {
		return err
	}
	return enc.Close()
}

// exportDispatcher exports the rows a load request selects.
type exportDispatcher struct {
	conn        db.Connection
	destination string
	format      string
	result      exporters.Result
}

func (e *exportDispatcher) LoadTable(ctx context.Context, req navigation.LoadRequest) error {
	job := &exporters.Job{
		Destination: e.destination,
		Conn:        e.conn,
		Table:       req.Table,
		Filters:     []schema.TableFilter{req.Filter},
		Options:     exporters.ExportOptions{Format: e.format, Delimiter: ','},
	}
	res, err := exporters.Run(ctx, job)
	if err != nil {
		return err
	}
	e.result = res
	logger.Success("Exported %d rows of %s where %s = %v -> %s", res.Rows, req.Table, req.Filter.Field, req.TitleScope, res.Path)
	return nil
}
