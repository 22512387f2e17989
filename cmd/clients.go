package cmd

import (
	"io"
	"strconv"
	"strings"

	"github.com/fbz-tec/dbxport/core/clients"
	"github.com/fbz-tec/dbxport/core/dialects"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List supported database clients and their capabilities",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		renderClients(cmd.OutOrStdout())
	},
}

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List SQL dialects used to render INSERT statements",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		renderDialects(cmd.OutOrStdout())
	},
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func renderClients(w io.Writer) {
	table := newTable(w, []string{"Key", "Name", "Port", "Database", "Dialect", "SQL export", "Unsupported"})
	for _, c := range clients.List() {
		port := "-"
		if c.DefaultPort > 0 {
			port = strconv.Itoa(c.DefaultPort)
		}
		dialect := string(c.Dialect)
		if dialect == "" {
			dialect = "-"
		}
		export := "no"
		if _, ok := clients.AdapterFor(c.Key); ok {
			export = "yes"
		}
		disabled := make([]string, 0, c.Disabled.Len())
		for _, f := range c.Disabled.Features() {
			disabled = append(disabled, f.String())
		}
		table.Append([]string{c.Key, c.Name, port, c.DefaultDatabase, dialect, export, strings.Join(disabled, "\n")})
	}
	table.Render()
}

func renderDialects(w io.Writer) {
	table := newTable(w, []string{"Dialect", "Identifier", "Placeholder", "Terminator", "Arrays", "Default schema"})
	for _, d := range dialects.Known() {
		data := dialects.Resolve(d)
		arrays := "json"
		if data.NativeArrays {
			arrays = "native"
		}
		table.Append([]string{
			string(d),
			data.QuoteIdent("name"),
			data.PlaceholderAt(1),
			strconv.Quote(data.Terminator),
			arrays,
			data.DefaultSchema,
		})
	}
	table.Render()
}
