package exporters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// templateExporter renders user supplied header, row and footer templates.
// Only the row template is required.
type templateExporter struct {
	header, row, footer *template.Template

	columns     []string
	generatedAt string
}

func newTemplateExporter(job *Job) (Exporter, error) {
	funcs := defaultTemplateFuncs()

	header, err := loadTemplateIfExists(job.Options.TemplateHeader, false, funcs)
	if err != nil {
		return nil, err
	}
	row, err := loadTemplateIfExists(job.Options.TemplateRow, true, funcs)
	if err != nil {
		return nil, err
	}
	footer, err := loadTemplateIfExists(job.Options.TemplateFooter, false, funcs)
	if err != nil {
		return nil, err
	}

	return &templateExporter{
		header:      header,
		row:         row,
		footer:      footer,
		generatedAt: time.Now().Format(time.RFC3339),
	}, nil
}

func (e *templateExporter) Header(_ context.Context, columns []schema.Column) (string, error) {
	e.columns = schema.ColumnNames(columns)
	if e.header == nil {
		return "", nil
	}
	return execute(e.header, map[string]any{
		"Columns":     e.columns,
		"GeneratedAt": e.generatedAt,
	})
}

func (e *templateExporter) FormatRow(row *schema.Row, _ map[string]string) (string, error) {
	values := orderedmap.NewOrderedMap[string, any]()
	for k, v := range row.AllFromFront() {
		values.Set(k, formatters.FormatTemplateValue(v))
	}
	return execute(e.row, values)
}

func (e *templateExporter) Footer() (string, error) {
	if e.footer == nil {
		return "", nil
	}
	return execute(e.footer, map[string]any{
		"Columns":     e.columns,
		"GeneratedAt": e.generatedAt,
	})
}

func (e *templateExporter) RowSeparator() string { return "" }

func (e *templateExporter) TrailingSeparator() bool { return false }

func execute(tpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}

func defaultTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     cases.Title(language.English).String,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"join":      strings.Join,
		"split":     strings.Split,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"str":       formatters.MakeString,
		"json": func(v any) string {
			b, err := json.Marshal(formatters.FormatJSONValue(v))
			if err != nil {
				return fmt.Sprintf("ERROR: %v", err)
			}
			return string(b)
		},
		"now": time.Now,
		"formatTime": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		// orderedmap values are not reachable with index
		"get": func(m *orderedmap.OrderedMap[string, any], key string) any {
			val, _ := m.Get(key)
			return val
		},
	}
}

func loadTemplateIfExists(path string, required bool, funcs template.FuncMap) (*template.Template, error) {
	if strings.TrimSpace(path) == "" {
		if required {
			return nil, fmt.Errorf("row template file path is empty")
		}
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %q: %w", path, err)
	}
	tpl, err := template.New(path).Funcs(funcs).Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", path, err)
	}
	return tpl, nil
}

func init() {
	MustRegister(FormatTemplate, newTemplateExporter)
}
