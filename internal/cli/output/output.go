// Package output renders CLI results as tables, JSON, CSV, YAML or
// Markdown.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Renderer writes results in one format.
type Renderer struct {
	Out    io.Writer
	ErrOut io.Writer
	Format string
}

// NewRenderer returns a renderer for format. Unknown formats render tables.
func NewRenderer(out, errOut io.Writer, format string) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Renderer{Out: out, ErrOut: errOut, Format: format}
}

// Table renders rows under header. Structured formats emit one object per
// row keyed by header.
func (r *Renderer) Table(header []string, rows [][]any) error {
	switch r.Format {
	case "json":
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(records(header, rows))
	case "yaml":
		enc := yaml.NewEncoder(r.Out)
		enc.SetIndent(2)
		if err := enc.Encode(records(header, rows)); err != nil {
			return err
		}
		return enc.Close()
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = FormatValue(v)
		}
		t.AppendRow(out)
	}

	switch r.Format {
	case "csv":
		t.RenderCSV()
	case "markdown":
		t.RenderMarkdown()
	default:
		if len(rows) == 0 {
			_, _ = fmt.Fprintln(r.Out, "(0 rows)")
			return nil
		}
		t.Render()
		_, _ = fmt.Fprintf(r.Out, "(%d rows)\n", len(rows))
	}
	return nil
}

// Value renders a single structured value. Table formats print it with %v.
func (r *Renderer) Value(v any) error {
	switch r.Format {
	case "json":
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(r.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintf(r.Out, "%v\n", v)
		return err
	}
}

// Info prints a status line to the error stream.
func (r *Renderer) Info(format string, args ...any) {
	_, _ = fmt.Fprintf(r.ErrOut, format+"\n", args...)
}

func records(header []string, rows [][]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = plain(row[i])
			}
		}
		out = append(out, rec)
	}
	return out
}

func plain(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Duration:
		return val.String()
	default:
		return v
	}
}

// FormatValue renders v for a table cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
