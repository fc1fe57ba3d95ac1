// Package export renders result sets in the formats the CLI offers: aligned
// text tables, CSV, JSON, and Markdown.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// Format names a supported output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatTable, FormatCSV, FormatJSON, FormatMarkdown:
		return Format(strings.ToLower(name)), nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (supported: table, csv, json, markdown)", name)
	}
}

// Write renders the result set to w in the given format.
func Write(w io.Writer, rs *model.ResultSet, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, rs)
	case FormatJSON:
		return writeJSON(w, rs)
	case FormatMarkdown:
		return writeMarkdown(w, rs)
	default:
		return writeTable(w, rs)
	}
}

func writeCSV(w io.Writer, rs *model.ResultSet) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(rs.Columns))
	for _, row := range rs.Rows {
		for i := range record {
			record[i] = cell(row, i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, rs *model.ResultSet) error {
	type payload struct {
		Columns   []model.Column `json:"columns"`
		Rows      [][]any        `json:"rows"`
		Truncated bool           `json:"truncated,omitempty"`
		ElapsedMS int64          `json:"elapsed_ms"`
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload{
		Columns:   rs.Columns,
		Rows:      rs.Rows,
		Truncated: rs.Truncated,
		ElapsedMS: rs.ElapsedMS,
	})
}

func writeMarkdown(w io.Writer, rs *model.ResultSet) error {
	var b strings.Builder
	b.WriteString("|")
	for _, c := range rs.Columns {
		b.WriteString(" " + c.Name + " |")
	}
	b.WriteString("\n|")
	for range rs.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range rs.Rows {
		b.WriteString("|")
		for i := range rs.Columns {
			b.WriteString(" " + escapePipes(cell(row, i)) + " |")
		}
		b.WriteString("\n")
	}
	if rs.Truncated {
		b.WriteString("\n*Results truncated at the row limit.*\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(w io.Writer, rs *model.ResultSet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		header[i] = c.Name
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rs.Rows {
		fields := make([]string, len(rs.Columns))
		for i := range fields {
			fields[i] = cell(row, i)
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rs.Truncated {
		fmt.Fprintf(w, "\n(%d rows shown, results truncated at the row limit)\n", len(rs.Rows))
	} else {
		fmt.Fprintf(w, "\n(%d rows)\n", len(rs.Rows))
	}
	return nil
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return trimFloat(v)
	case float32:
		return trimFloat(float64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// trimFloat avoids rendering integral floats as 5.000000.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
