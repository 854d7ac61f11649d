package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Format selects how payloads are printed.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts table, json, csv or markdown. Empty means table.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("invalid output format %q (table, json, csv, markdown)", raw)
}

// Columns are the default columns of list payloads, by slice.
var Columns = map[string][]string{
	"user":         {"id", "username", "fullName", "email", "role", "isActive"},
	"rfid":         {"id", "rfid", "fullName", "vehiclesNumber", "vehicleTypeId", "isActive"},
	"rfid-log":     {"id", "rfid", "gate", "status", "message", "createdAt"},
	"vehicle-type": {"id", "vehicleTypeCode", "vehicleTypeName", "updatedAt"},
	"arrival":      {"id", "rfid", "fullName", "vehiclesNumber", "vehiclesType", "arrival", "departure"},
	"log-gate":     {"id", "gate", "direction", "rfid", "status", "createdAt"},
}

// Records is a payload flattened into rows.
type Records struct {
	Rows  []map[string]any
	Total int
	// Page is set when the payload was a page; otherwise Rows holds the object itself.
	Page bool
}

// ToRecords flattens a payload. A page yields its data and total.
// Any other object yields a single row; scalars yield none.
func ToRecords(payload any) (Records, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Records{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Records{}, nil
	}

	items, isPage := obj["data"].([]any)
	if !isPage {
		return Records{Rows: []map[string]any{obj}}, nil
	}
	rec := Records{Rows: make([]map[string]any, 0, len(items)), Page: true}
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			rec.Rows = append(rec.Rows, m)
		}
	}
	rec.Total = len(rec.Rows)
	if t, ok := obj["total"].(float64); ok {
		rec.Total = int(t)
	}
	return rec, nil
}

// Render prints payload to w in the given format. Pages print one row per
// item under columns; when columns is empty they come from the first row.
// Single objects print as field/value pairs.
func Render(w io.Writer, format Format, title string, payload any, columns []string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	rec, err := ToRecords(payload)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle("%s", title)
	}

	switch {
	case rec.Page:
		if len(columns) == 0 && len(rec.Rows) > 0 {
			columns = keys(rec.Rows[0])
		}
		appendPage(t, columns, rec.Rows, rec.Total)
	case len(rec.Rows) == 1:
		appendFields(t, rec.Rows[0])
	default:
		t.AppendRow(table.Row{cell(payload)})
	}

	switch format {
	case FormatCSV:
		t.RenderCSV()
	case FormatMarkdown:
		t.RenderMarkdown()
	default:
		t.Render()
	}
	return nil
}

func appendPage(t table.Writer, columns []string, rows []map[string]any, total int) {
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, r := range rows {
		row := make(table.Row, len(columns))
		for i, c := range columns {
			row[i] = cell(r[c])
		}
		t.AppendRow(row)
	}
	if len(columns) > 1 {
		footer := make(table.Row, len(columns))
		footer[len(columns)-2] = "total"
		footer[len(columns)-1] = total
		t.AppendFooter(footer)
	}
}

func appendFields(t table.Writer, obj map[string]any) {
	t.AppendHeader(table.Row{"field", "value"})
	for _, k := range keys(obj) {
		t.AppendRow(table.Row{k, cell(obj[k])})
	}
}

// keys sorts the keys of m with "id" first.
func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "id" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	if _, ok := m["id"]; ok {
		out = append([]string{"id"}, out...)
	}
	return out
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return StripControl(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return StripControl(fmt.Sprint(x))
		}
		return StripControl(string(raw))
	}
}
