// Package output печатает результаты команд таблицей, JSON или YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

// FormatType представляет тип форматирования вывода
type FormatType string

const (
	FormatTable FormatType = "table"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// TableData данные для табличного вывода
type TableData struct {
	Headers []string
	Rows    [][]string
}

// ParseFormat проверяет формат вывода
func ParseFormat(value string) (FormatType, error) {
	switch format := FormatType(strings.ToLower(value)); format {
	case FormatTable, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (table, json, yaml)", value)
	}
}

// Print выводит data в выбранном формате. Для таблицы используется table.
func Print(w io.Writer, format FormatType, data interface{}, table *TableData) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return printTable(w, table)
	}
}

func printTable(w io.Writer, data *TableData) error {
	if data == nil || len(data.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No data found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(data.Headers, "\t"))

	separators := make([]string, len(data.Headers))
	for i, header := range data.Headers {
		separators[i] = strings.Repeat("-", len(header))
	}
	fmt.Fprintln(tw, strings.Join(separators, "\t"))

	for _, row := range data.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
