// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/antonbabkin/pubdata-sub000/internal/config"
	"github.com/antonbabkin/pubdata-sub000/internal/filters"
)

// Formats accepted by --output.
var Formats = []string{"text", "json", "yaml"}

// Options controls how a result set is rendered.
type Options struct {
	Format string
	Titles bool
	Color  bool
	Filter string
	Sort   string
}

// OptionsFromCommand reads the global output flags of cmd.
func OptionsFromCommand(cmd *cli.Command) Options {
	return Options{
		Format: cmd.String("output"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
	}
}

// SliceDiceSpit filters, sorts and renders rows. columns fixes the column
// order of text output; json and yaml emit whole rows.
func SliceDiceSpit(
	rows []map[string]interface{},
	columns []string,
	opts Options,
	w io.Writer) error {

	if w == nil {
		w = os.Stdout
	}

	// Filter first so sorting works on the smaller set.
	dataset := filters.FilterRows(rows, opts.Filter)
	SortDataset(dataset, opts.Sort)

	switch opts.Format {
	case "json":
		return writeJSON(w, dataset)
	case "yaml":
		return writeYAML(w, dataset)
	default:
		TableWriter(dataset, columns, opts, w)
		return nil
	}
}

// Emit renders a single document. Text output is YAML, which reads better
// than a one row table for nested values.
func Emit(v any, format string, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	if format == "json" {
		return writeJSON(w, v)
	}
	return writeYAML(w, v)
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(
	resultSet []map[string]interface{},
	columns []string,
	opts Options,
	w io.Writer) {

	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 0)
	log.Debugf("padding: %v", pad)

	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, InterfaceToString(result[col], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(columns...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided for nil and "".
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		if value == "" {
			return emptyValue[0]
		}
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		rv := reflect.ValueOf(value)
		if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.Len() == 0 {
			return emptyValue[0]
		}
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
