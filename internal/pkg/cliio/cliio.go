// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio provides output formatting for CLI commands (table, CSV, JSON).
package cliio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Format represents the output format for CLI commands.
type Format string

const (
	// FormatTable is the default table output format.
	FormatTable Format = "table"
	// FormatCSV is the CSV output format.
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"
)

// ParseFormat parses a string into a Format, returning an error for unknown formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q, must be one of: table, csv, json", s)
	}
}

// TableOption is an option for WriteTable.
type TableOption func(*tableOptions)

// TableWithRightAlignedColumns right-aligns the columns with the given
// 1-based column numbers.
func TableWithRightAlignedColumns(columnNumbers ...int) TableOption {
	return func(tableOptions *tableOptions) {
		tableOptions.rightAligned = append(tableOptions.rightAligned, columnNumbers...)
	}
}

// TableWithFooter adds a footer row below a separator.
func TableWithFooter(footer []string) TableOption {
	return func(tableOptions *tableOptions) {
		tableOptions.footer = footer
	}
}

// WriteTable writes tabular data to the writer as a bordered table.
func WriteTable(writer io.Writer, headers []string, rows [][]string, options ...TableOption) error {
	tableOptions := &tableOptions{}
	for _, option := range options {
		option(tableOptions)
	}
	tableWriter := table.NewWriter()
	tableWriter.AppendHeader(toRow(headers))
	for _, row := range rows {
		tableWriter.AppendRow(toRow(row))
	}
	if tableOptions.footer != nil {
		tableWriter.AppendFooter(toRow(tableOptions.footer))
	}
	tableWriter.SetStyle(table.StyleRounded)
	tableWriter.Style().Format.Header = text.FormatDefault
	tableWriter.Style().Format.Footer = text.FormatDefault
	columnConfigs := make([]table.ColumnConfig, 0, len(tableOptions.rightAligned))
	for _, columnNumber := range tableOptions.rightAligned {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      columnNumber,
			Align:       text.AlignRight,
			AlignFooter: text.AlignRight,
		})
	}
	tableWriter.SetColumnConfigs(columnConfigs)
	_, err := io.WriteString(writer, tableWriter.Render()+"\n")
	return err
}

// WriteCSVRecords writes CSV records to the writer.
func WriteCSVRecords(writer io.Writer, records [][]string) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.WriteAll(records); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteJSON writes objects as JSON with newlines between each object.
func WriteJSON[O any](writer io.Writer, objects ...O) error {
	for _, object := range objects {
		data, err := json.Marshal(object)
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if _, err := writer.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}

// *** PRIVATE ***

type tableOptions struct {
	rightAligned []int
	footer       []string
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, value := range values {
		row[i] = value
	}
	return row
}
