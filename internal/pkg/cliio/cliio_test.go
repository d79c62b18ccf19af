// Copyright 2026 Peter Edge
//
// All rights reserved.

package cliio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()
	format, err := ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)
	_, err = ParseFormat("yaml")
	require.ErrorContains(t, err, "unknown format")
}

func TestWriteTable(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(t, WriteTable(
		&buffer,
		[]string{"NAME", "AMOUNT"},
		[][]string{{"Streaming", "$15.99"}, {"Cloud", "€4.00"}},
		TableWithRightAlignedColumns(2),
		TableWithFooter([]string{"TOTAL", "$20.31"}),
	))
	output := buffer.String()
	for _, want := range []string{"NAME", "Streaming", "€4.00", "TOTAL", "$20.31"} {
		require.Contains(t, output, want)
	}
	require.True(t, strings.HasSuffix(output, "\n"))
}

func TestWriteCSVRecords(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(t, WriteCSVRecords(&buffer, [][]string{{"name", "amount"}, {"Music, family", "16.99"}}))
	require.Equal(t, "name,amount\n\"Music, family\",16.99\n", buffer.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	type row struct {
		Code string `json:"code"`
	}
	var buffer bytes.Buffer
	require.NoError(t, WriteJSON(&buffer, row{Code: "USD"}, row{Code: "EUR"}))
	require.Equal(t, "{\"code\":\"USD\"}\n{\"code\":\"EUR\"}\n", buffer.String())
}
