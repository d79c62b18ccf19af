// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ratesget implements the "rates get" command.
package ratesget

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/cliio"
	"github.com/bufdev/subctl/internal/pkg/currencycatalog"
	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/spf13/pflag"
)

const (
	// formatFlagName is the flag name for the output format.
	formatFlagName = "format"
	// refreshFlagName is the flag name for discarding the cached table first.
	refreshFlagName = "refresh"
	// allFlagName is the flag name for listing every rate instead of catalog currencies only.
	allFlagName = "all"
)

// NewCommand returns a new rates get command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <base>",
		Short: "Display exchange rates for a base currency",
		Long: `Display exchange rates for a base currency.

Rates are read through the cache and fetched if the cached table is missing
or older than the configured TTL. Each rate is the number of units of the
currency per one unit of the base. By default only catalog currencies are shown.`,
		Args: appcmd.ExactArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the subctl directory containing subctl.yaml.
	Dir string
	// Format is the output format (table, csv, json).
	Format string
	// Refresh discards the cached table before reading.
	Refresh bool
	// All shows every rate in the table.
	All bool
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, formatFlagName, "table", "Output format (table, csv, json)")
	flagSet.BoolVar(&f.Refresh, refreshFlagName, false, "Discard the cached table and fetch a new one")
	flagSet.BoolVar(&f.All, allFlagName, false, "Show every rate instead of catalog currencies only")
}

func run(ctx context.Context, container appext.Container, flags *flags) (retErr error) {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	base := container.Arg(0)
	runtime, err := subctlcmd.NewRuntime(ctx, container, flags.Dir)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, runtime.Close())
	}()
	if flags.Refresh {
		if err := runtime.Cache.Invalidate(ctx, base); err != nil {
			return err
		}
	}
	table, err := runtime.Cache.GetOrFetch(ctx, base)
	if err != nil {
		return err
	}
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		return cliio.WriteTable(
			writer,
			[]string{"CURRENCY", "NAME", "RATE"},
			rateRows(table, flags.All, true),
			cliio.TableWithRightAlignedColumns(3),
			cliio.TableWithFooter([]string{table.Base, "", table.Date}),
		)
	case cliio.FormatCSV:
		records := [][]string{{"CURRENCY", "NAME", "RATE"}}
		records = append(records, rateRows(table, flags.All, false)...)
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, table)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func rateRows(table *fxrate.Table, all bool, formatted bool) [][]string {
	codes := make([]string, 0, len(table.Rates))
	for code := range table.Rates {
		if _, ok := currencycatalog.Lookup(code); ok || all {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rate := strconv.FormatFloat(table.Rates[code], 'f', -1, 64)
		if formatted {
			rate = fmt.Sprintf("%.6f", table.Rates[code])
		}
		rows = append(rows, []string{code, currencycatalog.FindName(code), rate})
	}
	return rows
}
