// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package overview implements the "overview" command.
package overview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/cliio"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/subctl/subctlreport"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
	"github.com/spf13/pflag"
)

const (
	// formatFlagName is the flag name for the output format.
	formatFlagName = "format"
	// periodFlagName is the flag name for the view period.
	periodFlagName = "period"
	// currencyFlagName is the flag name for the reporting currency.
	currencyFlagName = "currency"
)

// NewCommand returns a new overview command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display total subscription spend in the reporting currency",
		Long: `Display total subscription spend in the reporting currency.

Subscriptions in other currencies are converted with the latest exchange rates,
which are cached for a day. If no rates can be fetched, totals are shown per
currency instead. The total is broken down into weekly, monthly, and yearly amounts.`,
		Args: appcmd.NoArgs,
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
	// Period is the view period, or empty for the configured default.
	Period string
	// Currency is the reporting currency, or empty for the stored preference.
	Currency string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, formatFlagName, "table", "Output format (table, csv, json)")
	flagSet.StringVar(&f.Period, periodFlagName, "", "View period (weekly, monthly, yearly), defaults to the configured view period")
	flagSet.StringVar(&f.Currency, currencyFlagName, "", "Reporting currency, defaults to the stored preference")
}

func run(ctx context.Context, container appext.Container, flags *flags) (retErr error) {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	runtime, err := subctlcmd.NewRuntime(ctx, container, flags.Dir)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, runtime.Close())
	}()
	viewPeriod := runtime.Config.ViewPeriod
	if flags.Period != "" {
		viewPeriod, err = period.ParsePeriod(flags.Period)
		if err != nil {
			return appcmd.NewInvalidArgumentError(err.Error())
		}
	}
	reportingCurrency := strings.TrimSpace(flags.Currency)
	if reportingCurrency == "" {
		reportingCurrency, err = runtime.ReportingCurrency(ctx)
		if err != nil {
			return err
		}
	}
	subscriptions, err := runtime.Store.List(ctx)
	if err != nil {
		return err
	}
	result := runtime.Engine.Aggregate(ctx, subctlstore.Items(subscriptions), viewPeriod, reportingCurrency)
	advisories := subctlreport.Advisories(result)
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		if err := cliio.WriteTable(
			writer,
			subctlreport.OverviewHeaders(),
			subctlreport.OverviewRows(result, true),
			cliio.TableWithRightAlignedColumns(2, 3, 4),
			cliio.TableWithFooter(
				[]string{
					fmt.Sprintf("%d subscriptions", len(subscriptions)),
					"",
					"",
					result.Kind.String(),
				},
			),
		); err != nil {
			return err
		}
		for _, advisory := range advisories {
			if _, err := fmt.Fprintf(writer, "note: %s\n", advisory); err != nil {
				return err
			}
		}
		return nil
	case cliio.FormatCSV:
		// Machine-readable output carries advisories on the log instead.
		logAdvisories(container, advisories)
		records := [][]string{subctlreport.OverviewHeaders()}
		records = append(records, subctlreport.OverviewRows(result, false)...)
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		logAdvisories(container, advisories)
		return cliio.WriteJSON(writer, result)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func logAdvisories(container appext.Container, advisories []string) {
	logger := container.Logger()
	for _, advisory := range advisories {
		logger.Warn(advisory)
	}
}
