// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subscriptionlist implements the "subscription list" command.
package subscriptionlist

import (
	"context"
	"errors"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/cliio"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlreport"
	"github.com/spf13/pflag"
)

const (
	// formatFlagName is the flag name for the output format.
	formatFlagName = "format"
	// periodFlagName is the flag name for the view period.
	periodFlagName = "period"
)

// NewCommand returns a new subscription list command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "List subscriptions",
		Long: `List subscriptions.

Each amount is also shown rebased to the view period, in the subscription's
own currency. Subscriptions billing within the next week are marked as due soon.`,
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, formatFlagName, "table", "Output format (table, csv, json)")
	flagSet.StringVar(&f.Period, periodFlagName, "", "View period (weekly, monthly, yearly), defaults to the configured view period")
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
	subscriptions, err := runtime.Store.List(ctx)
	if err != nil {
		return err
	}
	rows := subctlreport.NewSubscriptionRows(subscriptions, viewPeriod, xtime.TimeToDate(time.Now()))
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		tableRows := make([][]string, 0, len(rows))
		for _, row := range rows {
			tableRows = append(tableRows, subctlreport.SubscriptionToTableRow(row))
		}
		return cliio.WriteTable(
			writer,
			subctlreport.SubscriptionHeaders(viewPeriod),
			tableRows,
			cliio.TableWithRightAlignedColumns(subctlreport.SubscriptionAmountColumns()...),
		)
	case cliio.FormatCSV:
		records := make([][]string, 0, len(rows)+1)
		records = append(records, subctlreport.SubscriptionHeaders(viewPeriod))
		for _, row := range rows {
			records = append(records, subctlreport.SubscriptionToCSVRow(row))
		}
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, rows...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
