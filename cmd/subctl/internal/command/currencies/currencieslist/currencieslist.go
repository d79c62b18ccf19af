// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package currencieslist implements the "currencies list" command.
package currencieslist

import (
	"context"
	"errors"
	"strconv"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/cliio"
	"github.com/bufdev/subctl/internal/pkg/currencycatalog"
	"github.com/bufdev/subctl/internal/subctl/subctlaggregate"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
	"github.com/spf13/pflag"
)

// formatFlagName is the flag name for the output format.
const formatFlagName = "format"

// NewCommand returns a new currencies list command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "List catalog currencies and the currencies used by subscriptions",
		Args:  appcmd.NoArgs,
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, formatFlagName, "table", "Output format (table, csv, json)")
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
	subscriptions, err := runtime.Store.List(ctx)
	if err != nil {
		return err
	}
	options := currencycatalog.Options(subctlaggregate.UsedCurrencies(subctlstore.Items(subscriptions))...)
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable, cliio.FormatCSV:
		rows := make([][]string, 0, len(options))
		for _, option := range options {
			rows = append(
				rows,
				[]string{
					option.Code,
					option.Label,
					currencycatalog.FindName(option.Code),
					strconv.FormatBool(currencycatalog.IsISOCode(option.Code)),
				},
			)
		}
		headers := []string{"CODE", "LABEL", "NAME", "ISO"}
		if format == cliio.FormatCSV {
			return cliio.WriteCSVRecords(writer, append([][]string{headers}, rows...))
		}
		return cliio.WriteTable(writer, headers, rows)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, options...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}
