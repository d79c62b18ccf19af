// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ratesprobe implements the "rates probe" command for testing rate source connectivity.
package ratesprobe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/cliio"
	"github.com/bufdev/subctl/internal/subctl/subctlrates"
	"github.com/spf13/pflag"
)

// NewCommand returns a new rates probe command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <base>",
		Short: "Probe each exchange rate source for a base currency",
		Long: `Probe each exchange rate source for a base currency.

Makes one call to the primary and one call to the secondary source and prints
the outcome of each. Bypasses the cache and does not write to it.
Fails if every source fails.`,
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	config, _, err := subctlcmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	logger := container.Logger()
	base := container.Arg(0)
	logger.Info("probing rate sources", "base", base, "primary_url", config.PrimaryURL, "fallback_url", config.FallbackURL)
	results := subctlcmd.NewGateway(container, config, nil).Probe(ctx, base)
	rows := make([][]string, 0, len(results))
	var errs []error
	for _, result := range results {
		rows = append(rows, probeRow(result))
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.Source, result.Err))
		}
	}
	if err := cliio.WriteTable(
		container.Stdout(),
		[]string{"SOURCE", "STATUS", "DATE", "RATES", "DURATION"},
		rows,
		cliio.TableWithRightAlignedColumns(4, 5),
	); err != nil {
		return err
	}
	if len(errs) == len(results) {
		return fmt.Errorf("probe failed: %w", errors.Join(errs...))
	}
	return nil
}

func probeRow(result subctlrates.SourceResult) []string {
	duration := result.Duration.Round(time.Millisecond).String()
	if result.Err != nil {
		return []string{result.Source, "error: " + result.Err.Error(), "", "", duration}
	}
	return []string{result.Source, "ok", result.Table.Date, strconv.Itoa(len(result.Table.Rates)), duration}
}
