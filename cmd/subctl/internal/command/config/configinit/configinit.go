// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configinit implements the "config init" command.
package configinit

import (
	"context"
	"fmt"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xos"
	"github.com/bufdev/subctl/internal/subctl/subctlconfig"
	"github.com/spf13/pflag"
)

const (
	// reportingCurrencyFlagName is the flag name for the seeded reporting currency.
	reportingCurrencyFlagName = "reporting-currency"
	// viewPeriodFlagName is the flag name for the seeded view period.
	viewPeriodFlagName = "view-period"
	// storageFlagName is the flag name for the seeded storage backend.
	storageFlagName = "storage"
)

// NewCommand returns a new config init command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Create subctl.yaml with documented defaults",
		Long: `Create subctl.yaml with documented defaults.

The reporting currency, view period, and storage backend can be set up front
with flags. Every other setting starts at its default and is explained in the
file. Fails if the file already exists.`,
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
	// Dir is the subctl directory the file is created in.
	Dir string
	// ReportingCurrency is written to reporting_currency, or left empty.
	ReportingCurrency string
	// ViewPeriod is written to view_period.
	ViewPeriod string
	// Storage is written to storage.backend.
	Storage string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.ReportingCurrency, reportingCurrencyFlagName, "", "Reporting currency to write, for example EUR")
	flagSet.StringVar(&f.ViewPeriod, viewPeriodFlagName, period.Monthly.String(), "Default view period to write (weekly, monthly, yearly)")
	flagSet.StringVar(&f.Storage, storageFlagName, string(subctlconfig.StorageBackendDir), "Storage backend to write (dir, sqlite, memory)")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	viewPeriod, err := period.ParsePeriod(flags.ViewPeriod)
	if err != nil {
		return appcmd.NewInvalidArgumentErrorf("--%s: %v", viewPeriodFlagName, err)
	}
	storageBackend, err := subctlconfig.ParseStorageBackend(flags.Storage)
	if err != nil {
		return appcmd.NewInvalidArgumentErrorf("--%s: %v", storageFlagName, err)
	}
	dirPath, err := xos.ExpandPath(flags.Dir, container.Env)
	if err != nil {
		return err
	}
	config, configFilePath, err := subctlconfig.InitConfig(
		dirPath,
		subctlconfig.InitConfigWithReportingCurrency(flags.ReportingCurrency),
		subctlconfig.InitConfigWithViewPeriod(viewPeriod),
		subctlconfig.InitConfigWithStorageBackend(storageBackend),
	)
	if err != nil {
		return err
	}
	container.Logger().Info(
		"created configuration",
		"path", configFilePath,
		"storage_backend", config.StorageBackend,
		"view_period", config.ViewPeriod,
		"reporting_currency", config.ReportingCurrency,
	)
	// The path alone goes to stdout so it can be piped to an editor.
	_, err = fmt.Fprintln(container.Stdout(), configFilePath)
	return err
}
