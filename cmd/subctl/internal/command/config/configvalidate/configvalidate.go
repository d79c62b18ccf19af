// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configvalidate implements the "config validate" command.
package configvalidate

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/standard/xos"
	"github.com/bufdev/subctl/internal/subctl/subctlconfig"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config validate command that validates the configuration file.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Validate the configuration file",
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	dirPath, err := xos.ExpandPath(flags.Dir, container.Env)
	if err != nil {
		return err
	}
	if err := subctlconfig.ValidateConfig(dirPath); err != nil {
		return err
	}
	// Environment overrides are validated too.
	_, _, err = subctlcmd.ReadConfig(container, dirPath)
	return err
}
