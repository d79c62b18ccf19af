// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subscriptiondelete implements the "subscription delete" command.
package subscriptiondelete

import (
	"context"
	"errors"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/spf13/pflag"
)

// allFlagName is the flag name for deleting every subscription.
const allFlagName = "all"

// NewCommand returns a new subscription delete command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " [id]",
		Short: "Delete a subscription, or all data with --all",
		Args:  appcmd.MaximumNArgs(1),
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
	// All deletes every subscription and the reporting currency preference.
	All bool
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.BoolVar(&f.All, allFlagName, false, "Delete all subscriptions and the reporting currency preference")
}

func run(ctx context.Context, container appext.Container, flags *flags) (retErr error) {
	if flags.All == (container.NumArgs() == 1) {
		return appcmd.NewInvalidArgumentErrorf("exactly one of an id or --%s must be given", allFlagName)
	}
	runtime, err := subctlcmd.NewRuntime(ctx, container, flags.Dir)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, runtime.Close())
	}()
	if flags.All {
		if err := runtime.Store.DeleteAll(ctx); err != nil {
			return err
		}
		container.Logger().Info("deleted all subscriptions")
		return nil
	}
	id := container.Arg(0)
	if err := runtime.Store.Delete(ctx, id); err != nil {
		return err
	}
	container.Logger().Info("deleted subscription", "id", id)
	return nil
}
