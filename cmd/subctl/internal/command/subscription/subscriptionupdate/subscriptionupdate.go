// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subscriptionupdate implements the "subscription update" command.
package subscriptionupdate

import (
	"context"
	"errors"
	"strconv"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/subctlcmd"
	"github.com/bufdev/subctl/internal/pkg/cliio"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
	"github.com/spf13/pflag"
)

const (
	nameFlagName            = "name"
	descriptionFlagName     = "description"
	amountFlagName          = "amount"
	periodFlagName          = "period"
	currencyFlagName        = "currency"
	nextBillingDateFlagName = "next-billing-date"
)

// NewCommand returns a new subscription update command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <id>",
		Short: "Update a subscription",
		Long: `Update a subscription.

Only the fields given as flags change. The ID and creation time are kept.
The updated subscription is printed as JSON.`,
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
	// Name is the new display name, or empty to keep it.
	Name string
	// Description is the new description, or empty to keep it.
	Description string
	// Amount is the new amount, or empty to keep it.
	Amount string
	// Period is the new billing period, or empty to keep it.
	Period string
	// Currency is the new currency code, or empty to keep it.
	Currency string
	// NextBillingDate is the new next billing date, or empty to keep it.
	NextBillingDate string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Name, nameFlagName, "", "The new name")
	flagSet.StringVar(&f.Description, descriptionFlagName, "", "The new description")
	flagSet.StringVar(&f.Amount, amountFlagName, "", "The new amount charged each period")
	flagSet.StringVar(&f.Period, periodFlagName, "", "The new billing period (weekly, monthly, yearly)")
	flagSet.StringVar(&f.Currency, currencyFlagName, "", "The new currency code")
	flagSet.StringVar(&f.NextBillingDate, nextBillingDateFlagName, "", "The new next billing date (YYYY-MM-DD)")
}

func run(ctx context.Context, container appext.Container, flags *flags) (retErr error) {
	id := container.Arg(0)
	runtime, err := subctlcmd.NewRuntime(ctx, container, flags.Dir)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, runtime.Close())
	}()
	existing, err := runtime.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	input, err := applyFlags(existing, flags)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	subscription, err := runtime.Store.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, subctlstore.ErrInvalid) {
			return appcmd.NewInvalidArgumentError(err.Error())
		}
		return err
	}
	container.Logger().Info("updated subscription", "id", subscription.ID)
	return cliio.WriteJSON(container.Stdout(), subscription)
}

func applyFlags(existing subctlstore.Subscription, flags *flags) (subctlstore.SubscriptionInput, error) {
	input := subctlstore.SubscriptionInput{
		Name:            existing.Name,
		Description:     existing.Description,
		Amount:          existing.Amount,
		Period:          existing.Period,
		Currency:        existing.Currency,
		NextBillingDate: existing.NextBillingDate,
	}
	if flags.Name != "" {
		input.Name = flags.Name
	}
	if flags.Description != "" {
		input.Description = flags.Description
	}
	if flags.Amount != "" {
		amount, err := strconv.ParseFloat(flags.Amount, 64)
		if err != nil {
			return subctlstore.SubscriptionInput{}, err
		}
		input.Amount = amount
	}
	if flags.Period != "" {
		parsedPeriod, err := period.ParsePeriod(flags.Period)
		if err != nil {
			return subctlstore.SubscriptionInput{}, err
		}
		input.Period = parsedPeriod
	}
	if flags.Currency != "" {
		input.Currency = flags.Currency
	}
	if flags.NextBillingDate != "" {
		nextBillingDate, err := xtime.ParseDate(flags.NextBillingDate)
		if err != nil {
			return subctlstore.SubscriptionInput{}, err
		}
		input.NextBillingDate = nextBillingDate
	}
	return input, nil
}
