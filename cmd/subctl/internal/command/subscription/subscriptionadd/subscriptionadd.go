// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subscriptionadd implements the "subscription add" command.
package subscriptionadd

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

// NewCommand returns a new subscription add command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Add a subscription",
		Long: `Add a subscription.

The currency defaults to the reporting currency and the next billing date
defaults to today. The created subscription is printed as JSON.`,
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
	// Name is the display name.
	Name string
	// Description is optional free text.
	Description string
	// Amount is charged once per period.
	Amount float64
	// Period is the billing period.
	Period string
	// Currency is the currency code.
	Currency string
	// NextBillingDate is the next charge date in YYYY-MM-DD format.
	NextBillingDate string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, subctlcmd.DirFlagName, ".", subctlcmd.DirFlagUsage)
	flagSet.StringVar(&f.Name, nameFlagName, "", "The subscription name (required)")
	flagSet.StringVar(&f.Description, descriptionFlagName, "", "An optional description")
	flagSet.Float64Var(&f.Amount, amountFlagName, 0, "The amount charged each period")
	flagSet.StringVar(&f.Period, periodFlagName, string(period.Monthly), "The billing period (weekly, monthly, yearly)")
	flagSet.StringVar(&f.Currency, currencyFlagName, "", "The currency code, defaults to the reporting currency")
	flagSet.StringVar(&f.NextBillingDate, nextBillingDateFlagName, "", "The next billing date (YYYY-MM-DD), defaults to today")
}

func run(ctx context.Context, container appext.Container, flags *flags) (retErr error) {
	parsedPeriod, err := period.ParsePeriod(flags.Period)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	nextBillingDate := xtime.TimeToDate(time.Now())
	if flags.NextBillingDate != "" {
		nextBillingDate, err = xtime.ParseDate(flags.NextBillingDate)
		if err != nil {
			return appcmd.NewInvalidArgumentErrorf("invalid --%s %q: %v", nextBillingDateFlagName, flags.NextBillingDate, err)
		}
	}
	runtime, err := subctlcmd.NewRuntime(ctx, container, flags.Dir)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, runtime.Close())
	}()
	currency := flags.Currency
	if currency == "" {
		currency, err = runtime.ReportingCurrency(ctx)
		if err != nil {
			return err
		}
	}
	subscription, err := runtime.Store.Create(
		ctx,
		subctlstore.SubscriptionInput{
			Name:            flags.Name,
			Description:     flags.Description,
			Amount:          flags.Amount,
			Period:          parsedPeriod,
			Currency:        currency,
			NextBillingDate: nextBillingDate,
		},
	)
	if err != nil {
		if errors.Is(err, subctlstore.ErrInvalid) {
			return appcmd.NewInvalidArgumentError(err.Error())
		}
		return err
	}
	container.Logger().Info("created subscription", "id", subscription.ID, "name", subscription.Name)
	return cliio.WriteJSON(container.Stdout(), subscription)
}
