// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/config"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/currencies"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/overview"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/rates"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/serve"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/subscription"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}
	appcmd.Main(context.Background(), newRootCommand("subctl"))
}

// newRootCommand creates the root subctl command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Track recurring subscriptions across currencies",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			config.NewCommand("config", builder),
			subscription.NewCommand("subscription", builder),
			overview.NewCommand("overview", builder),
			rates.NewCommand("rates", builder),
			currencies.NewCommand("currencies", builder),
			serve.NewCommand("serve", builder),
		},
	}
}
