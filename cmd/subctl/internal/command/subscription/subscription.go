// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subscription implements the "subscription" command group.
package subscription

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/subscription/subscriptionadd"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/subscription/subscriptiondelete"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/subscription/subscriptionlist"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/subscription/subscriptionupdate"
)

// NewCommand returns a new subscription command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Manage subscriptions",
		SubCommands: []*appcmd.Command{
			subscriptionadd.NewCommand("add", builder),
			subscriptionlist.NewCommand("list", builder),
			subscriptionupdate.NewCommand("update", builder),
			subscriptiondelete.NewCommand("delete", builder),
		},
	}
}
