// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package rates implements the "rates" command group.
package rates

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/rates/ratesget"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/rates/ratesprobe"
)

// NewCommand returns a new rates command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Inspect exchange rates",
		SubCommands: []*appcmd.Command{
			ratesget.NewCommand("get", builder),
			ratesprobe.NewCommand("probe", builder),
		},
	}
}
