// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package currencies implements the "currencies" command group.
package currencies

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/cmd/subctl/internal/command/currencies/currencieslist"
)

// NewCommand returns a new currencies command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Inspect known currencies",
		SubCommands: []*appcmd.Command{
			currencieslist.NewCommand("list", builder),
		},
	}
}
